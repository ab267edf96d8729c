package solana

import (
	"errors"
	"fmt"
	"sync"

	"filippo.io/edwards25519"
	bin "github.com/gagliardetto/binary"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"

	"token-launchpad/internal/domain"
)

// SignatureLength is the size of an ed25519 transaction signature.
const SignatureLength = 64

// ErrInvalidSignature is returned for signatures that are not 64 bytes of base58.
var ErrInvalidSignature = errors.New("invalid signature")

// NormalizeSignature returns the canonical base58 form of a signature that a
// wallet reported either as text or as raw bytes. Text takes precedence.
func NormalizeSignature(text string, raw []byte) (string, error) {
	if text != "" {
		decoded, err := base58.Decode(text)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		if len(decoded) != SignatureLength {
			return "", fmt.Errorf("%w: decoded %d bytes", ErrInvalidSignature, len(decoded))
		}
		// Re-encode so leading-zero and alphabet variants collapse to one form
		return base58.Encode(decoded), nil
	}
	if len(raw) != SignatureLength {
		return "", fmt.Errorf("%w: got %d raw bytes", ErrInvalidSignature, len(raw))
	}
	return base58.Encode(raw), nil
}

// DecodeTransaction parses a serialized wire transaction.
func DecodeTransaction(raw []byte) (*solanago.Transaction, error) {
	tx, err := solanago.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	return tx, nil
}

// SignWith adds key's signature to tx at the slot of its public key among the
// required signers. It reports false when key is not a required signer.
func SignWith(tx *solanago.Transaction, key solanago.PrivateKey) (bool, error) {
	signer := key.PublicKey()
	required := int(tx.Message.Header.NumRequiredSignatures)

	slot := -1
	for i := 0; i < required && i < len(tx.Message.AccountKeys); i++ {
		if tx.Message.AccountKeys[i].Equals(signer) {
			slot = i
			break
		}
	}
	if slot < 0 {
		return false, nil
	}

	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return false, fmt.Errorf("marshal message: %w", err)
	}
	sig, err := key.Sign(msg)
	if err != nil {
		return false, fmt.Errorf("sign message: %w", err)
	}

	for len(tx.Signatures) < required {
		tx.Signatures = append(tx.Signatures, solanago.Signature{})
	}
	tx.Signatures[slot] = sig
	return true, nil
}

// MintCoSigner adds the new mint's signature to the single transaction that
// requires it. The key is wiped right after that transaction is signed.
type MintCoSigner struct {
	mu       sync.Mutex
	identity *domain.TokenIdentity
}

// NewMintCoSigner creates a co-signer for identity.
func NewMintCoSigner(identity *domain.TokenIdentity) *MintCoSigner {
	return &MintCoSigner{identity: identity}
}

// CoSign returns raw with the mint signature applied. Transactions that do
// not name the mint as a signer, and every transaction after the first
// co-signed one, are returned unchanged with applied=false.
func (m *MintCoSigner) CoSign(raw []byte) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.identity.Wiped() {
		return raw, false, nil
	}

	tx, err := DecodeTransaction(raw)
	if err != nil {
		return nil, false, err
	}

	key := solanago.PrivateKey(m.identity.Secret())
	applied, err := SignWith(tx, key)
	if err != nil {
		return nil, false, err
	}
	if !applied {
		return raw, false, nil
	}

	// Used exactly once
	m.identity.Wipe()

	signed, err := tx.MarshalBinary()
	if err != nil {
		return nil, false, fmt.Errorf("marshal transaction: %w", err)
	}
	return signed, true, nil
}

// NewKeypair generates a fresh ed25519 keypair and returns it as a token identity.
func NewKeypair() (*domain.TokenIdentity, error) {
	key, err := solanago.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	return domain.NewTokenIdentity(key.PublicKey().String(), []byte(key)), nil
}

// ValidateAddress checks that s is a base58 ed25519 public key.
func ValidateAddress(s string) error {
	if _, err := solanago.PublicKeyFromBase58(s); err != nil {
		return fmt.Errorf("invalid address %q: %w", s, err)
	}
	return nil
}

// ValidateSignerAddress checks that s is an address that can sign, i.e. a
// point on the ed25519 curve. Program derived addresses are rejected.
func ValidateSignerAddress(s string) error {
	key, err := solanago.PublicKeyFromBase58(s)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", s, err)
	}
	if !isOnCurve(key[:]) {
		return fmt.Errorf("address %s is off the ed25519 curve and cannot sign", s)
	}
	return nil
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
