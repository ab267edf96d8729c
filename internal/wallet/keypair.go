package wallet

import (
	"context"
	"fmt"

	solanago "github.com/gagliardetto/solana-go"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/launch"
	"token-launchpad/internal/solana"
)

// KeypairSigner signs with a local private key and submits through an RPC node.
// Meant for devnet and local validators.
type KeypairSigner struct {
	key        solanago.PrivateKey
	rpc        solana.RPCClient
	commitment domain.Commitment
}

// NewKeypairSigner creates a signer for key.
func NewKeypairSigner(key solanago.PrivateKey, rpc solana.RPCClient, preflight domain.Commitment) *KeypairSigner {
	if !preflight.IsValid() {
		preflight = domain.CommitmentConfirmed
	}
	return &KeypairSigner{key: key, rpc: rpc, commitment: preflight}
}

// LoadKeypairSigner reads a solana-keygen JSON keypair file.
func LoadKeypairSigner(path string, rpc solana.RPCClient, preflight domain.Commitment) (*KeypairSigner, error) {
	key, err := solanago.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("load keypair %s: %w", path, err)
	}
	return NewKeypairSigner(key, rpc, preflight), nil
}

// Address returns the signer public key.
func (s *KeypairSigner) Address() string {
	return s.key.PublicKey().String()
}

// SignAndSubmit adds the payer signature to raw and sends it. A transaction
// that does not name this key as a signer is rejected before submission.
func (s *KeypairSigner) SignAndSubmit(ctx context.Context, raw []byte) (domain.SubmittedSignature, error) {
	tx, err := solana.DecodeTransaction(raw)
	if err != nil {
		return domain.SubmittedSignature{}, fmt.Errorf("%w: %w", launch.ErrSigningRejected, err)
	}

	applied, err := solana.SignWith(tx, s.key)
	if err != nil {
		return domain.SubmittedSignature{}, fmt.Errorf("%w: %w", launch.ErrSigningRejected, err)
	}
	if !applied {
		return domain.SubmittedSignature{}, fmt.Errorf("%w: %s is not a required signer", launch.ErrSigningRejected, s.Address())
	}

	signed, err := tx.MarshalBinary()
	if err != nil {
		return domain.SubmittedSignature{}, fmt.Errorf("%w: encode signed transaction: %w", launch.ErrSigningRejected, err)
	}

	sig, err := s.rpc.SendTransaction(ctx, signed, &solana.SendOpts{PreflightCommitment: s.commitment})
	if err != nil {
		return domain.SubmittedSignature{}, fmt.Errorf("%w: %w", launch.ErrSubmission, err)
	}
	return domain.SubmittedSignature{Text: sig}, nil
}
