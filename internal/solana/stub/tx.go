package stub

import (
	solanago "github.com/gagliardetto/solana-go"
)

var systemProgram = solanago.MustPublicKeyFromBase58("11111111111111111111111111111111")

// UnsignedTransaction serializes a transaction paid by payer that lists every
// key in signers as a required signer. Signature slots are zeroed, the way a
// pool service returns them. The memo byte makes each transaction distinct.
func UnsignedTransaction(payer solanago.PublicKey, memo byte, signers ...solanago.PublicKey) ([]byte, error) {
	accounts := solanago.AccountMetaSlice{solanago.NewAccountMeta(payer, true, true)}
	for _, s := range signers {
		accounts = append(accounts, solanago.NewAccountMeta(s, true, true))
	}
	ix := solanago.NewInstruction(systemProgram, accounts, []byte{memo})

	tx, err := solanago.NewTransaction(
		[]solanago.Instruction{ix},
		solanago.Hash{},
		solanago.TransactionPayer(payer),
	)
	if err != nil {
		return nil, err
	}
	tx.Signatures = make([]solanago.Signature, tx.Message.Header.NumRequiredSignatures)
	return tx.MarshalBinary()
}

// MustUnsignedTransaction is UnsignedTransaction that panics on error.
func MustUnsignedTransaction(payer solanago.PublicKey, memo byte, signers ...solanago.PublicKey) []byte {
	raw, err := UnsignedTransaction(payer, memo, signers...)
	if err != nil {
		panic(err)
	}
	return raw
}

// NewAddress returns a random base58 public key.
func NewAddress() string {
	key, err := solanago.NewRandomPrivateKey()
	if err != nil {
		panic(err)
	}
	return key.PublicKey().String()
}
