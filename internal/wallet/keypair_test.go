package wallet

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/launch"
	"token-launchpad/internal/solana"
	"token-launchpad/internal/solana/stub"
)

func TestKeypairSigner_SignAndSubmit(t *testing.T) {
	key, err := solanago.NewRandomPrivateKey()
	require.NoError(t, err)

	rpc := stub.NewRPCClient()
	signer := NewKeypairSigner(key, rpc, domain.CommitmentConfirmed)
	assert.Equal(t, key.PublicKey().String(), signer.Address())

	raw := stub.MustUnsignedTransaction(key.PublicKey(), 7)
	sig, err := signer.SignAndSubmit(context.Background(), raw)
	require.NoError(t, err)
	require.Equal(t, 1, rpc.SentCount())
	assert.Equal(t, stub.SignatureFor(rpc.Sent[0]), sig.Text)

	tx, err := solana.DecodeTransaction(rpc.Sent[0])
	require.NoError(t, err)
	msg, err := tx.Message.MarshalBinary()
	require.NoError(t, err)
	pub := key.PublicKey()
	assert.True(t, ed25519.Verify(ed25519.PublicKey(pub[:]), msg, tx.Signatures[0][:]))
}

func TestKeypairSigner_NotASigner(t *testing.T) {
	key, err := solanago.NewRandomPrivateKey()
	require.NoError(t, err)
	other, err := solanago.NewRandomPrivateKey()
	require.NoError(t, err)

	rpc := stub.NewRPCClient()
	_, err = NewKeypairSigner(key, rpc, "").SignAndSubmit(context.Background(),
		stub.MustUnsignedTransaction(other.PublicKey(), 1))
	assert.ErrorIs(t, err, launch.ErrSigningRejected)
	assert.Zero(t, rpc.SentCount())
}

func TestKeypairSigner_SubmissionError(t *testing.T) {
	key, err := solanago.NewRandomPrivateKey()
	require.NoError(t, err)

	rpc := stub.NewRPCClient()
	rpc.SendErr = errors.New("blockhash not found")

	_, err = NewKeypairSigner(key, rpc, "").SignAndSubmit(context.Background(),
		stub.MustUnsignedTransaction(key.PublicKey(), 1))
	assert.ErrorIs(t, err, launch.ErrSubmission)
}

func TestLoadKeypairSigner(t *testing.T) {
	key, err := solanago.NewRandomPrivateKey()
	require.NoError(t, err)

	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "id.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	signer, err := LoadKeypairSigner(path, stub.NewRPCClient(), domain.CommitmentFinalized)
	require.NoError(t, err)
	assert.Equal(t, key.PublicKey().String(), signer.Address())

	_, err = LoadKeypairSigner(filepath.Join(t.TempDir(), "missing.json"), nil, "")
	assert.Error(t, err)
}
