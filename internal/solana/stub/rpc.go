// Package stub provides in-memory Solana clients for tests.
package stub

import (
	"context"
	"crypto/sha256"
	"sync"

	"github.com/mr-tron/base58"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/solana"
)

// RPCClient implements solana.RPCClient for testing.
// Sent transactions get a deterministic signature derived from their bytes
// and report the configured status on lookup.
type RPCClient struct {
	mu sync.Mutex

	// Statuses is returned by GetSignatureStatuses, keyed by signature.
	Statuses map[string]*solana.SignatureStatus
	// AutoConfirm marks every sent transaction with this commitment. Empty
	// leaves new signatures unknown.
	AutoConfirm domain.Commitment
	// SendErr, if set, is returned by SendTransaction.
	SendErr error
	// StatusErr, if set, is returned by GetSignatureStatuses.
	StatusErr error

	Sent        [][]byte
	StatusCalls int
}

// NewRPCClient creates a new stub RPC client that confirms everything it receives.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Statuses:    make(map[string]*solana.SignatureStatus),
		AutoConfirm: domain.CommitmentConfirmed,
	}
}

// Compile-time interface check.
var _ solana.RPCClient = (*RPCClient)(nil)

// SignatureFor returns the signature the stub assigns to raw.
func SignatureFor(raw []byte) string {
	sum := sha256.Sum256(raw)
	sig := make([]byte, 0, solana.SignatureLength)
	sig = append(sig, sum[:]...)
	sig = append(sig, sum[:]...)
	return base58.Encode(sig)
}

// SendTransaction records raw and returns its derived signature.
func (c *RPCClient) SendTransaction(_ context.Context, raw []byte, _ *solana.SendOpts) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.SendErr != nil {
		return "", c.SendErr
	}

	c.Sent = append(c.Sent, append([]byte(nil), raw...))
	sig := SignatureFor(raw)
	if c.AutoConfirm != "" {
		if _, ok := c.Statuses[sig]; !ok {
			c.Statuses[sig] = &solana.SignatureStatus{Slot: int64(len(c.Sent)), ConfirmationStatus: c.AutoConfirm}
		}
	}
	return sig, nil
}

// GetSignatureStatuses returns the stored statuses; unknown signatures are nil.
func (c *RPCClient) GetSignatureStatuses(_ context.Context, signatures []string) ([]*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.StatusCalls++
	if c.StatusErr != nil {
		return nil, c.StatusErr
	}

	out := make([]*solana.SignatureStatus, len(signatures))
	for i, sig := range signatures {
		if s, ok := c.Statuses[sig]; ok {
			copied := *s
			out[i] = &copied
		}
	}
	return out, nil
}

// SetStatus sets the status reported for signature.
func (c *RPCClient) SetStatus(signature string, status *solana.SignatureStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Statuses[signature] = status
}

// SentCount returns the number of transactions sent.
func (c *RPCClient) SentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Sent)
}
