package solana

import (
	"context"

	"token-launchpad/internal/domain"
)

// RPCClient defines the Solana RPC HTTP methods used by the launch pipeline.
type RPCClient interface {
	// SendTransaction submits a signed wire transaction and returns its signature.
	SendTransaction(ctx context.Context, raw []byte, opts *SendOpts) (string, error)

	// GetSignatureStatuses returns the status of each signature, nil where unknown.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)
}

// SendOpts defines optional parameters for sendTransaction.
type SendOpts struct {
	SkipPreflight       bool
	PreflightCommitment domain.Commitment
}

// SignatureStatus from getSignatureStatuses.
type SignatureStatus struct {
	Slot               int64
	Confirmations      *int64 // nil once rooted
	Err                interface{}
	ConfirmationStatus domain.Commitment
}

// Failed reports whether the transaction executed with an error.
func (s *SignatureStatus) Failed() bool {
	return s != nil && s.Err != nil
}
