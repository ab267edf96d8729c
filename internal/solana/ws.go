package solana

import (
	"context"

	"token-launchpad/internal/domain"
)

// WSClient defines Solana WebSocket subscription interface.
type WSClient interface {
	// SubscribeSignature subscribes to a single signature. The returned channel
	// receives at most one notification and is closed afterwards.
	SubscribeSignature(ctx context.Context, signature string, commitment domain.Commitment) (<-chan SignatureNotification, error)

	// Unsubscribe abandons a subscription returned by SubscribeSignature.
	Unsubscribe(ch <-chan SignatureNotification)

	// Close closes the WebSocket connection.
	Close() error
}

// SignatureNotification is delivered once the signature reaches the
// subscribed commitment level.
type SignatureNotification struct {
	Signature string
	Slot      int64
	Err       interface{}
}

// Failed reports whether the transaction failed on-chain.
func (n SignatureNotification) Failed() bool {
	return n.Err != nil
}
