package solana

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/launch"
)

// Default confirmation settings.
const (
	DefaultPollInterval        = 500 * time.Millisecond
	DefaultConfirmationTimeout = 90 * time.Second
)

// ConfirmerOptions configures confirmers.
type ConfirmerOptions struct {
	PollInterval time.Duration
	Timeout      time.Duration // bounded wait per signature
	Logger       logrus.FieldLogger
}

func (o ConfirmerOptions) withDefaults() ConfirmerOptions {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultConfirmationTimeout
	}
	if o.Logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		o.Logger = l
	}
	return o
}

// PollingConfirmer waits for confirmations by polling getSignatureStatuses.
type PollingConfirmer struct {
	rpc  RPCClient
	opts ConfirmerOptions
}

// NewPollingConfirmer creates a confirmer polling rpc.
func NewPollingConfirmer(rpc RPCClient, opts ConfirmerOptions) *PollingConfirmer {
	return &PollingConfirmer{rpc: rpc, opts: opts.withDefaults()}
}

// Confirm blocks until signature reaches commitment, fails on-chain, or the
// bounded wait expires. Transient RPC errors are retried until the deadline.
func (p *PollingConfirmer) Confirm(ctx context.Context, signature string, commitment domain.Commitment) error {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()
	return p.poll(ctx, signature, commitment)
}

func (p *PollingConfirmer) poll(ctx context.Context, signature string, commitment domain.Commitment) error {
	ticker := time.NewTicker(p.opts.PollInterval)
	defer ticker.Stop()

	for {
		done, err := p.check(ctx, signature, commitment)
		if done {
			return err
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s not %s: %v", launch.ErrConfirmationTimeout, signature, commitment, ctx.Err())
		case <-ticker.C:
		}
	}
}

// check performs a single status lookup. done is true once the outcome is final.
func (p *PollingConfirmer) check(ctx context.Context, signature string, commitment domain.Commitment) (bool, error) {
	statuses, err := p.rpc.GetSignatureStatuses(ctx, []string{signature})
	if err != nil {
		if ctx.Err() != nil {
			return false, nil
		}
		p.opts.Logger.WithError(err).WithField("signature", signature).Debug("status poll failed")
		return false, nil
	}
	if len(statuses) == 0 || statuses[0] == nil {
		return false, nil
	}

	status := statuses[0]
	if status.Failed() {
		return true, fmt.Errorf("%w: %s: %v", launch.ErrConfirmationFailed, signature, status.Err)
	}
	if status.ConfirmationStatus.Satisfies(commitment) {
		return true, nil
	}
	return false, nil
}

// WSConfirmer waits for confirmations through signatureSubscribe and falls
// back to polling when the subscription cannot be used.
type WSConfirmer struct {
	ws      WSClient
	polling *PollingConfirmer
	opts    ConfirmerOptions
}

// NewWSConfirmer creates a subscription-based confirmer.
func NewWSConfirmer(ws WSClient, rpc RPCClient, opts ConfirmerOptions) *WSConfirmer {
	opts = opts.withDefaults()
	return &WSConfirmer{
		ws:      ws,
		polling: NewPollingConfirmer(rpc, opts),
		opts:    opts,
	}
}

// Confirm implements the same contract as PollingConfirmer.Confirm.
func (w *WSConfirmer) Confirm(ctx context.Context, signature string, commitment domain.Commitment) error {
	ctx, cancel := context.WithTimeout(ctx, w.opts.Timeout)
	defer cancel()

	log := w.opts.Logger.WithField("signature", signature)

	ch, err := w.ws.SubscribeSignature(ctx, signature, commitment)
	if err != nil {
		log.WithError(err).Warn("signature subscription failed, polling instead")
		return w.polling.poll(ctx, signature, commitment)
	}
	defer w.ws.Unsubscribe(ch)

	// The transaction may have landed before the subscription existed.
	if done, err := w.polling.check(ctx, signature, commitment); done {
		return err
	}

	select {
	case n, ok := <-ch:
		if !ok {
			log.Warn("subscription closed before notification, polling instead")
			return w.polling.poll(ctx, signature, commitment)
		}
		if n.Failed() {
			return fmt.Errorf("%w: %s: %v", launch.ErrConfirmationFailed, signature, n.Err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %s not %s: %v", launch.ErrConfirmationTimeout, signature, commitment, ctx.Err())
	}
}
