package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-auth-nosql/internal/domain"
	"github.com/sethvargo/go-retry"
)

// Deliverer bounds every send attempt with a timeout and retries failed
// attempts with exponential backoff. A message that still fails is reported
// as domain.ErrTransport.
type Deliverer struct {
	sender  Sender
	timeout time.Duration
	retries uint64
	backoff time.Duration
}

func NewDeliverer(sender Sender, timeout time.Duration, retries int) *Deliverer {
	if retries < 0 {
		retries = 0
	}
	return &Deliverer{sender: sender, timeout: timeout, retries: uint64(retries), backoff: 200 * time.Millisecond}
}

func (d *Deliverer) Deliver(ctx context.Context, msg Message) error {
	attempt := 0
	b := retry.WithMaxRetries(d.retries, retry.NewExponential(d.backoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()
		err := d.sender.Send(sendCtx, msg)
		if err == nil {
			return nil
		}
		// The caller gave up; further attempts cannot succeed.
		if ctx.Err() != nil {
			return err
		}
		slog.Warn("mail send attempt failed", "to", msg.To, "attempt", attempt, "err", err)
		return retry.RetryableError(err)
	})
	if err != nil {
		return fmt.Errorf("deliver %q to %s: %w", msg.Subject, msg.To, errors.Join(domain.ErrTransport, err))
	}
	return nil
}
