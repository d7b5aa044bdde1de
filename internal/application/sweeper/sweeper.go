// Package sweeper deletes accounts that never completed email verification.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-auth-nosql/internal/observability"
	"github.com/go-auth-nosql/internal/pkg/errutil"
	"github.com/samber/oops"
)

// CodeTickFailed tags errors from a failed sweep.
const CodeTickFailed = "SWEEP_TICK_FAILED"

// Store deletes unverified accounts created before cutoff that still hold an
// email verification code and reports how many it removed.
type Store interface {
	DeleteUnverifiedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Sweeper runs Sweep once at Start and then on every interval tick.
type Sweeper struct {
	mu        sync.Mutex
	store     Store
	metrics   *observability.Metrics
	logger    *slog.Logger
	threshold time.Duration
	interval  time.Duration
	now       func() time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

type Deps struct {
	Store     Store
	Metrics   *observability.Metrics
	Logger    *slog.Logger
	Threshold time.Duration
	Interval  time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

func New(deps Deps) *Sweeper {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		store:     deps.Store,
		metrics:   deps.Metrics,
		logger:    logger.With("component", "sweeper"),
		threshold: deps.Threshold,
		interval:  deps.Interval,
		now:       now,
	}
}

// Start runs a sweep immediately and then every interval until ctx is done
// or Stop is called. Calling Start on a running sweeper is a no-op.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		s.Sweep(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}(s.done)
}

// Stop cancels the loop and waits for an in-flight sweep to return.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Sweep deletes every account that is unverified, was created more than the
// threshold ago and still holds an email verification code. It returns the
// number deleted. Failures are logged and counted, never returned; the next
// tick tries again.
func (s *Sweeper) Sweep(ctx context.Context) (deleted int) {
	cutoff := s.now().Add(-s.threshold)
	defer func() {
		if r := recover(); r != nil {
			s.fail(oops.Code(CodeTickFailed).With("cutoff", cutoff).Wrap(fmt.Errorf("panic: %v", r)))
		}
	}()

	n, err := s.store.DeleteUnverifiedBefore(ctx, cutoff)
	s.metrics.AccountsSwept.Add(float64(n))
	if err != nil {
		s.fail(oops.Code(CodeTickFailed).With("cutoff", cutoff).With("deleted", n).Wrapf(err, "sweep unverified accounts"))
		return n
	}
	if n > 0 {
		s.logger.Info("swept unverified accounts", "deleted", n, "cutoff", cutoff)
	}
	return n
}

func (s *Sweeper) fail(err error) {
	s.metrics.SweepFailures.Inc()
	errutil.LogError(s.logger, "sweep failed", err)
}
