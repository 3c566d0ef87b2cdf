// Package fetch coordinates remote loads: every attempt gets a deadline,
// transient failures and timed-out attempts are retried with exponential
// backoff, and concurrent calls for the same resource are collapsed into one.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/2beens/pushstats/internal/telemetry/metrics"

	backoff "github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

var (
	ErrTimeout   = errors.New("fetch deadline exceeded")
	ErrCancelled = errors.New("fetch cancelled")
)

const (
	DefaultTimeout         = 10 * time.Second
	defaultMaxRetries      = 2
	defaultInitialInterval = time.Second
)

// Key identifies one logical load. Two calls with the same key running
// at the same time share a single execution.
type Key struct {
	Op string // e.g. "profile", "logs"
	ID string // resource owner, usually the user id
}

func (k Key) String() string {
	return k.Op + "/" + k.ID
}

type call struct {
	done chan struct{}
	res  any
	err  error
}

type Config struct {
	Timeout         time.Duration // zero means DefaultTimeout
	MaxRetries      uint64
	InitialInterval time.Duration
}

type Coordinator struct {
	timeout         time.Duration
	maxRetries      uint64
	initialInterval time.Duration
	metrics         *metrics.Manager

	mu       sync.Mutex
	inflight map[Key]*call
}

func NewCoordinator(cfg Config, metricsManager *metrics.Manager) *Coordinator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = defaultInitialInterval
	}
	return &Coordinator{
		timeout:         cfg.Timeout,
		maxRetries:      cfg.MaxRetries,
		initialInterval: cfg.InitialInterval,
		metrics:         metricsManager,
		inflight:        make(map[Key]*call),
	}
}

// Do runs fn under the coordinator's deadline and retry policy. If a
// call with the same key is already in flight, Do joins it instead of
// starting another one; the joiner waits on the shared result but can
// still be released early through its own ctx. The in-flight entry is
// cleared only when the originating call settles.
func Do[T any](ctx context.Context, c *Coordinator, key Key, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	c.mu.Lock()
	if existing, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		c.metrics.CounterFetchDedupHits.Inc()
		log.Tracef("fetch %s: joining in-flight call", key)
		select {
		case <-existing.done:
			if existing.err != nil {
				return zero, existing.err
			}
			res, ok := existing.res.(T)
			if !ok {
				return zero, fmt.Errorf("fetch %s: shared result has unexpected type %T", key, existing.res)
			}
			return res, nil
		case <-ctx.Done():
			return zero, ErrCancelled
		}
	}

	cl := &call{done: make(chan struct{})}
	c.inflight[key] = cl
	c.mu.Unlock()

	res, err := run(ctx, c, key, fn)

	cl.res, cl.err = res, err
	c.mu.Lock()
	delete(c.inflight, key)
	c.mu.Unlock()
	close(cl.done)

	return res, err
}

func run[T any](ctx context.Context, c *Coordinator, key Key, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.initialInterval
	expBackoff.RandomizationFactor = 0
	expBackoff.Multiplier = 2
	expBackoff.MaxElapsedTime = 0

	var res T
	op := func() error {
		// each attempt gets its own deadline, so a timed-out attempt
		// is retried like any other failure
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		var opErr error
		res, opErr = fn(attemptCtx)
		if opErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			// the caller is gone, retrying is pointless
			return backoff.Permanent(opErr)
		}
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", ErrTimeout, opErr)
		}
		return opErr
	}
	notify := func(err error, next time.Duration) {
		c.metrics.CounterFetchRetries.Inc()
		log.Tracef("fetch %s failed, retrying in %s: %s", key, next, err)
	}

	err := backoff.RetryNotify(
		op,
		backoff.WithContext(backoff.WithMaxRetries(expBackoff, c.maxRetries), ctx),
		notify,
	)
	if err != nil {
		switch {
		case errors.Is(ctx.Err(), context.Canceled):
			return zero, ErrCancelled
		case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, ErrTimeout):
			return zero, ErrTimeout
		}
		return zero, err
	}

	return res, nil
}
