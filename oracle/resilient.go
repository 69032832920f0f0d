package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"mealplanner"
)

const (
	DefaultTimeout    = 25 * time.Second
	DefaultMaxRetries = 3
)

type Options struct {
	// Timeout bounds a single backend call.
	Timeout time.Duration
	// MaxRetries is the number of extra attempts after a rate limited call.
	MaxRetries uint
	// RatePerSecond caps outgoing calls. Zero disables limiting.
	RatePerSecond float64
}

// Resilient wraps an oracle backend with a per-call timeout, a client-side
// rate limiter and exponential backoff on rate limiting (1s, 2s, 4s).
type Resilient struct {
	next    mealplanner.Oracle
	opts    Options
	limiter *rate.Limiter

	newBackOff func() backoff.BackOff
}

func NewResilient(next mealplanner.Oracle, opts Options) *Resilient {
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = DefaultMaxRetries
	}

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}

	return &Resilient{
		next:       next,
		opts:       opts,
		limiter:    rate.NewLimiter(limit, 1),
		newBackOff: defaultBackOff,
	}
}

func defaultBackOff() backoff.BackOff {
	return &backoff.ExponentialBackOff{
		InitialInterval:     time.Second,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         4 * time.Second,
	}
}

func (r *Resilient) Invoke(ctx context.Context, prompt string) (string, error) {
	attempt := 0
	op := func() (string, error) {
		attempt++
		if err := r.limiter.Wait(ctx); err != nil {
			return "", backoff.Permanent(err)
		}

		callCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()

		out, err := r.next.Invoke(callCtx, prompt)
		switch {
		case err == nil:
			return out, nil
		case ctx.Err() != nil:
			return "", backoff.Permanent(ctx.Err())
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded):
			return "", backoff.Permanent(fmt.Errorf("%w after %s", ErrTimeout, r.opts.Timeout))
		case LooksRateLimited(err):
			if errors.Is(err, ErrRateLimited) {
				return "", err
			}
			return "", fmt.Errorf("%w: %w", ErrRateLimited, err)
		default:
			return "", backoff.Permanent(fmt.Errorf("%w: %w", ErrUnavailable, err))
		}
	}

	out, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(r.newBackOff()),
		backoff.WithMaxTries(r.opts.MaxRetries+1),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("ORACLE: Rate limited, backing off", "attempt", attempt, "wait", next, "error", err)
		}),
	)
	if err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Err
		}
		slog.Error("ORACLE: Invoke failed", "attempts", attempt, "error", err)
		return "", err
	}
	return out, nil
}
