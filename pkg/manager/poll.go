package manager

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrNotCompleted is returned by Poll once its attempts are spent.
var ErrNotCompleted = errors.New("operation did not complete")

var errPending = errors.New("pending")

// PollConfig bounds Poll. The interval doubles after every miss, up to MaxInterval.
type PollConfig struct {
	Attempts    int
	Interval    time.Duration
	MaxInterval time.Duration
}

func DefaultPollConfig() PollConfig {
	return PollConfig{
		Attempts:    20,
		Interval:    50 * time.Millisecond,
		MaxInterval: time.Second,
	}
}

func (pc PollConfig) backOff(ctx context.Context) backoff.BackOff {
	if pc.Attempts <= 0 {
		pc.Attempts = 1
	}
	if pc.Interval <= 0 {
		pc.Interval = DefaultPollConfig().Interval
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = pc.Interval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	if pc.MaxInterval > 0 {
		b.MaxInterval = pc.MaxInterval
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(pc.Attempts-1)), ctx)
}

// Poll calls cond until it reports true, fails, ctx is done or the attempts are spent.
func Poll(ctx context.Context, pc PollConfig, cond func(ctx context.Context) (bool, error)) error {
	err := backoff.Retry(func() error {
		ok, err := cond(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return errPending
		}
		return nil
	}, pc.backOff(ctx))

	if errors.Is(err, errPending) {
		return ErrNotCompleted
	}
	return err
}
