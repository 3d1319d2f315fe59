package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/code-payments/distributor-client/pkg/retry/backoff"
)

// Strategy is a function that determines whether or not an action should be
// retried. Strategies are allowed to delay or cause other side effects.
type Strategy func(attempts uint, err error) bool

// Limit returns a strategy that limits the total number of attempts.
// maxAttempts should be >= 1, since the action is evaluated first.
func Limit(maxAttempts uint) Strategy {
	return func(attempts uint, err error) bool {
		return attempts < maxAttempts
	}
}

// RetriableErrors returns a strategy that only retries the provided errors.
func RetriableErrors(retriableErrors ...error) Strategy {
	return func(attempts uint, err error) bool {
		for _, e := range retriableErrors {
			if errors.Is(err, e) {
				return true
			}
		}

		return false
	}
}

// NonRetriableErrors returns a strategy that never retries the provided errors.
func NonRetriableErrors(nonRetriableErrors ...error) Strategy {
	return func(attempts uint, err error) bool {
		for _, e := range nonRetriableErrors {
			if errors.Is(err, e) {
				return false
			}
		}

		return true
	}
}

// Context returns a strategy that stops retrying once ctx is done.
func Context(ctx context.Context) Strategy {
	return func(attempts uint, err error) bool {
		return ctx.Err() == nil
	}
}

// Backoff returns a strategy that sleeps before the next attempt using the
// process clock.
func Backoff(strategy backoff.Strategy, maxBackoff time.Duration) Strategy {
	return BackoffOnClock(sleeperImpl, strategy, maxBackoff)
}

// BackoffOnClock is Backoff with an explicit clock, typically a
// clockwork.Clock.
func BackoffOnClock(clock Sleeper, strategy backoff.Strategy, maxBackoff time.Duration) Strategy {
	return func(attempts uint, err error) bool {
		delay := strategy(attempts)
		cappedDelay := time.Duration(math.Min(float64(maxBackoff), float64(delay)))
		if cappedDelay > 0 {
			clock.Sleep(cappedDelay)
		}
		return true
	}
}

// BackoffWithJitter returns a strategy similar to Backoff, but induces a jitter
// on the total delay. The maxBackoff is calculated before the jitter.
//
// The jitter parameter is a percentage of the capped delay. For example, a
// capped delay of 100ms with a jitter of 0.1 sleeps for 100ms +/- 10ms.
func BackoffWithJitter(strategy backoff.Strategy, maxBackoff time.Duration, jitter float64) Strategy {
	return func(attempts uint, err error) bool {
		delay := strategy(attempts)
		cappedDelay := time.Duration(math.Min(float64(maxBackoff), float64(delay)))

		cappedDelayWithJitter := time.Duration(float64(cappedDelay) * (1 + (rand.Float64()*jitter*2 - jitter)))
		if cappedDelayWithJitter > 0 {
			sleeperImpl.Sleep(cappedDelayWithJitter)
		}
		return true
	}
}

// Sleeper blocks for a duration. clockwork.Clock satisfies it.
type Sleeper interface {
	Sleep(time.Duration)
}

var sleeperImpl Sleeper = clockwork.NewRealClock()
