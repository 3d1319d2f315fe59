package retry

// Action is a function to be performed in a retriable manner.
type Action func() error

// Retrier retries the provided action.
type Retrier interface {
	Retry(action Action) (uint, error)
}

type retrier struct {
	strategies []Strategy
}

// NewRetrier returns a Retrier that applies the provided strategies to every
// action it runs. Without a Limit strategy the retrier only stops once the
// action succeeds or another strategy gives up.
func NewRetrier(strategies ...Strategy) Retrier {
	return &retrier{
		strategies: strategies,
	}
}

func (r *retrier) Retry(action Action) (uint, error) {
	return Retry(action, r.strategies...)
}

// Retry runs action until it succeeds or a strategy declines another attempt.
// It returns the number of attempts made and the last error.
//
// Strategies run in order after every failure, so strategies that sleep
// should come last.
func Retry(action Action, strategies ...Strategy) (uint, error) {
	var attempts uint
	for {
		attempts++

		err := action()
		if err == nil {
			return attempts, nil
		}

		for _, s := range strategies {
			if !s(attempts, err) {
				return attempts, err
			}
		}
	}
}
