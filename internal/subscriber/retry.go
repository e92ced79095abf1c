package subscriber

import (
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type RetryPolicy string

const (
	// RetryFixed повторяет попытку через постоянный интервал, бесконечно.
	RetryFixed RetryPolicy = "fixed"
	// RetryExponential удваивает интервал до RetryConfig.Max.
	RetryExponential RetryPolicy = "exponential"

	DefaultRetryInitial = 5 * time.Second
	DefaultRetryMax     = time.Minute
)

type RetryConfig struct {
	Policy  RetryPolicy
	Initial time.Duration
	Max     time.Duration
}

func ParseRetryPolicy(s string) (RetryPolicy, error) {
	switch p := RetryPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return RetryExponential, nil
	case RetryFixed, RetryExponential:
		return p, nil
	default:
		return "", fmt.Errorf("unknown retry policy %q", s)
	}
}

// NewBackOff строит политику повторов. Рандомизация отключена: ни одна
// попытка не выполняется раньше Initial. MaxElapsedTime = 0, то есть
// попытки не прекращаются, пока не отменён контекст.
func (c RetryConfig) NewBackOff() backoff.BackOff {
	initial := c.Initial
	if initial <= 0 {
		initial = DefaultRetryInitial
	}

	if c.Policy == RetryFixed {
		return backoff.NewConstantBackOff(initial)
	}

	maxInterval := c.Max
	if maxInterval < initial {
		maxInterval = initial
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = maxInterval
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}
