// Package resilience guards persistence calls with fortify's timeout, circuit
// breaker and retry patterns.
package resilience

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/felixgeelhaar/droid-go/domain/config"
)

// Executor runs store writes with a timeout, an optional circuit breaker and
// optional retries.
type Executor struct {
	breaker circuitbreaker.CircuitBreaker[struct{}]
	retry   retry.Retry[struct{}]
	timeout time.Duration
}

// ExecutorConfig configures the executor.
type ExecutorConfig struct {
	// Timeout bounds a single call, retries included. Zero disables it.
	Timeout time.Duration

	// RetryEnabled turns on retries.
	RetryEnabled bool

	// RetryMaxAttempts is the maximum number of attempts.
	RetryMaxAttempts int

	// RetryInitialDelay is the delay before the first retry.
	RetryInitialDelay time.Duration

	// RetryMaxDelay caps the backoff delay.
	RetryMaxDelay time.Duration

	// RetryBackoffMultiplier is the exponential backoff multiplier.
	RetryBackoffMultiplier float64

	// BreakerEnabled turns on the circuit breaker.
	BreakerEnabled bool

	// CircuitBreakerThreshold is the number of consecutive failures before opening.
	CircuitBreakerThreshold int

	// CircuitBreakerTimeout is how long the circuit stays open.
	CircuitBreakerTimeout time.Duration
}

// DefaultExecutorConfig returns a configuration with retries and the breaker
// enabled.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		Timeout:                 5 * time.Second,
		RetryEnabled:            true,
		RetryMaxAttempts:        3,
		RetryInitialDelay:       100 * time.Millisecond,
		RetryMaxDelay:           2 * time.Second,
		RetryBackoffMultiplier:  2.0,
		BreakerEnabled:          true,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   30 * time.Second,
	}
}

// ConfigFrom maps the scenario's resilience section onto an ExecutorConfig.
func ConfigFrom(cfg config.ResilienceConfig) ExecutorConfig {
	return ExecutorConfig{
		Timeout:                 cfg.Timeout.Duration(),
		RetryEnabled:            cfg.Retry.Enabled,
		RetryMaxAttempts:        cfg.Retry.MaxAttempts,
		RetryInitialDelay:       cfg.Retry.InitialDelay.Duration(),
		RetryMaxDelay:           cfg.Retry.MaxDelay.Duration(),
		RetryBackoffMultiplier:  cfg.Retry.Multiplier,
		BreakerEnabled:          cfg.CircuitBreaker.Enabled,
		CircuitBreakerThreshold: cfg.CircuitBreaker.Threshold,
		CircuitBreakerTimeout:   cfg.CircuitBreaker.Timeout.Duration(),
	}
}

// NewExecutor creates an executor.
func NewExecutor(config ExecutorConfig) *Executor {
	e := &Executor{timeout: config.Timeout}

	if config.BreakerEnabled {
		threshold := config.CircuitBreakerThreshold
		if threshold <= 0 {
			threshold = 5 // default
		}
		e.breaker = circuitbreaker.New[struct{}](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    config.CircuitBreakerTimeout,
			Timeout:     config.CircuitBreakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- bounds checked above
			},
		})
	}

	if config.RetryEnabled && config.RetryMaxAttempts > 1 {
		e.retry = retry.New[struct{}](retry.Config{
			MaxAttempts:        config.RetryMaxAttempts,
			InitialDelay:       config.RetryInitialDelay,
			MaxDelay:           config.RetryMaxDelay,
			BackoffPolicy:      retry.BackoffExponential,
			Multiplier:         config.RetryBackoffMultiplier,
			NonRetryableErrors: []error{context.Canceled, context.DeadlineExceeded},
		})
	}

	return e
}

// NewDefaultExecutor creates an executor with default configuration.
func NewDefaultExecutor() *Executor {
	return NewExecutor(DefaultExecutorConfig())
}

// Do runs op with the configured patterns applied.
// Composition order: Timeout → Circuit Breaker → Retry.
func (e *Executor) Do(ctx context.Context, op func(ctx context.Context) error) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	call := func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}

	attempt := call
	if e.retry != nil {
		attempt = func(ctx context.Context) (struct{}, error) {
			return e.retry.Do(ctx, call)
		}
	}

	if e.breaker != nil {
		_, err := e.breaker.Execute(ctx, attempt)
		return err
	}
	_, err := attempt(ctx)
	return err
}

// CircuitBreakerState returns the breaker state, or "disabled".
func (e *Executor) CircuitBreakerState() string {
	if e.breaker == nil {
		return "disabled"
	}
	return e.breaker.State().String()
}
