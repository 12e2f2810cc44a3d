package resilience

import "time"

// Option configures the executor.
type Option func(*ExecutorConfig)

// WithCircuitBreakerThreshold sets the failure threshold for circuit breaker.
func WithCircuitBreakerThreshold(n int) Option {
	return func(c *ExecutorConfig) {
		c.BreakerEnabled = true
		c.CircuitBreakerThreshold = n
	}
}

// WithCircuitBreakerTimeout sets the circuit breaker open duration.
func WithCircuitBreakerTimeout(d time.Duration) Option {
	return func(c *ExecutorConfig) {
		c.CircuitBreakerTimeout = d
	}
}

// WithoutCircuitBreaker disables the circuit breaker.
func WithoutCircuitBreaker() Option {
	return func(c *ExecutorConfig) {
		c.BreakerEnabled = false
	}
}

// WithRetryAttempts sets the maximum attempts. One or fewer disables retry.
func WithRetryAttempts(n int) Option {
	return func(c *ExecutorConfig) {
		c.RetryEnabled = n > 1
		c.RetryMaxAttempts = n
	}
}

// WithRetryDelay sets the initial retry delay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *ExecutorConfig) {
		c.RetryInitialDelay = d
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *ExecutorConfig) {
		c.Timeout = d
	}
}

// NewExecutorWithOptions creates an executor from the defaults and opts.
func NewExecutorWithOptions(opts ...Option) *Executor {
	config := DefaultExecutorConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return NewExecutor(config)
}
