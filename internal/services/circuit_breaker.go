package services

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/stitts-dev/hoops-valuation/internal/providers"
)

type CircuitBreakerService struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
	settings gobreaker.Settings
	logger   *logrus.Logger
}

// NewCircuitBreakerService trips a provider's breaker after threshold
// consecutive failures and probes it again after timeout. A player that
// does not exist is an answer, not a failure.
func NewCircuitBreakerService(threshold int, timeout time.Duration, logger *logrus.Logger) *CircuitBreakerService {
	if threshold <= 0 {
		threshold = 5
	}
	settings := gobreaker.Settings{
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(threshold)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, providers.ErrPlayerNotFound)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"component": "circuit_breaker",
				"service":   name,
				"from":      from.String(),
				"to":        to.String(),
			}).Info("Circuit breaker state changed")
		},
	}

	return &CircuitBreakerService{
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		settings: settings,
		logger:   logger,
	}
}

// Execute wraps a function call with circuit breaker protection. Breakers
// are created per service on first use.
func (cb *CircuitBreakerService) Execute(service string, fn func() (interface{}, error)) (interface{}, error) {
	return cb.breaker(service).Execute(fn)
}

// GetState returns the current state of a circuit breaker
func (cb *CircuitBreakerService) GetState(service string) gobreaker.State {
	return cb.breaker(service).State()
}

// GetCounts returns the current counts for a circuit breaker
func (cb *CircuitBreakerService) GetCounts(service string) gobreaker.Counts {
	return cb.breaker(service).Counts()
}

// IsOpenError reports whether err was returned because the breaker rejected
// the call.
func IsOpenError(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func (cb *CircuitBreakerService) breaker(service string) *gobreaker.CircuitBreaker {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if b, ok := cb.breakers[service]; ok {
		return b
	}
	settings := cb.settings
	settings.Name = service
	b := gobreaker.NewCircuitBreaker(settings)
	cb.breakers[service] = b
	return b
}
