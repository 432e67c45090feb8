package circuit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/arshadjafri/defi-risk-platform/pkg/utils/logger"
)

// State of a circuit breaker.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateHalfOpen:
		return "HALF_OPEN"
	case StateOpen:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}

var (
	// ErrOpen is returned while the breaker is rejecting requests.
	ErrOpen = errors.New("circuit breaker is open")
	// ErrTooManyRequests is returned when the half-open probe budget is
	// exhausted.
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// Config for a circuit breaker.
type Config struct {
	// MaxFailures consecutive failures open the breaker.
	MaxFailures int
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration
	// MaxRequests bounds concurrent probes in the half-open state.
	MaxRequests int
}

// DefaultConfig returns the standard breaker settings.
func DefaultConfig() Config {
	return Config{
		MaxFailures: 5,
		Timeout:     60 * time.Second,
		MaxRequests: 1,
	}
}

// Breaker is a three-state circuit breaker guarding an unreliable
// collaborator.
type Breaker struct {
	name        string
	config      Config
	state       State
	failures    int
	requests    int
	lastFailure time.Time
	mu          sync.Mutex
	log         *logger.Logger
}

// NewBreaker creates a closed breaker.
func NewBreaker(name string, config Config) *Breaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.MaxRequests <= 0 {
		config.MaxRequests = 1
	}
	return &Breaker{
		name:   name,
		config: config,
		state:  StateClosed,
		log:    logger.GetLogger("circuit." + name),
	}
}

// Execute runs fn under the breaker. While open it fails fast with
// ErrOpen; after the timeout a limited number of probes may pass.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.beforeRequest(); err != nil {
		return err
	}

	err := fn(ctx)
	b.afterRequest(err == nil)
	return err
}

func (b *Breaker) beforeRequest() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if time.Since(b.lastFailure) >= b.config.Timeout {
			b.transition(StateHalfOpen)
			b.requests++
			return nil
		}
		return ErrOpen
	default: // StateHalfOpen
		if b.requests >= b.config.MaxRequests {
			return ErrTooManyRequests
		}
		b.requests++
		return nil
	}
}

func (b *Breaker) afterRequest(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		b.failures = 0
		if b.state == StateHalfOpen {
			b.transition(StateClosed)
		}
		return
	}

	b.failures++
	b.lastFailure = time.Now()
	if b.state == StateHalfOpen || b.failures >= b.config.MaxFailures {
		b.transition(StateOpen)
	}
}

// transition must be called with the mutex held.
func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	b.requests = 0
	if to == StateClosed {
		b.failures = 0
	}
	if to == StateOpen {
		b.log.Warnf("circuit breaker %s: %s -> %s", b.name, from, to)
	} else {
		b.log.Infof("circuit breaker %s: %s -> %s", b.name, from, to)
	}
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Name returns the breaker's name.
func (b *Breaker) Name() string {
	return b.name
}
