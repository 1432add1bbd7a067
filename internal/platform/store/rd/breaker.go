package rd

import (
	"sync"
	"time"
)

// State is the circuit breaker state for one cache endpoint
type State string

// Breaker states
const (
	StateClosed   State = "CLOSED"
	StateOpen     State = "OPEN"
	StateHalfOpen State = "HALF_OPEN"
)

// Breaker is a process-local circuit breaker for one endpoint (host:port).
// All methods are safe for concurrent use
type Breaker struct {
	mu          sync.Mutex
	endpoint    string
	state       State
	failures    int
	lastFailure time.Time

	threshold  int
	openWindow time.Duration
	now        func() time.Time
}

// NewBreaker constructs a Breaker with the given trip threshold and open window
func NewBreaker(endpoint string, threshold int, openWindow time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 2
	}
	if openWindow <= 0 {
		openWindow = time.Minute
	}
	return &Breaker{
		endpoint:   endpoint,
		state:      StateClosed,
		threshold:  threshold,
		openWindow: openWindow,
		now:        time.Now,
	}
}

// ShouldBypass reports whether the endpoint should be skipped entirely.
// When the open window has elapsed it flips OPEN to HALF_OPEN and returns
// false exactly once, letting the caller issue a single probe
func (b *Breaker) ShouldBypass() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateOpen {
		return false
	}
	if b.lastFailure.IsZero() {
		return true
	}
	if b.now().Sub(b.lastFailure) > b.openWindow {
		b.state = StateHalfOpen
		return false
	}
	return true
}

// RecordSuccess clears the failure count; a HALF_OPEN probe success closes the circuit
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.state = StateClosed
}

// RecordFailure bumps the failure count and opens the circuit when the
// threshold is reached or a HALF_OPEN probe fails
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	b.lastFailure = b.now()

	switch {
	case b.state == StateHalfOpen:
		b.state = StateOpen
	case b.state == StateClosed && b.failures >= b.threshold:
		b.state = StateOpen
	}
}

// Snapshot returns the current observable breaker state for diagnostics
func (b *Breaker) Snapshot() BreakerStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BreakerStatus{
		Endpoint:    b.endpoint,
		State:       b.state,
		Failures:    b.failures,
		LastFailure: b.lastFailure,
	}
}

// BreakerStatus is the JSON-friendly view of a breaker
type BreakerStatus struct {
	Endpoint    string    `json:"endpoint"`
	State       State     `json:"state"`
	Failures    int       `json:"failures"`
	LastFailure time.Time `json:"last_failure,omitzero"`
}

// Registry hands out one breaker per endpoint for the process lifetime.
// It is an explicit dependency owned by the cache client construction root,
// never a hidden package-level singleton
type Registry struct {
	mu         sync.Mutex
	breakers   map[string]*Breaker
	threshold  int
	openWindow time.Duration
}

// NewRegistry creates a Registry; threshold and openWindow apply to every breaker it mints
func NewRegistry(threshold int, openWindow time.Duration) *Registry {
	return &Registry{
		breakers:   make(map[string]*Breaker),
		threshold:  threshold,
		openWindow: openWindow,
	}
}

// For returns the breaker for endpoint, creating it lazily on first use
func (r *Registry) For(endpoint string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.breakers[endpoint]
	if !ok {
		b = NewBreaker(endpoint, r.threshold, r.openWindow)
		r.breakers[endpoint] = b
	}
	return b
}

// Snapshots returns diagnostics for every breaker minted so far
func (r *Registry) Snapshots() []BreakerStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]BreakerStatus, 0, len(r.breakers))
	for _, b := range r.breakers {
		out = append(out, b.Snapshot())
	}
	return out
}
