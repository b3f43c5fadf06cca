// Package retry provides the exponential backoff sequence the daemon uses
// between failed processing attempts.
package retry

import "time"

// Manager tracks an exponential backoff delay. It holds no other state and
// knows nothing about what is being retried.
type Manager struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

// NewManager builds a manager starting at initial and doubling up to max.
// Non-positive arguments fall back to 1s and 1h.
func NewManager(initial, max time.Duration) *Manager {
	if initial <= 0 {
		initial = time.Second
	}
	if max < initial {
		max = time.Hour
	}
	return &Manager{initial: initial, max: max, current: initial}
}

// CurrentDelay returns the delay to wait before the next attempt.
func (m *Manager) CurrentDelay() time.Duration { return m.current }

// Increase doubles the delay, capped at the maximum.
func (m *Manager) Increase() {
	m.current *= 2
	if m.current > m.max {
		m.current = m.max
	}
}

// Reset restores the delay to its initial value.
func (m *Manager) Reset() { m.current = m.initial }
