package engine

import (
	"sync"
	"time"
)

// Clock supplies the wall-clock instants used for elapsed-time scoring.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time, including the monotonic reading.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

// MockClock is a controllable clock for tests and replays.
type MockClock struct {
	mu      sync.RWMutex
	current time.Time
}

// NewMockClock creates a mock clock frozen at start.
func NewMockClock(start time.Time) *MockClock {
	return &MockClock{current: start}
}

// Now returns the current mocked time.
func (m *MockClock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// SetTime sets the current time.
func (m *MockClock) SetTime(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = t
}

// Advance moves the clock forward by d.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.current.Add(d)
}
