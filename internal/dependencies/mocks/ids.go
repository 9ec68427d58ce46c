package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/scoresnap/internal/dependencies/ids"
)

// MockIDs is a mock implementation of ids.Generator for testing
// Queued values are returned first, then sequential ids with the given prefix
type MockIDs struct {
	mu      sync.Mutex
	Prefix  string
	queued  []string
	counter int
}

// Ensure MockIDs implements Generator
var _ ids.Generator = (*MockIDs)(nil)

// NewMockIDs creates a new MockIDs
func NewMockIDs() *MockIDs {
	return &MockIDs{Prefix: "id"}
}

// NewID returns the next queued id, or a sequential one if none remaining
func (m *MockIDs) NewID() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.queued) > 0 {
		id := m.queued[0]
		m.queued = m.queued[1:]
		return id
	}
	m.counter++
	return fmt.Sprintf("%s-%d", m.Prefix, m.counter)
}

// Queue adds values to the id queue
func (m *MockIDs) Queue(values ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued = append(m.queued, values...)
}

// Reset clears queued ids and restarts the counter
func (m *MockIDs) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued = nil
	m.counter = 0
}
