package history

import "sync"

// Memory is an in-memory history store.
type Memory struct {
	mu      sync.RWMutex
	records []Record // oldest first
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Add appends a record.
func (m *Memory) Add(r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r.Clone())
	return nil
}

// List returns up to limit records, newest first.
func (m *Memory) List(limit int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := len(m.records)
	if limit > 0 && limit < n {
		n = limit
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]Record, 0, n)
	for i := len(m.records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.records[i].Clone())
	}
	return out, nil
}

// Get retrieves a record by id.
func (m *Memory) Get(id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.records {
		if m.records[i].ID == id {
			r := m.records[i].Clone()
			return &r, nil
		}
	}
	return nil, nil
}

// Close is a no-op for memory store.
func (m *Memory) Close() error {
	return nil
}
