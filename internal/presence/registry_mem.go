package presence

import (
	"context"
	"sync"
)

type memRegistry struct {
	mu      sync.Mutex
	conns   map[string]Connection          // connectionID -> record
	byTable map[string]map[string]struct{} // tableID -> set(connectionID)
}

func NewMemoryRegistry() Registry {
	return &memRegistry{
		conns:   make(map[string]Connection),
		byTable: make(map[string]map[string]struct{}),
	}
}

func (m *memRegistry) Put(ctx context.Context, c Connection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.conns[c.ConnectionID]; ok && old.TableID != c.TableID {
		m.unindex(old)
	}
	m.conns[c.ConnectionID] = c
	if c.TableID != "" {
		if _, ok := m.byTable[c.TableID]; !ok {
			m.byTable[c.TableID] = make(map[string]struct{})
		}
		m.byTable[c.TableID][c.ConnectionID] = struct{}{}
	}
	return nil
}

func (m *memRegistry) Get(ctx context.Context, connectionID string) (Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conns[connectionID]
	if !ok {
		return Connection{}, ErrConnectionNotFound
	}
	return c, nil
}

func (m *memRegistry) ListByTable(ctx context.Context, tableID string) ([]Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Connection, 0, len(m.byTable[tableID]))
	for id := range m.byTable[tableID] {
		out = append(out, m.conns[id])
	}
	return out, nil
}

func (m *memRegistry) Delete(ctx context.Context, connectionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conns[connectionID]
	if !ok {
		return nil
	}
	m.unindex(c)
	delete(m.conns, connectionID)
	return nil
}

func (m *memRegistry) unindex(c Connection) {
	s, ok := m.byTable[c.TableID]
	if !ok {
		return
	}
	delete(s, c.ConnectionID)
	if len(s) == 0 {
		delete(m.byTable, c.TableID)
	}
}
