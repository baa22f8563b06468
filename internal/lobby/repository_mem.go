package lobby

import (
	"context"
	"maps"
	"strconv"
	"sync"

	"HoldemTable/internal/game/table"
)

// memStore 与 Redis 版行为对齐：每桌一个 field -> JSON 的 hash
type memStore struct {
	mu       sync.Mutex
	sessions map[string]map[string]string
}

func NewMemoryStore() Store {
	return &memStore{sessions: make(map[string]map[string]string)}
}

func (m *memStore) Create(ctx context.Context, s table.Session) error {
	fields, err := table.EncodeFields(s, table.AllFields...)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.TableID]; ok {
		return ErrTableExists
	}
	fields[table.FieldVersion] = "1"
	m.sessions[s.TableID] = fields
	return nil
}

func (m *memStore) Get(ctx context.Context, tableID string) (table.Session, error) {
	m.mu.Lock()
	h, ok := m.sessions[tableID]
	if ok {
		h = maps.Clone(h)
	}
	m.mu.Unlock()
	if !ok {
		return table.Session{}, ErrNotFound
	}
	return table.DecodeFields(h)
}

func (m *memStore) Update(ctx context.Context, s table.Session, fields ...string) (int64, error) {
	enc, err := table.EncodeFields(s, fields...)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.sessions[s.TableID]
	if !ok {
		return 0, ErrNotFound
	}
	cur, _ := strconv.ParseInt(h[table.FieldVersion], 10, 64)
	if cur != s.Version {
		return 0, ErrStorageConflict
	}
	for k, v := range enc {
		h[k] = v
	}
	cur++
	h[table.FieldVersion] = strconv.FormatInt(cur, 10)
	return cur, nil
}
