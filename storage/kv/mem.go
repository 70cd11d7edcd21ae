package kv

import "sync"

// MemStore is an in-memory Store for tests and throwaway sessions.
type MemStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

func (st *MemStore) Get(key string) ([]byte, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	val, ok := st.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (st *MemStore) Set(key string, value []byte) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	val := make([]byte, len(value))
	copy(val, value)
	st.data[key] = val
	return nil
}

func (st *MemStore) Delete(keys ...string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, key := range keys {
		delete(st.data, key)
	}
	return nil
}
