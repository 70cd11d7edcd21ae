package kv

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// FileStore persists keys as a single JSON document. Writes go through a
// temp file + rename so readers never observe a partial document.
type FileStore struct {
	mu   sync.Mutex
	path string
	data map[string]json.RawMessage
}

var _ Store = (*FileStore)(nil)

func OpenFileStore(path string) (*FileStore, error) {
	st := &FileStore{
		path: path,
		data: make(map[string]json.RawMessage),
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return nil, errors.Wrap(err, "reading store file")
	}
	if len(raw) > 0 {
		if err = json.Unmarshal(raw, &st.data); err != nil {
			return nil, errors.Wrap(err, "decoding store file")
		}
	}
	return st, nil
}

func (st *FileStore) Get(key string) ([]byte, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	val, ok := st.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (st *FileStore) Set(key string, value []byte) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	val := make(json.RawMessage, len(value))
	copy(val, value)
	st.data[key] = val
	return st.flush()
}

func (st *FileStore) Delete(keys ...string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, key := range keys {
		delete(st.data, key)
	}
	return st.flush()
}

// flush writes the whole document; callers hold the lock.
func (st *FileStore) flush() error {
	raw, err := json.Marshal(st.data)
	if err != nil {
		return errors.Wrap(err, "encoding store file")
	}

	if err = os.MkdirAll(filepath.Dir(st.path), 0o700); err != nil {
		return errors.Wrap(err, "creating store dir")
	}
	tmp := st.path + ".tmp"
	if err = os.WriteFile(tmp, raw, 0o600); err != nil {
		return errors.Wrap(err, "writing store file")
	}
	return errors.Wrap(os.Rename(tmp, st.path), "renaming store file")
}
