package kv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	st, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("OpenFileStore() failed: %v", err)
	}

	if _, err = st.Get("auth.user"); err != ErrNotFound {
		t.Errorf("Get() error = %v; want ErrNotFound", err)
	}

	if err = st.Set("auth.user", []byte(`{"id":1}`)); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	val, err := st.Get("auth.user")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	assert.JSONEq(t, `{"id":1}`, string(val))

	// survives reopen
	st2, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("OpenFileStore() reopen failed: %v", err)
	}
	val, err = st2.Get("auth.user")
	if err != nil {
		t.Fatalf("Get() after reopen failed: %v", err)
	}
	assert.JSONEq(t, `{"id":1}`, string(val))
}

func TestFileStoreDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	st, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("OpenFileStore() failed: %v", err)
	}
	_ = st.Set("auth.tokens", []byte(`{"access":"a"}`))
	_ = st.Set("auth.user", []byte(`{"id":1}`))

	if err = st.Delete("auth.tokens", "auth.user", "nope"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err = st.Get("auth.tokens"); err != ErrNotFound {
		t.Errorf("Get() error = %v; want ErrNotFound", err)
	}
	if _, err = st.Get("auth.user"); err != ErrNotFound {
		t.Errorf("Get() error = %v; want ErrNotFound", err)
	}
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o600); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	if _, err := OpenFileStore(path); err == nil {
		t.Error("OpenFileStore() expected error on corrupt file")
	}
}
