package files

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("not found")

// jsonFile persists a single value of type T as indented JSON.
type jsonFile[T any] struct {
	path string
	perm os.FileMode
	mu   sync.RWMutex
}

func (f *jsonFile[T]) load() (T, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var v T
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return v, ErrNotFound
		}
		return v, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return v, nil
}

func (f *jsonFile[T]) save(v T) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, f.perm); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *jsonFile[T]) clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
