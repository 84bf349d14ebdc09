package cardstore

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// pathLocks serializes loads and persists of the same file across every
// Store in the process.
var pathLocks sync.Map // map[string]*sync.Mutex

func lockPath(path string) func() {
	key := path
	if abs, err := filepath.Abs(path); err == nil {
		key = abs
	}
	v, _ := pathLocks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Load reads the card table at path, normalizes it and, when normalization
// repaired anything, writes the repaired table back before returning it.
// The second result reports whether a rewrite happened.
func Load(path string, n Normalizer, indent int) (Table, bool, error) {
	unlock := lockPath(path)
	defer unlock()
	return load(path, n, indent)
}

func load(path string, n Normalizer, indent int) (Table, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, &StorageIOError{Op: "read", Path: path, Err: err}
	}
	t, err := Decode(data)
	if err != nil {
		return nil, false, &ParseError{Path: path, Err: err}
	}
	if len(t) == 0 {
		return nil, false, &EmptyStoreError{Path: path}
	}
	changed, err := n.Normalize(t)
	if err != nil {
		return nil, false, err
	}
	if changed {
		if err := writeFile(path, Encode(t, indent)); err != nil {
			return nil, false, err
		}
	}
	return t, changed, nil
}

// Persist writes t to path in canonical form. The file is replaced
// atomically: a crash mid-write leaves the previous version intact.
func Persist(path string, t Table, indent int) error {
	unlock := lockPath(path)
	defer unlock()
	return writeFile(path, Encode(t, indent))
}

func writeFile(path string, data []byte) error {
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	} else if !errors.Is(err, fs.ErrNotExist) {
		return &StorageIOError{Op: "write", Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &StorageIOError{Op: "write", Path: path, Err: err}
	}
	tmpPath := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpPath)
		return &StorageIOError{Op: "write", Path: path, Err: err}
	}

	if _, err := tmp.Write(data); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return &StorageIOError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return &StorageIOError{Op: "write", Path: path, Err: err}
	}
	return nil
}
