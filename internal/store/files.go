package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bookrook/bookrook-backend/internal"
)

// FileStore persists uploaded files under a single directory, keyed by the
// original filename. Saving the same name twice is a no-op: the first upload
// wins, even when the bytes differ. There is no delete or versioning.
type FileStore struct {
	dir string
}

// StoredFile is a handle to a file the store already persisted.
type StoredFile struct {
	Name string
	Path string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes data under name unless a file with that name already exists.
// The returned bool reports whether the file was already present.
func (s *FileStore) Save(name string, data []byte) (StoredFile, bool, error) {
	name = filepath.Base(name)
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err == nil {
		return StoredFile{Name: name, Path: path}, true, nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return StoredFile{}, false, fmt.Errorf("save %s: %w", name, err)
	}
	return StoredFile{Name: name, Path: path}, false, nil
}

// Lookup returns the handle for a previously saved file without touching
// the contents. The bool is false when no such file exists.
func (s *FileStore) Lookup(name string) (StoredFile, bool) {
	name = filepath.Base(name)
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return StoredFile{}, false
	}
	return StoredFile{Name: name, Path: path}, true
}

// List returns the stored files sorted by name.
func (s *FileStore) List() ([]internal.FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read upload dir: %w", err)
	}
	files := make([]internal.FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, internal.FileInfo{Name: e.Name(), Size: info.Size()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}
