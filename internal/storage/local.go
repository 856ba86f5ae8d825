package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore keeps uploaded files in a directory on disk. Keys are file names
// of the form "<id>-<unixnano><ext>".
type LocalStore struct {
	dir string
}

// NewLocalStore creates the directory if missing.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload dir missing")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) path(key string) string {
	// keys never contain path separators; Base guards against traversal anyway
	return filepath.Join(s.dir, filepath.Base(key))
}

func (s *LocalStore) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	f, err := os.Create(s.path(key))
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(s.path(key))
		return err
	}
	return nil
}

func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return os.Open(s.path(key))
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// StoredFile describes a file found on disk during the startup scan.
type StoredFile struct {
	Key     string
	Size    int64
	ModTime int64
}

// List returns the files currently present in the upload directory. Used to
// re-index documents on startup.
func (s *LocalStore) List() ([]StoredFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	out := make([]StoredFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, StoredFile{Key: e.Name(), Size: info.Size(), ModTime: info.ModTime().Unix()})
	}
	return out, nil
}
