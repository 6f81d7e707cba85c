package secrets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore implements ports.SecretStore over a single file at a fixed path.
// The file is created with owner-only permissions. Production deployments can
// substitute a managed secret backend behind the same port.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed secret store.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the stored material. Returns (nil, nil) when the file is absent.
func (s *FileStore) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading secret file: %w", err)
	}
	return data, nil
}

// Store writes the material exactly once. O_EXCL makes the first-run race
// safe: the loser gets fs.ErrExist and should re-Load.
func (s *FileStore) Store(_ context.Context, material []byte) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating secret dir: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("creating secret file: %w", err)
	}

	if _, err := f.Write(material); err != nil {
		f.Close()
		os.Remove(s.path)
		return fmt.Errorf("writing secret file: %w", err)
	}
	return f.Close()
}
