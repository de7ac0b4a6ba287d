package classifier

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrArtifactNotFound is returned by stores that hold no artifact.
var ErrArtifactNotFound = errors.New("classifier: model artifact not found")

// ArtifactStore reads and writes serialised classifier state.
type ArtifactStore interface {
	// Read returns the stored artifact or ErrArtifactNotFound.
	Read(ctx context.Context) ([]byte, error)

	// Write replaces the stored artifact as one unit.
	Write(ctx context.Context, data []byte) error

	// Location describes where the artifact lives, for logs.
	Location() string
}

// FileStore stores the artifact in a local file.
type FileStore struct {
	Path string
}

// Read implements ArtifactStore.
func (s FileStore) Read(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, s.Path)
	}
	return data, err
}

// Write implements ArtifactStore. The file is replaced by rename so readers
// never see a partial artifact.
func (s FileStore) Write(ctx context.Context, data []byte) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("rename artifact: %w", err)
	}
	return nil
}

// Location implements ArtifactStore.
func (s FileStore) Location() string { return s.Path }
