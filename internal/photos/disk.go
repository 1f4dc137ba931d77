package photos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Disk stores photos as files in a single directory.
type Disk struct {
	dir string
}

// NewDisk returns a store rooted at dir, creating it if needed.
func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating photo directory: %w", err)
	}
	return &Disk{dir: dir}, nil
}

// Put implements Store. The file is written under a temporary name and
// renamed so readers never see a partial photo.
func (d *Disk) Put(_ context.Context, data []byte, _ string) (string, error) {
	ref := newRef()

	tmp, err := os.CreateTemp(d.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("creating photo file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing photo: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("writing photo: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(d.dir, ref)); err != nil {
		return "", fmt.Errorf("storing photo: %w", err)
	}
	return ref, nil
}

// Open implements Store.
func (d *Disk) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	if !ValidRef(ref) {
		return nil, errNotFound()
	}
	f, err := os.Open(filepath.Join(d.dir, ref))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errNotFound()
	}
	if err != nil {
		return nil, fmt.Errorf("opening photo: %w", err)
	}
	return f, nil
}

// Delete implements Store. Deleting a missing photo is not an error.
func (d *Disk) Delete(_ context.Context, ref string) error {
	if !ValidRef(ref) {
		return nil
	}
	err := os.Remove(filepath.Join(d.dir, ref))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting photo: %w", err)
	}
	return nil
}
