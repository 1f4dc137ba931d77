// Package photos stores processed item photos as opaque blobs.
package photos

import (
	"context"
	"crypto/rand"
	"io"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/erazemk/najdeno/internal/model"
)

// Store keeps photo blobs addressed by the reference Put returns.
type Store interface {
	Put(ctx context.Context, data []byte, contentType string) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Delete(ctx context.Context, ref string) error
}

const ext = ".jpg"

// newRef returns a fresh time-sortable reference.
func newRef() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String() + ext
}

// ValidRef reports whether ref could have been produced by newRef. Refs
// arrive from URLs, so anything else is rejected before touching storage.
func ValidRef(ref string) bool {
	id, ok := strings.CutSuffix(ref, ext)
	if !ok {
		return false
	}
	_, err := ulid.ParseStrict(id)
	return err == nil
}

func errNotFound() error {
	return model.NotFound("photo")
}
