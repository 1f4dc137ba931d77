package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/notify"
	"github.com/erazemk/najdeno/internal/photos"
	"github.com/erazemk/najdeno/internal/store"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Publish(ev notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) Events() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Event(nil), r.events...)
}

func newTestService(t *testing.T) (*Service, *recorder) {
	t.Helper()
	disk, err := photos.NewDisk(t.TempDir())
	require.NoError(t, err)

	rec := &recorder{}
	svc := New(db.NewTestDB(t), Options{
		Publisher: rec,
		Photos:    disk,
		Now:       func() time.Time { return testNow },
	})
	return svc, rec
}

func addUser(t *testing.T, svc *Service, first, role string) model.Caller {
	t.Helper()
	u := &model.User{ID: uuid.NewString(), FirstName: first, LastName: "Test", Role: role}
	require.NoError(t, store.CreateUser(context.Background(), svc.DB(), u, testNow))
	return model.Caller{ID: u.ID, Role: role}
}

func addItem(t *testing.T, svc *Service, staff model.Caller, name, category string, found time.Time) *model.Item {
	t.Helper()
	item, err := svc.CreateItem(context.Background(), staff, CreateItemRequest{
		Name:        name,
		Description: name + " found on the floor",
		Category:    category,
		Location:    "Library",
		DateFound:   found.Format(time.RFC3339),
	}, nil)
	require.NoError(t, err)
	return item
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	img.Set(1, 1, color.RGBA{10, 20, 30, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func ptr[T any](v T) *T { return &v }
