package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/najdeno/internal/model"
)

func TestCreateItemWithPhotos(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	staff := addUser(t, svc, "Staff", model.RoleStaff)

	img := pngBytes(t)
	item, err := svc.CreateItem(ctx, staff, CreateItemRequest{
		Name:        "Calculator",
		Description: "TI-84, name scratched off",
		Category:    "electronics",
		Location:    "Room 204",
		DateFound:   "2024-02-28",
		Priority:    model.PriorityHigh,
		StaffNotes:  ptr("Kept in the office safe"),
	}, []io.Reader{bytes.NewReader(img), bytes.NewReader(img)})
	require.NoError(t, err)
	require.Len(t, item.Photos, 2)
	assert.Equal(t, model.PriorityHigh, item.Priority)
	assert.Equal(t, staff.ID, *item.FoundByID)
	assert.Equal(t, "2024-02-28", item.DateFound.Format("2006-01-02"))

	rc, err := svc.OpenPhoto(ctx, item.Photos[0])
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8}, data[:2], "stored as JPEG")

	got, err := svc.GetItem(ctx, model.Caller{}, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.Photos, got.Photos)
}

func TestCreateItemRules(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	staff := addUser(t, svc, "Staff", model.RoleStaff)
	student := addUser(t, svc, "Ana", model.RoleStudent)

	valid := CreateItemRequest{
		Name: "Scarf", Description: "Red wool", Category: "clothing",
		Location: "Gym", DateFound: "2024-02-01",
	}

	_, err := svc.CreateItem(ctx, student, valid, nil)
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = svc.CreateItem(ctx, model.Caller{}, valid, nil)
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	bad := valid
	bad.Category = "food"
	bad.Name = ""
	_, err = svc.CreateItem(ctx, staff, bad, nil)
	ve, ok := model.IsValidation(err)
	require.True(t, ok)
	assert.Len(t, ve.Fields, 2)

	bad = valid
	bad.DateFound = "yesterday"
	_, err = svc.CreateItem(ctx, staff, bad, nil)
	ve, ok = model.IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "dateFound", ve.Fields[0].Field)

	img := pngBytes(t)
	four := []io.Reader{bytes.NewReader(img), bytes.NewReader(img), bytes.NewReader(img), bytes.NewReader(img)}
	_, err = svc.CreateItem(ctx, staff, valid, four)
	ve, ok = model.IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "photos", ve.Fields[0].Field)

	_, err = svc.CreateItem(ctx, staff, valid, []io.Reader{strings.NewReader("not a picture")})
	ve, ok = model.IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "photo_0", ve.Fields[0].Field)

	item, err := svc.CreateItem(ctx, staff, valid, nil)
	require.NoError(t, err)
	assert.Equal(t, model.PriorityNormal, item.Priority)
	assert.Equal(t, model.ItemStatusActive, item.Status)
	assert.Empty(t, item.Photos)
}

func TestUpdateItem(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	staff := addUser(t, svc, "Staff", model.RoleStaff)
	student := addUser(t, svc, "Ana", model.RoleStudent)
	item := addItem(t, svc, staff, "Bottle", "other", testNow)

	_, err := svc.UpdateItem(ctx, student, item.ID, UpdateItemRequest{Name: ptr("Mine now")})
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = svc.UpdateItem(ctx, staff, 999, UpdateItemRequest{Name: ptr("x")})
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = svc.UpdateItem(ctx, staff, item.ID, UpdateItemRequest{Name: ptr("  ")})
	_, ok := model.IsValidation(err)
	assert.True(t, ok)

	_, err = svc.UpdateItem(ctx, staff, item.ID, UpdateItemRequest{Status: ptr(model.ItemStatusArchived)})
	assert.ErrorIs(t, err, model.ErrConflict, "archiving is the sweep's job")

	updated, err := svc.UpdateItem(ctx, staff, item.ID, UpdateItemRequest{
		Name:       ptr("Steel bottle"),
		StaffNotes: ptr("dented"),
		DateFound:  ptr("2024-02-20"),
		Status:     ptr(model.ItemStatusActive),
	})
	require.NoError(t, err)
	assert.Equal(t, "Steel bottle", updated.Name)
	assert.Equal(t, "dented", *updated.StaffNotes)
	assert.Equal(t, "2024-02-20", updated.DateFound.Format("2006-01-02"))

	claimed, err := svc.UpdateItem(ctx, staff, item.ID, UpdateItemRequest{Status: ptr(model.ItemStatusClaimed)})
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusClaimed, claimed.Status)

	_, err = svc.UpdateItem(ctx, staff, item.ID, UpdateItemRequest{Status: ptr(model.ItemStatusActive)})
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestUpdateItemRecordsClaimant(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	staff := addUser(t, svc, "Staff", model.RoleStaff)
	ana := addUser(t, svc, "Ana", model.RoleStudent)
	item := addItem(t, svc, staff, "Scarf", "clothing", testNow)

	_, err := svc.UpdateItem(ctx, staff, item.ID, UpdateItemRequest{ClaimedByID: ptr(ana.ID)})
	_, ok := model.IsValidation(err)
	assert.True(t, ok, "claimant without a status change")

	_, err = svc.UpdateItem(ctx, staff, item.ID, UpdateItemRequest{
		Status:      ptr(model.ItemStatusClaimed),
		ClaimedByID: ptr(uuid.NewString()),
	})
	_, ok = model.IsValidation(err)
	assert.True(t, ok, "unknown claimant")

	claimed, err := svc.UpdateItem(ctx, staff, item.ID, UpdateItemRequest{
		Location:    ptr("Front office"),
		Status:      ptr(model.ItemStatusClaimed),
		ClaimedByID: ptr(ana.ID),
	})
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusClaimed, claimed.Status)
	assert.Equal(t, "Front office", claimed.Location)
	require.NotNil(t, claimed.ClaimedByID)
	assert.Equal(t, ana.ID, *claimed.ClaimedByID)

	// Claiming again is a no-op status-wise and keeps the claimant.
	again, err := svc.UpdateItem(ctx, staff, item.ID, UpdateItemRequest{Status: ptr(model.ItemStatusClaimed)})
	require.NoError(t, err)
	assert.Equal(t, ana.ID, *again.ClaimedByID)
}

func TestStaffNotesHiddenFromStudents(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	staff := addUser(t, svc, "Staff", model.RoleStaff)
	student := addUser(t, svc, "Ana", model.RoleStudent)

	_, err := svc.CreateItem(ctx, staff, CreateItemRequest{
		Name: "Ring", Description: "Silver", Category: "jewelry", Location: "Pool",
		DateFound: "2024-02-01", StaffNotes: ptr("engraved 'J+K'"),
	}, nil)
	require.NoError(t, err)

	for _, c := range []model.Caller{student, {}} {
		items, err := svc.ListItems(ctx, c, model.ItemFilter{})
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Nil(t, items[0].StaffNotes)
	}

	items, err := svc.ListItems(ctx, staff, model.ItemFilter{})
	require.NoError(t, err)
	require.NotNil(t, items[0].StaffNotes)
}

func TestListItemsRejectsUnknownFilters(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ListItems(ctx, model.Caller{}, model.ItemFilter{Category: "food"})
	_, ok := model.IsValidation(err)
	assert.True(t, ok)

	_, err = svc.ListItems(ctx, model.Caller{}, model.ItemFilter{Status: "lost"})
	_, ok = model.IsValidation(err)
	assert.True(t, ok)
}

func TestArchiveOldItems(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	staff := addUser(t, svc, "Staff", model.RoleStaff)
	student := addUser(t, svc, "Ana", model.RoleStudent)

	old := addItem(t, svc, staff, "Old jacket", "clothing", testNow.AddDate(0, 0, -40))
	fresh := addItem(t, svc, staff, "New jacket", "clothing", testNow.AddDate(0, 0, -10))

	_, err := svc.ArchiveOldItems(ctx, student, 30)
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = svc.ArchiveOldItems(ctx, staff, -1)
	_, ok := model.IsValidation(err)
	assert.True(t, ok)

	n, err := svc.ArchiveOldItems(ctx, staff, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := svc.GetItem(ctx, staff, old.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusArchived, got.Status)
	require.NotNil(t, got.DateArchived)
	assert.True(t, got.DateArchived.Equal(testNow))

	got, err = svc.GetItem(ctx, staff, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusActive, got.Status)

	n, err = svc.ArchiveOldItems(ctx, staff, 30)
	require.NoError(t, err)
	assert.Zero(t, n, "second run is a no-op")

	n, err = svc.ArchiveSweep(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, n, "default threshold is 30 days")
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-15")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15T00:00:00Z", d.Format("2006-01-02T15:04:05Z07:00"))

	d, err = ParseDate("2024-01-15T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, 8, d.Hour())

	_, err = ParseDate("15/01/2024")
	assert.Error(t, err)
}

func TestParseDateTo(t *testing.T) {
	d, exclusive, err := ParseDateTo("2024-01-10")
	require.NoError(t, err)
	assert.True(t, exclusive)
	assert.Equal(t, time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC), d)

	d, exclusive, err = ParseDateTo("2024-01-10T15:00:00Z")
	require.NoError(t, err)
	assert.False(t, exclusive)
	assert.Equal(t, 15, d.Hour())

	_, _, err = ParseDateTo("tomorrow")
	assert.Error(t, err)
}
