package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/najdeno/internal/model"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func createTestUser(t *testing.T, database *sql.DB, first, role string) *model.User {
	t.Helper()
	u := &model.User{
		ID:        uuid.NewString(),
		FirstName: first,
		LastName:  "Tester",
		Role:      role,
	}
	require.NoError(t, CreateUser(context.Background(), database, u, testNow))
	return u
}

func createTestItem(t *testing.T, database *sql.DB, name, category, location string, found time.Time, now time.Time) *model.Item {
	t.Helper()
	it := &model.Item{
		Name:        name,
		Description: name + " description",
		Category:    category,
		Location:    location,
		DateFound:   found,
	}
	require.NoError(t, CreateItem(context.Background(), database, it, now))
	return it
}
