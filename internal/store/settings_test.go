package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/najdeno/internal/db"
)

func TestGetJWTSecret_GeneratesAndPersists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	secret1, err := GetJWTSecret(ctx, database)
	require.NoError(t, err)
	assert.Len(t, secret1, 64) // 32 bytes hex-encoded

	secret2, err := GetJWTSecret(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, secret1, secret2)
}

func TestSettings(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	v, err := GetSetting(ctx, database, "missing")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, SetSetting(ctx, database, "k", "one"))
	require.NoError(t, SetSetting(ctx, database, "k", "two"))

	v, err = GetSetting(ctx, database, "k")
	require.NoError(t, err)
	assert.Equal(t, "two", v)
}
