package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/najdeno/internal/db"
	"github.com/erazemk/najdeno/internal/model"
)

func TestAnalyticsEmpty(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	total, returned, err := ItemCounts(ctx, database)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Zero(t, returned)

	cats, err := CategoryStats(ctx, database)
	require.NoError(t, err)
	assert.Empty(t, cats)
}

func TestAnalyticsCounts(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	createTestItem(t, database, "Phone", "electronics", "Library", testNow, testNow)
	laptop := createTestItem(t, database, "Laptop", "electronics", "Gym", testNow, testNow)
	createTestItem(t, database, "Hoodie", "clothing", "Gym", testNow, testNow)
	createTestItem(t, database, "Ball", "sports", "Field", testNow, testNow)
	_, err := MarkItemClaimed(ctx, database, laptop.ID, nil, testNow)
	require.NoError(t, err)

	total, returned, err := ItemCounts(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Equal(t, 1, returned)

	cats, err := CategoryStats(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, []model.CategoryCount{
		{Category: "electronics", Count: 2},
		{Category: "clothing", Count: 1},
		{Category: "sports", Count: 1},
	}, cats)

	locs, err := LocationStats(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, []model.LocationCount{
		{Location: "Gym", Count: 2},
		{Location: "Field", Count: 1},
		{Location: "Library", Count: 1},
	}, locs)
}
