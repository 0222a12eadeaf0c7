package local

import (
	"context"
	"testing"
	"time"

	"github.com/chirino/gina-service/internal/model"
	registrycache "github.com/chirino/gina-service/internal/registry/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProfileCache(t *testing.T) {
	ctx := context.Background()
	c, err := New(100, time.Minute)
	require.NoError(t, err)
	assert.True(t, c.Available())

	got, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	name := "Alice"
	require.NoError(t, c.Set(ctx, "u1", registrycache.CachedProfile{
		Intake: &model.Intake{FullName: &name},
		Facts:  model.Facts{"preferredName": "Al"},
	}, 0))

	got, err = c.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Alice", *got.Intake.FullName)
	assert.Equal(t, "Al", got.Facts["preferredName"])

	// Returned profiles are copies.
	got.Facts["preferredName"] = "changed"
	again, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Al", again.Facts["preferredName"])

	require.NoError(t, c.Remove(ctx, "u1"))
	got, err = c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
