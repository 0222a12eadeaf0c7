package postgres_test

import (
	"context"
	"testing"

	"github.com/chirino/gina-service/internal/config"
	_ "github.com/chirino/gina-service/internal/plugin/store/postgres"
	registrymigrate "github.com/chirino/gina-service/internal/registry/migrate"
	registrystore "github.com/chirino/gina-service/internal/registry/store"
	"github.com/chirino/gina-service/internal/testutil/testpg"
	"github.com/chirino/gina-service/internal/testutil/teststore"
	"github.com/stretchr/testify/require"
)

func TestPostgresRecordStore(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}
	dbURL := testpg.StartPostgres(t)

	teststore.Run(t, func(t *testing.T) (registrystore.RecordStore, context.Context) {
		cfg := config.DefaultConfig()
		cfg.DBURL = dbURL
		ctx, cancel := context.WithCancel(config.WithContext(context.Background(), &cfg))
		t.Cleanup(cancel)

		// Run migrations
		require.NoError(t, registrymigrate.RunAll(ctx))

		loader, err := registrystore.Select("postgres")
		require.NoError(t, err)
		store, err := loader(ctx)
		require.NoError(t, err)
		return store, ctx
	})
}
