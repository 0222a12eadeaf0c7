package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, "postgres", cfg.DatastoreType)
	require.Equal(t, "none", cfg.CacheType)
	require.Equal(t, "gpt-4o", cfg.OpenAIChatModel)
	require.Equal(t, 8080, cfg.Listener.Port)
}

func TestContextRoundTrip(t *testing.T) {
	require.Nil(t, FromContext(context.Background()))
	cfg := DefaultConfig()
	ctx := WithContext(context.Background(), &cfg)
	require.Same(t, &cfg, FromContext(ctx))
}
