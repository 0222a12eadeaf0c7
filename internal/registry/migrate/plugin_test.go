package migrate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingMigrator struct {
	name  string
	err   error
	calls *[]string
}

func (m recordingMigrator) Name() string { return m.name }

func (m recordingMigrator) Migrate(context.Context) error {
	*m.calls = append(*m.calls, m.name)
	return m.err
}

func resetPlugins(t *testing.T) {
	mu.Lock()
	saved := plugins
	plugins = nil
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		plugins = saved
		mu.Unlock()
	})
}

func TestRunAll_OrdersAndStopsOnFailure(t *testing.T) {
	resetPlugins(t)
	var calls []string
	Register(Plugin{Order: 200, Migrator: recordingMigrator{name: "after", calls: &calls}})
	Register(Plugin{Order: 100, Migrator: recordingMigrator{name: "broken", err: errors.New("no db"), calls: &calls}})
	Register(Plugin{Order: 1, Migrator: recordingMigrator{name: "first", calls: &calls}})

	require.Equal(t, []string{"first", "broken", "after"}, Names())

	err := RunAll(context.Background())
	require.ErrorContains(t, err, "migration broken failed: no db")
	require.Equal(t, []string{"first", "broken"}, calls)
}
