package route

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

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

func TestMount_RunsLoadersOfOneTypeInOrder(t *testing.T) {
	resetPlugins(t)
	var calls []string
	loader := func(name string) RouterLoader {
		return func(*gin.Engine) error {
			calls = append(calls, name)
			return nil
		}
	}
	Register(Plugin{Name: "late", Order: 10, Type: RouteTypeMain, Loader: loader("late")})
	Register(Plugin{Name: "health", Order: 0, Type: RouteTypeManagement, Loader: loader("health")})
	Register(Plugin{Name: "early", Order: 1, Type: RouteTypeMain, Loader: loader("early")})

	require.NoError(t, Mount(gin.New(), RouteTypeMain))
	require.Equal(t, []string{"early", "late"}, calls)
}

func TestMount_NamesFailingPlugin(t *testing.T) {
	resetPlugins(t)
	Register(Plugin{Name: "broken", Type: RouteTypeManagement, Loader: func(*gin.Engine) error {
		return errors.New("boom")
	}})

	err := Mount(gin.New(), RouteTypeManagement)
	require.ErrorContains(t, err, `management route plugin "broken"`)
}
