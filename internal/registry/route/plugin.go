package route

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gin-gonic/gin"
)

// RouterLoader mounts a plugin's handlers on the engine.
type RouterLoader func(r *gin.Engine) error

// RouteType selects the listener a plugin's routes are served from.
type RouteType int

const (
	// RouteTypeMain routes are served on the public API port.
	RouteTypeMain RouteType = iota
	// RouteTypeManagement routes (health, readiness, metrics) move to the
	// management port when one is configured.
	RouteTypeManagement
)

func (t RouteType) String() string {
	if t == RouteTypeManagement {
		return "management"
	}
	return "main"
}

// Plugin is a self-registering group of routes. Lower Order mounts first.
type Plugin struct {
	Name   string
	Order  int
	Type   RouteType
	Loader RouterLoader
}

var (
	mu      sync.Mutex
	plugins []Plugin
)

// Register adds a route plugin. Called from init() in plugin packages.
func Register(p Plugin) {
	mu.Lock()
	defer mu.Unlock()
	plugins = append(plugins, p)
}

// Plugins returns the registered plugins of one type in mount order.
func Plugins(t RouteType) []Plugin {
	mu.Lock()
	defer mu.Unlock()
	var out []Plugin
	for _, p := range plugins {
		if p.Type == t {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Mount runs every loader of the given type against r.
func Mount(r *gin.Engine, t RouteType) error {
	for _, p := range Plugins(t) {
		if err := p.Loader(r); err != nil {
			return fmt.Errorf("failed to load %s route plugin %q: %w", t, p.Name, err)
		}
	}
	return nil
}
