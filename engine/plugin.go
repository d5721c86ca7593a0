package engine

import (
	"fmt"
	"sync"

	"github.com/seamdb/seam"
	"github.com/seamdb/seam/dburl"
)

// Plugin attaches cross-cutting behavior to engine construction without
// modifying dialect code. Plugins are selected by repeated "plugin"
// query parameters on the connection URL and applied in URL order.
//
// A plugin factory receives the construction keyword arguments and must
// delete every key it recognizes; keys left over after all plugins and
// the dialect have run fail engine creation. UpdateURL must likewise
// strip the plugin's own query parameters, leaving all others
// untouched, and must be idempotent on a URL already missing them.
type Plugin interface {
	// UpdateURL returns the URL with the plugin's query parameters
	// removed.
	UpdateURL(u *dburl.URL) *dburl.URL

	// HandleDialectArgs mutates the arguments destined for the dialect.
	HandleDialectArgs(args map[string]any)

	// HandlePoolArgs mutates the arguments destined for an external
	// connection pool.
	HandlePoolArgs(args map[string]any)

	// EngineCreated fires once, after the engine is fully built. This is
	// the point at which observers and error handlers are normally
	// attached.
	EngineCreated(e *Engine)
}

// PluginFactory constructs a plugin for one engine-construction call.
type PluginFactory func(u *dburl.URL, kwargs map[string]any) (Plugin, error)

// PluginBase is a no-op Plugin for embedding.
type PluginBase struct{}

func (PluginBase) UpdateURL(u *dburl.URL) *dburl.URL { return u }
func (PluginBase) HandleDialectArgs(map[string]any)  {}
func (PluginBase) HandlePoolArgs(map[string]any)     {}
func (PluginBase) EngineCreated(*Engine)             {}

var _ Plugin = PluginBase{}

var (
	pluginMu sync.RWMutex
	plugins  = make(map[string]PluginFactory)
)

// RegisterPlugin makes a plugin factory available under the given name.
// It panics on a duplicate or empty name.
func RegisterPlugin(name string, f PluginFactory) {
	pluginMu.Lock()
	defer pluginMu.Unlock()
	if name == "" || f == nil {
		panic("engine: RegisterPlugin with empty name or nil factory")
	}
	if _, dup := plugins[name]; dup {
		panic(fmt.Sprintf("engine: RegisterPlugin called twice for %q", name))
	}
	plugins[name] = f
}

func lookupPlugin(name string) (PluginFactory, error) {
	pluginMu.RLock()
	defer pluginMu.RUnlock()
	f, ok := plugins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", seam.ErrNoSuchPlugin, name)
	}
	return f, nil
}

// loadPlugins constructs the plugins named by the URL's "plugin" query
// parameters plus the explicitly requested names, in that order, and
// lets each strip its URL parameters.
func loadPlugins(u *dburl.URL, extra []string, kwargs map[string]any) (*dburl.URL, []Plugin, error) {
	names := append(u.QueryAll("plugin"), extra...)
	if len(names) == 0 {
		return u, nil, nil
	}
	u = u.WithoutQuery("plugin")
	loaded := make([]Plugin, 0, len(names))
	for _, name := range names {
		f, err := lookupPlugin(name)
		if err != nil {
			return nil, nil, err
		}
		p, err := f(u, kwargs)
		if err != nil {
			return nil, nil, fmt.Errorf("engine: plugin %q: %w", name, err)
		}
		u = p.UpdateURL(u)
		loaded = append(loaded, p)
	}
	return u, loaded, nil
}
