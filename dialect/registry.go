package dialect

import (
	"fmt"
	"sort"
	"sync"

	"github.com/seamdb/seam"
	"github.com/seamdb/seam/dburl"
)

// Factory constructs a fresh dialect instance for one engine.
type Factory func() Dialect

// URLResolver is implemented by dialect families that redirect to a
// different concrete implementation based on URL inspection.
type URLResolver interface {
	// ResolveDialect returns the dialect that should actually serve the
	// URL. Returning the receiver keeps the original.
	ResolveDialect(u *dburl.URL) Dialect
}

// AsyncURLResolver is implemented by dialect families that provide a
// distinct implementation for asynchronous engines under the same name.
type AsyncURLResolver interface {
	ResolveAsyncDialect(u *dburl.URL) Dialect
}

// Provisioner is implemented by dialects with one-time side-effecting
// setup. LoadProvisioning runs at most once per registered name.
type Provisioner interface {
	LoadProvisioning() error
}

var (
	registryMu  sync.RWMutex
	registry    = make(map[string]Factory)
	provisioned = make(map[string]*sync.Once)
)

// Register makes a dialect factory available under the given name. The
// name is either a backend ("postgres") or a backend+driver pairing
// ("postgres+pgx"); the qualified form takes precedence during lookup.
// Register panics on a duplicate or empty name.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if name == "" || f == nil {
		panic("dialect: Register with empty name or nil factory")
	}
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("dialect: Register called twice for %q", name))
	}
	registry[name] = f
	provisioned[name] = new(sync.Once)
}

// Registered returns the sorted names of all registered dialects.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves the connection URL to a dialect instance, preferring
// a backend+driver registration over the bare backend name and honoring
// the URLResolver redirection hook. The second return value is the
// dialect produced by the registered factory before redirection; it
// differs from the first only when the dialect redirected.
func Lookup(u *dburl.URL) (resolved, requested Dialect, err error) {
	f, name, err := lookupFactory(u)
	if err != nil {
		return nil, nil, err
	}
	if err := provision(name, f); err != nil {
		return nil, nil, err
	}
	requested = f()
	resolved = requested
	if r, ok := requested.(URLResolver); ok {
		resolved = r.ResolveDialect(u)
	}
	return resolved, requested, nil
}

// LookupAsync is the asynchronous-engine variant of Lookup, honoring
// AsyncURLResolver and falling back to URLResolver.
func LookupAsync(u *dburl.URL) (resolved, requested Dialect, err error) {
	f, name, err := lookupFactory(u)
	if err != nil {
		return nil, nil, err
	}
	if err := provision(name, f); err != nil {
		return nil, nil, err
	}
	requested = f()
	resolved = requested
	switch r := requested.(type) {
	case AsyncURLResolver:
		resolved = r.ResolveAsyncDialect(u)
	case URLResolver:
		resolved = r.ResolveDialect(u)
	}
	return resolved, requested, nil
}

func lookupFactory(u *dburl.URL) (Factory, string, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if d := u.Driver(); d != "" {
		qualified := u.Backend() + "+" + d
		if f, ok := registry[qualified]; ok {
			return f, qualified, nil
		}
	}
	if f, ok := registry[u.Backend()]; ok {
		return f, u.Backend(), nil
	}
	return nil, "", fmt.Errorf("%w: %q", seam.ErrNoSuchDialect, u.Backend())
}

func provision(name string, f Factory) error {
	registryMu.RLock()
	once := provisioned[name]
	registryMu.RUnlock()
	var err error
	once.Do(func() {
		if p, ok := f().(Provisioner); ok {
			err = p.LoadProvisioning()
		}
	})
	return err
}
