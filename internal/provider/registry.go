package provider

import (
	"fmt"
	"sync"
)

// Factory constructs a provider implementation.
type Factory func() Interface

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterFactory makes a provider available under name. Provider packages
// call this from init; importing a provider package for side effects is how
// the CLI selects what is linked in.
func RegisterFactory(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// Registry manages the lifecycle of instantiated providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Interface
}

func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Interface),
	}
}

// Load instantiates (once) and returns the named provider.
func (r *Registry) Load(name string) (Interface, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.providers[name]; ok {
		return p, nil
	}

	factoriesMu.RLock()
	f, ok := factories[name]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}

	p := f()
	r.providers[name] = p
	return p, nil
}
