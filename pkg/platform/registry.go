package platform

import (
	"fmt"
	"sync"

	"github.com/ngoclaw/clidriver/pkg/clierrors"
)

// Factory builds a fresh Platform value. Each vendor package registers its
// own factory from an init() function, mirroring a provider-registry
// pattern: importing a vendor package for its side effect is how a caller
// opts into that platform.
type Factory func() (*Platform, error)

var (
	factoryMu sync.RWMutex
	factories = map[string]Factory{}
)

// Register adds a platform factory under name. Call from a vendor
// package's init().
func Register(name string, factory Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factories[name] = factory
}

// Get builds the platform registered under name.
func Get(name string) (*Platform, error) {
	factoryMu.RLock()
	factory, ok := factories[name]
	factoryMu.RUnlock()
	if !ok {
		available := Names()
		return nil, clierrors.InvalidDefinition(fmt.Sprintf("unknown platform %q (available: %v)", name, available))
	}
	return factory()
}

// Names returns every registered platform name.
func Names() []string {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	names := make([]string, 0, len(factories))
	for k := range factories {
		names = append(names, k)
	}
	return names
}
