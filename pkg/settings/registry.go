package settings

import (
	"slices"
	"sync"

	"github.com/albertocavalcante/compflags/internal/runner"
	"github.com/albertocavalcante/compflags/pkg/config"
	"github.com/albertocavalcante/compflags/pkg/util"
	"go.uber.org/zap"
)

// Language names understood by the dispatcher.
const (
	LanguageCFamily = "cfamily"
	LanguagePython  = "python"
)

// Env carries the shared dependencies handed to every resolver factory.
type Env struct {
	Config *config.Config
	Logger *zap.Logger
	Runner *runner.Runner
}

// Factory creates a resolver for one language.
type Factory func(env *Env) Resolver

var (
	mu sync.RWMutex

	// factories maps language names to their factory functions.
	factories = map[string]Factory{
		LanguageCFamily: func(env *Env) Resolver { return NewCFamily(env) },
		LanguagePython:  func(env *Env) Resolver { return NewPython(env) },
	}
)

// languageOrder lists the built-in languages first, in a stable order.
var languageOrder = []string{
	LanguageCFamily,
	LanguagePython,
}

// Available returns the registered language names: built-ins first, then
// any registered extras in sorted order.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for _, name := range languageOrder {
		if _, ok := factories[name]; ok {
			names = append(names, name)
		}
	}
	for _, name := range util.SortedKeys(factories) {
		if !slices.Contains(languageOrder, name) {
			names = append(names, name)
		}
	}
	return names
}

// IsAvailable checks if a language factory is registered.
func IsAvailable(name string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Register registers a language factory.
// This allows external packages to add new languages.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = factory
}

// load instantiates a resolver for every registered language.
func load(env *Env) map[string]Resolver {
	mu.RLock()
	defer mu.RUnlock()

	resolvers := make(map[string]Resolver, len(factories))
	for name, factory := range factories {
		resolvers[name] = factory(env)
	}
	return resolvers
}
