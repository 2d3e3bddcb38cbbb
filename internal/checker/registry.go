package checker

import (
	"sort"
	"sync"
)

// Registry manages checker registration and lookup by language.
//
// Registration happens at plugin load time; lookups happen on every
// assignment pass, so reads take the shared lock.
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Descriptor
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		checkers: make(map[string]Descriptor),
	}
}

// Register adds a checker to the registry. Registering a name twice replaces
// the earlier descriptor, so a reloaded checker plugin wins over a stale one.
func (r *Registry) Register(desc Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[desc.Name] = desc
}

// Get retrieves a checker descriptor by name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.checkers[name]
	return desc, ok
}

// Has returns true if a checker with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.checkers[name]
	return ok
}

// ForLanguage returns the descriptors registered for a language, sorted by
// name. Descriptors registered with the wildcard language "*" apply to every
// known language. An empty language matches nothing.
func (r *Registry) ForLanguage(language string) []Descriptor {
	if language == "" {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []Descriptor
	for _, desc := range r.checkers {
		if desc.Language == language || desc.Language == LanguageAny {
			result = append(result, desc)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// All returns all registered descriptors sorted by name.
func (r *Registry) All() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Descriptor, 0, len(r.checkers))
	for _, desc := range r.checkers {
		result = append(result, desc)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Names returns all registered checker names sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.checkers))
	for name := range r.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
