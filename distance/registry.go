package distance

import (
	"slices"
	"sync"
)

// Registry maps method names to methods. It starts with every builtin and is
// safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	methods    map[string]Method
	generation uint64
}

// NewRegistry creates a Registry holding the builtin methods.
func NewRegistry() *Registry {
	r := &Registry{methods: make(map[string]Method, len(Builtins))}
	for _, k := range Builtins {
		r.methods[k.String()] = Builtin(k)
	}
	return r
}

// Register adds m under its name, replacing any method of the same name. It
// reports whether a method was replaced. Every registration gets a new
// generation.
func (r *Registry) Register(m Method) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.generation++
	m.generation = r.generation
	_, replaced := r.methods[m.name]
	r.methods[m.name] = m
	return replaced
}

// Lookup returns the method registered under name.
func (r *Registry) Lookup(name string) (Method, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.methods[name]
	if !ok {
		return Method{}, &UnknownMethodError{Name: name}
	}
	return m, nil
}

// Names returns every registered name in lexicographic order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.methods))
	for n := range r.methods {
		names = append(names, n)
	}
	r.mu.RUnlock()

	slices.Sort(names)
	return names
}
