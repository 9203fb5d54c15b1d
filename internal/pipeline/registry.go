package pipeline

import (
	"fmt"
	"sync"
)

// Factory builds a Step of one kind (standard_scaler, one_hot, ...) from its
// serialized spec. Each kind registers its factory in init().
type Factory interface {
	Kind() string
	Create(spec StepSpec) (Step, error)
}

// Registry holds the step factories a pipeline document may reference.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// GlobalRegistry holds the built-in step kinds.
var GlobalRegistry = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory, replacing any previous one of the same kind.
func (r *Registry) Register(factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[factory.Kind()] = factory
}

// Create builds a Step for spec.Kind.
func (r *Registry) Create(spec StepSpec) (Step, error) {
	r.mu.RLock()
	factory, ok := r.factories[spec.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown step kind: %s", spec.Kind)
	}
	return factory.Create(spec)
}

// ListRegistered returns all registered step kinds.
func (r *Registry) ListRegistered() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	return kinds
}
