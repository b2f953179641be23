package probe

import (
	"sort"
	"sync"

	"github.com/zsx0855/cosco-comprehensive-query/pkg/errors"
)

// Registry holds the registered check items. Lookups by unknown id and
// duplicate registrations are configuration errors; the orchestrator treats
// them as fatal for the requesting run only.
type Registry struct {
	mu         sync.RWMutex
	probes     map[string]Probe
	aggregates map[string]Aggregate
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		probes:     make(map[string]Probe),
		aggregates: make(map[string]Aggregate),
	}
}

// Register adds a leaf probe.
func (r *Registry) Register(p Probe) error {
	if p == nil || p.ID() == "" {
		return errors.Configuration("check item has no id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.probes[p.ID()]; ok {
		return errors.New(errors.ErrCodeCheckDuplicate, "check item already registered").
			WithDetail("check_id=" + p.ID())
	}
	if _, ok := r.aggregates[p.ID()]; ok {
		return errors.New(errors.ErrCodeCheckDuplicate, "check item already registered").
			WithDetail("check_id=" + p.ID())
	}
	r.probes[p.ID()] = p
	return nil
}

// RegisterAggregate adds an aggregate check item.
func (r *Registry) RegisterAggregate(a Aggregate) error {
	if a == nil || a.ID() == "" {
		return errors.Configuration("aggregate check item has no id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.aggregates[a.ID()]; ok {
		return errors.New(errors.ErrCodeCheckDuplicate, "check item already registered").
			WithDetail("check_id=" + a.ID())
	}
	if _, ok := r.probes[a.ID()]; ok {
		return errors.New(errors.ErrCodeCheckDuplicate, "check item already registered").
			WithDetail("check_id=" + a.ID())
	}
	r.aggregates[a.ID()] = a
	return nil
}

// Probe returns the leaf probe registered under id.
func (r *Registry) Probe(id string) (Probe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.probes[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeCheckUnknown, "check item not registered").
			WithDetail("check_id=" + id)
	}
	return p, nil
}

// Aggregate returns the aggregate registered under id.
func (r *Registry) Aggregate(id string) (Aggregate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.aggregates[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeCheckUnknown, "check item not registered").
			WithDetail("check_id=" + id)
	}
	return a, nil
}

// Contains reports whether id names a registered leaf or aggregate.
func (r *Registry) Contains(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, leaf := r.probes[id]
	_, agg := r.aggregates[id]
	return leaf || agg
}

// IsAggregate reports whether id names an aggregate.
func (r *Registry) IsAggregate(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.aggregates[id]
	return ok
}

// IDs returns all registered check ids, sorted, leaves and aggregates alike.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.probes)+len(r.aggregates))
	for id := range r.probes {
		ids = append(ids, id)
	}
	for id := range r.aggregates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
