package rules

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrNoActivePreset is returned when a project has no active
	// preset set. Legacy projects are migrated to a default preset at
	// load time, so this only fires on misuse of the API.
	ErrNoActivePreset = errors.New("no active preset")
	// ErrUnknownPreset is returned when a preset ID is not registered.
	ErrUnknownPreset = errors.New("unknown preset")
)

// Registry holds a project's presets and the single active selection.
type Registry struct {
	mu       sync.RWMutex
	presets  map[string]*Preset
	activeID string
}

// NewRegistry creates an empty preset registry.
func NewRegistry() *Registry {
	return &Registry{presets: make(map[string]*Preset)}
}

// Add registers a preset, replacing any existing preset with the same
// ID.
func (r *Registry) Add(p *Preset) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("add preset: missing ID")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presets[p.ID] = p.Clone()
	return nil
}

// SetActive selects the active preset. Fails with ErrUnknownPreset when
// the ID is not registered.
func (r *Registry) SetActive(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.presets[id]; !ok {
		return fmt.Errorf("set active preset %q: %w", id, ErrUnknownPreset)
	}
	r.activeID = id
	return nil
}

// ActiveID returns the active preset ID, empty when none is set.
func (r *Registry) ActiveID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeID
}

// Resolve returns the active preset. Fails with ErrNoActivePreset when
// none is set.
func (r *Registry) Resolve() (*Preset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.activeID == "" {
		return nil, ErrNoActivePreset
	}
	p, ok := r.presets[r.activeID]
	if !ok {
		return nil, fmt.Errorf("resolve active preset %q: %w", r.activeID, ErrUnknownPreset)
	}
	return p.Clone(), nil
}

// Preset returns a registered preset by ID.
func (r *Registry) Preset(id string) (*Preset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.presets[id]
	if !ok {
		return nil, fmt.Errorf("preset %q: %w", id, ErrUnknownPreset)
	}
	return p.Clone(), nil
}

// Presets returns all registered presets sorted by ID.
func (r *Registry) Presets() []*Preset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Preset, 0, len(r.presets))
	for _, p := range r.presets {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
