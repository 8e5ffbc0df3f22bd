// Package module implements capability registries and the priority
// selector that drives backend open attempts.
//
// A Registry holds the candidate implementations of one capability in
// priority order. Load walks the candidates and stops at the first one
// whose open attempt succeeds. Implementations usually register from
// an init function, so a blank import of their package wires them in.
//
// Priority zero marks an implementation that is only tried when a
// caller requests it by name.
package module

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Candidate is one registered implementation of a capability, carrying
// the typed open callback the capability defines.
type Candidate[O any] struct {
	Name     string
	Priority int
	Open     O
}

// Registry holds the implementations of one capability. O is the open
// callback type the capability's owner defines; the registry never
// invokes it itself.
type Registry[O any] struct {
	capability string

	mu      sync.RWMutex
	entries []Candidate[O]
}

// New creates an empty registry for the named capability.
func New[O any](capability string) *Registry[O] {
	return &Registry[O]{capability: capability}
}

// Capability returns the name the registry was created with.
func (r *Registry[O]) Capability() string {
	return r.capability
}

// Register adds an implementation under a unique name with a selection
// priority. Higher priorities are tried first; equal priorities keep
// registration order; priority zero is reserved for implementations
// that must be requested by name.
func (r *Registry[O]) Register(name string, priority int, open O) error {
	if name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.Name == name {
			return fmt.Errorf("%w: %q already registered for %q", ErrDuplicateName, name, r.capability)
		}
	}

	r.entries = append(r.entries, Candidate[O]{Name: name, Priority: priority, Open: open})
	sort.SliceStable(r.entries, func(i, j int) bool {
		return r.entries[i].Priority > r.entries[j].Priority
	})

	logrus.WithFields(logrus.Fields{
		"function":   "Register",
		"capability": r.capability,
		"name":       name,
		"priority":   priority,
	}).Debug("implementation registered")
	return nil
}

// Candidates returns the attempt order for one selection. An empty
// preferred name yields every implementation with priority above zero.
// A non-empty preferred name with exclusive set yields only the named
// implementation, even at priority zero; without exclusive the named
// implementation is tried first and the normal order follows.
func (r *Registry[O]) Candidates(preferred string, exclusive bool) []Candidate[O] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Candidate[O]
	if preferred != "" {
		var named *Candidate[O]
		for i := range r.entries {
			if r.entries[i].Name == preferred {
				named = &r.entries[i]
				break
			}
		}
		if exclusive {
			if named == nil {
				return nil
			}
			return []Candidate[O]{*named}
		}
		if named != nil {
			out = append(out, *named)
		}
		for _, e := range r.entries {
			if e.Priority > 0 && e.Name != preferred {
				out = append(out, e)
			}
		}
		return out
	}

	for _, e := range r.entries {
		if e.Priority > 0 {
			out = append(out, e)
		}
	}
	return out
}

// Load selects an implementation by running attempt against each
// candidate in order, stopping at the first success. Candidates run
// one at a time within a Load call; attempt owns any rollback a failed
// candidate requires. When every candidate fails, the last attempt
// error is carried inside the returned ErrModuleNotFound.
func (r *Registry[O]) Load(preferred string, exclusive bool, attempt func(Candidate[O]) error) (*Module, error) {
	candidates := r.Candidates(preferred, exclusive)

	log := logrus.WithFields(logrus.Fields{
		"function":   "Load",
		"capability": r.capability,
		"preferred":  preferred,
		"exclusive":  exclusive,
		"candidates": len(candidates),
	})

	if len(candidates) == 0 {
		log.Warn("no candidate implementations")
		return nil, fmt.Errorf("%s: %w", r.capability, ErrModuleNotFound)
	}

	var lastErr error
	for _, cand := range candidates {
		if err := attempt(cand); err != nil {
			lastErr = err
			log.WithFields(logrus.Fields{
				"candidate": cand.Name,
				"error":     err.Error(),
			}).Debug("candidate declined")
			continue
		}
		log.WithFields(logrus.Fields{
			"selected": cand.Name,
			"priority": cand.Priority,
		}).Info("implementation selected")
		return &Module{name: cand.Name, capability: r.capability, priority: cand.Priority}, nil
	}

	log.WithFields(logrus.Fields{
		"error": lastErr.Error(),
	}).Warn("all candidates failed")
	return nil, fmt.Errorf("%s: %w: last attempt: %v", r.capability, ErrModuleNotFound, lastErr)
}

// Names lists the registered implementation names in attempt order,
// priority-zero entries included.
func (r *Registry[O]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Name
	}
	return names
}

// Len reports the number of registered implementations.
func (r *Registry[O]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
