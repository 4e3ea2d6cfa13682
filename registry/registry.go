// Package registry maps type identity to the contributors that describe
// values of that type, and runs them as a chain from the most specific level
// up to the root.
package registry

import (
	"reflect"
	"sync"

	"github.com/rs/zerolog"

	"github.com/st-keller/inspection/coordinator"
	"github.com/st-keller/inspection/errors"
)

// Inspectable is implemented by types that describe themselves. It is used
// for types without a registered level; the method is responsible for
// calling the methods of the types it embeds.
type Inspectable interface {
	PrepareInspection(c *coordinator.Coordinator)
}

// Contributor appends a level's attributes for target.
type Contributor func(target any, c *coordinator.Coordinator)

// level is one entry of the capability table.
type level struct {
	contributors []Contributor
	parent       reflect.Type
	up           func(any) any // projects a value of this level to parent
}

// Registry is the capability table. Registration is safe for concurrent
// use; Prepare runs synchronously on the caller's goroutine.
type Registry struct {
	mu     sync.RWMutex
	levels map[reflect.Type]*level
	root   []Contributor
	log    zerolog.Logger
}

// New creates an empty Registry.
func New(logger ...zerolog.Logger) *Registry {
	r := &Registry{
		levels: make(map[reflect.Type]*level),
		log:    zerolog.Nop(),
	}
	if len(logger) > 0 {
		r.log = logger[0]
	}
	return r
}

// Describe adds fn as a contributor for values of type T. Several
// contributors per type run in registration order.
func Describe[T any](r *Registry, fn func(T, *coordinator.Coordinator)) error {
	if fn == nil {
		return errors.New(errors.ErrContributorInvalid, "contributor required")
	}
	t := reflect.TypeFor[T]()
	return r.add(t, func(target any, c *coordinator.Coordinator) {
		fn(target.(T), c)
	})
}

// Inherit declares that, after T's own contributors, the chain continues at
// Base with the value projected by up.
func Inherit[T, Base any](r *Registry, up func(T) Base) error {
	if up == nil {
		return errors.New(errors.ErrHierarchyInvalid, "projection required")
	}
	t, base := reflect.TypeFor[T](), reflect.TypeFor[Base]()
	if t == base {
		return errors.Newf(errors.ErrHierarchyInvalid, "%s cannot inherit from itself", t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	l := r.levelFor(t)
	if l.parent != nil {
		return errors.Newf(errors.ErrAlreadyExists, "%s already inherits from %s", t, l.parent)
	}
	l.parent = base
	l.up = func(v any) any { return up(v.(T)) }
	return nil
}

// Root adds a contributor that runs at the end of every chain.
func (r *Registry) Root(fn Contributor) error {
	if fn == nil {
		return errors.New(errors.ErrContributorInvalid, "contributor required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.root = append(r.root, fn)
	return nil
}

// MustDescribe is Describe that panics on error, for use in init code.
func MustDescribe[T any](r *Registry, fn func(T, *coordinator.Coordinator)) {
	if err := Describe(r, fn); err != nil {
		panic(err)
	}
}

// Has reports whether values of t have a registered level.
func (r *Registry) Has(t reflect.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.levels[t]
	return ok
}

// Count returns the number of registered levels.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.levels)
}

// Chain returns the types visited for target, most specific first.
func (r *Registry) Chain(target any) []reflect.Type {
	var chain []reflect.Type
	r.walk(target, func(t reflect.Type, _ any, _ []Contributor) {
		chain = append(chain, t)
	})
	return chain
}

// Prepare runs target's contribution chain against c: each level's
// contributors in registration order, then its parent level, then the
// root contributors.
func (r *Registry) Prepare(target any, c *coordinator.Coordinator) {
	if target == nil {
		return
	}

	r.walk(target, func(t reflect.Type, v any, contributors []Contributor) {
		if contributors == nil {
			if insp, ok := v.(Inspectable); ok {
				r.log.Trace().Str("type", t.String()).Msg("Self-describing level")
				insp.PrepareInspection(c)
			}
			return
		}
		r.log.Trace().Str("type", t.String()).Int("contributors", len(contributors)).Msg("Registered level")
		for _, fn := range contributors {
			fn(v, c)
		}
	})

	r.mu.RLock()
	root := append([]Contributor(nil), r.root...)
	r.mu.RUnlock()
	for _, fn := range root {
		fn(target, c)
	}
}

// walk visits each level of target's chain. The first level is keyed by
// the dynamic type of target, later levels by the declared parent type.
// visit receives nil contributors for an unregistered type.
func (r *Registry) walk(target any, visit func(t reflect.Type, v any, contributors []Contributor)) {
	if target == nil {
		return
	}

	seen := make(map[reflect.Type]bool)
	v, t := target, reflect.TypeOf(target)
	for v != nil {
		if seen[t] {
			r.log.Warn().Str("type", t.String()).Msg("Inheritance cycle, stopping chain")
			return
		}
		seen[t] = true

		r.mu.RLock()
		l, ok := r.levels[t]
		var contributors []Contributor
		var parent reflect.Type
		var up func(any) any
		if ok {
			contributors = append([]Contributor{}, l.contributors...)
			parent, up = l.parent, l.up
		}
		r.mu.RUnlock()

		visit(t, v, contributors)
		if up == nil {
			return
		}
		v, t = up(v), parent
	}
}

func (r *Registry) add(t reflect.Type, fn Contributor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.levelFor(t)
	l.contributors = append(l.contributors, fn)
	return nil
}

func (r *Registry) levelFor(t reflect.Type) *level {
	l, ok := r.levels[t]
	if !ok {
		l = &level{}
		r.levels[t] = l
	}
	return l
}
