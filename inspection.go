// Package inspection lets runtime objects declare which of their facts are
// inspectable, and resolves them live into ordered, named groups.
//
// An Inspector owns the type registry and the persisted group expansion
// preferences. Each call to Inspect starts a Session for one object:
//
//	in, err := inspection.New(config.Default())
//	if err != nil { ... }
//	defer in.Close()
//
//	s := in.Inspect(standard.AutoDetect())
//	for _, g := range s.Groups() { ... }
//
// Types describe themselves either by implementing registry.Inspectable or
// by registering contributors with registry.Describe on in.Registry().
package inspection

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/st-keller/inspection/config"
	"github.com/st-keller/inspection/coordinator"
	"github.com/st-keller/inspection/errors"
	"github.com/st-keller/inspection/prefs"
	"github.com/st-keller/inspection/registry"
	"github.com/st-keller/inspection/snapshot"
	"github.com/st-keller/inspection/standard"
)

// Inspector creates inspection sessions.
type Inspector struct {
	cfg      config.Config
	registry *registry.Registry
	prefs    prefs.Store
	log      zerolog.Logger

	mu        sync.RWMutex
	published map[string]*Session
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithLogger sets the logger used by the Inspector and its sessions.
func WithLogger(logger zerolog.Logger) Option {
	return func(i *Inspector) { i.log = logger }
}

// WithStore uses store instead of the backend named in the configuration.
// The Inspector takes ownership and closes it.
func WithStore(store prefs.Store) Option {
	return func(i *Inspector) { i.prefs = store }
}

// WithRegistry uses r instead of a fresh registry. Standard contributors
// are still registered into it.
func WithRegistry(r *registry.Registry) Option {
	return func(i *Inspector) { i.registry = r }
}

// New validates cfg, opens the preference store, registers the standard
// contributors and the default group expansion.
func New(cfg config.Config, opts ...Option) (*Inspector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	i := &Inspector{
		cfg:       cfg,
		log:       zerolog.Nop(),
		published: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.registry == nil {
		i.registry = registry.New(i.log.With().Str("component", "registry").Logger())
	}

	if err := standard.Register(i.registry); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "registering standard contributors")
	}

	if i.prefs == nil {
		store, err := OpenStore(cfg.Prefs)
		if err != nil {
			return nil, err
		}
		i.prefs = store
	}
	if err := i.prefs.RegisterDefaults(prefs.DefaultExpansion()); err != nil {
		_ = i.prefs.Close()
		return nil, err
	}

	i.log.Debug().
		Str("prefs_backend", cfg.Prefs.Backend).
		Int("levels", i.registry.Count()).
		Msg("Inspector initialized")
	return i, nil
}

// OpenStore opens the preference store cfg selects.
func OpenStore(cfg config.PrefsConfig) (prefs.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return prefs.NewMemoryStore(), nil
	case config.BackendFile:
		store, err := prefs.OpenFile(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendSQLite:
		store, err := prefs.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, errors.Newf(errors.ErrConfigValid, "unknown prefs backend %q", cfg.Backend)
	}
}

// Registry returns the type registry for custom contributors.
func (i *Inspector) Registry() *registry.Registry { return i.registry }

// Prefs returns the preference store.
func (i *Inspector) Prefs() prefs.Store { return i.prefs }

// Config returns the configuration the Inspector was created with.
func (i *Inspector) Config() config.Config { return i.cfg }

// Host returns a Host configured from the host settings.
func (i *Inspector) Host() *standard.Host {
	return standard.NewHost(i.cfg.Host.SysRoot, i.cfg.Host.StoragePath)
}

// SetExpanded stores the user's expansion preference for a group title.
// Sessions started afterwards pick it up.
func (i *Inspector) SetExpanded(title string, expanded bool) error {
	if title == "" {
		return errors.New(errors.ErrInvalidInput, "group title required")
	}
	return i.prefs.SetExpanded(title, expanded)
}

// Inspect runs the contributor chain for target and returns the session.
func (i *Inspector) Inspect(target any) *Session {
	log := i.log.With().Str("component", "session").Logger()
	c := coordinator.New(target,
		coordinator.WithExpansion(i.prefs),
		coordinator.WithLogger(log),
	)
	i.registry.Prepare(target, c)
	log.Debug().Str("target", c.String()).Msg("Session prepared")
	return &Session{c: c, log: log}
}

// Publish inspects target and makes it available under name to Names,
// Snapshot and Edit. A second Publish with the same name replaces the first.
func (i *Inspector) Publish(name string, target any) *Session {
	s := i.Inspect(target)
	i.mu.Lock()
	i.published[name] = s
	i.mu.Unlock()
	return s
}

// Session returns the published session called name.
func (i *Inspector) Session(name string) (*Session, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	s, ok := i.published[name]
	return s, ok
}

// Names returns the published names, sorted.
func (i *Inspector) Names() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	names := make([]string, 0, len(i.published))
	for n := range i.published {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Snapshot resolves the published session called name.
func (i *Inspector) Snapshot(name string) (snapshot.Snapshot, bool) {
	s, ok := i.Session(name)
	if !ok {
		return snapshot.Snapshot{}, false
	}
	return s.Snapshot(), true
}

// Edit writes to an attribute of the published session called name.
func (i *Inspector) Edit(name, key string, index int, value string) error {
	s, ok := i.Session(name)
	if !ok {
		return errors.Newf(errors.ErrNotFound, "unknown target %q", name)
	}
	return s.Apply(key, index, value)
}

// Close releases the preference store.
func (i *Inspector) Close() error {
	return i.prefs.Close()
}
