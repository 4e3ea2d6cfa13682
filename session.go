package inspection

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/st-keller/inspection/attribute"
	"github.com/st-keller/inspection/coordinator"
	"github.com/st-keller/inspection/errors"
	"github.com/st-keller/inspection/group"
	"github.com/st-keller/inspection/snapshot"
)

// Session is the inspection of one object. Its groups are fixed when the
// session starts; values are resolved each time they are read.
//
// Snapshot, Apply and Edit may be called from several goroutines. Groups,
// Group and Coordinator hand out the underlying attributes; reading them
// concurrently with an edit is the caller's responsibility.
type Session struct {
	mu  sync.Mutex
	c   *coordinator.Coordinator
	log zerolog.Logger
}

// Target returns the inspected object.
func (s *Session) Target() any { return s.c.Target() }

// Coordinator returns the session's coordinator.
func (s *Session) Coordinator() *coordinator.Coordinator { return s.c }

// Groups returns the session's groups in display order.
func (s *Session) Groups() []*group.Group { return s.c.Groups() }

// Group returns the group with key.
func (s *Session) Group(key group.Key) (*group.Group, bool) { return s.c.Group(key) }

// Snapshot resolves every attribute now.
func (s *Session) Snapshot() snapshot.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot.Take(s.c)
}

// Apply coerces input to the kind of the attribute's current value and
// writes it through the attribute's setter.
func (s *Session) Apply(key string, index int, input string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.c.Group(group.Key(key))
	if !ok {
		return errors.Newf(errors.ErrNotFound, "no group %q", key)
	}
	a, ok := g.At(index)
	if !ok {
		return errors.Newf(errors.ErrNotFound, "no attribute %d in group %q", index, key)
	}
	if !a.Editable() {
		return errors.Newf(errors.ErrNotWritable, "%q is read-only", a.Title())
	}

	current, _ := a.Value()
	v, err := attribute.Coerce(input, current)
	if err != nil {
		return err
	}
	return a.Apply(v)
}

// Edit is Apply for interactive hosts: a failed write is logged and
// dropped, and the displayed value stays as it was.
func (s *Session) Edit(key string, index int, input string) bool {
	if err := s.Apply(key, index, input); err != nil {
		s.log.Warn().Err(err).
			Str("group", key).
			Int("index", index).
			Msg("Edit rejected")
		return false
	}
	s.log.Debug().Str("group", key).Int("index", index).Msg("Edit applied")
	return true
}
