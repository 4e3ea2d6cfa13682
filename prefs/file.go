package prefs

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/st-keller/inspection/errors"
)

// Titles may contain dots and spaces, so keys use a delimiter titles never
// contain in practice.
const (
	delim  = "/"
	prefix = "expanded" + delim
)

// FileStore keeps preferences in a YAML file:
//
//	expanded:
//	  General: true
//	  States: false
//
// Only user-set values are written; defaults live in memory.
type FileStore struct {
	mu       sync.Mutex
	path     string
	defaults *koanf.Koanf
	saved    *koanf.Koanf
}

// OpenFile loads path if it exists. The file is created on first write.
func OpenFile(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New(errors.ErrInvalidInput, "preferences path required")
	}

	s := &FileStore{
		path:     path,
		defaults: koanf.New(delim),
		saved:    koanf.New(delim),
	}

	if _, err := os.Stat(path); err == nil {
		if err := s.saved.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, errors.ErrPrefsRead, "loading preferences from %s", path)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, errors.ErrPrefsOpen, "stat %s", path)
	}

	return s, nil
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Expanded(title string) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := prefix + title
	if s.saved.Exists(key) {
		return s.saved.Bool(key), true
	}
	if s.defaults.Exists(key) {
		return s.defaults.Bool(key), true
	}
	return false, false
}

func (s *FileStore) SetExpanded(title string, expanded bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.saved.Set(prefix+title, expanded); err != nil {
		return errors.Wrapf(err, errors.ErrPrefsWrite, "setting %q", title)
	}
	return s.flush()
}

func (s *FileStore) RegisterDefaults(defaults map[string]bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := make(map[string]interface{})
	for t, v := range defaults {
		if !s.defaults.Exists(prefix + t) {
			fresh[prefix+t] = v
		}
	}
	if len(fresh) == 0 {
		return nil
	}
	if err := s.defaults.Load(confmap.Provider(fresh, delim), nil); err != nil {
		return errors.Wrap(err, errors.ErrPrefsWrite, "registering defaults")
	}
	return nil
}

func (s *FileStore) All() (map[string]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]bool)
	for t, v := range s.defaults.BoolMap("expanded") {
		out[t] = v
	}
	for t, v := range s.saved.BoolMap("expanded") {
		out[t] = v
	}
	return out, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) flush() error {
	data, err := s.saved.Marshal(yaml.Parser())
	if err != nil {
		return errors.Wrap(err, errors.ErrPrefsWrite, "encoding preferences")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return errors.Wrapf(err, errors.ErrPrefsWrite, "creating %s", filepath.Dir(s.path))
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return errors.Wrapf(err, errors.ErrPrefsWrite, "writing %s", s.path)
	}
	return nil
}
