package inspection_test

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inspection "github.com/st-keller/inspection"
	"github.com/st-keller/inspection/attribute"
	"github.com/st-keller/inspection/config"
	"github.com/st-keller/inspection/coordinator"
	"github.com/st-keller/inspection/errors"
	"github.com/st-keller/inspection/group"
	"github.com/st-keller/inspection/prefs"
	"github.com/st-keller/inspection/registry"
	"github.com/st-keller/inspection/standard"
)

type view struct {
	alpha  float64
	hidden bool
	thumb  attribute.Image
}

type label struct {
	view
	text string
	mode int
}

var labelModes = attribute.EnumTable{0: "Plain", 1: "Bold"}

func describeView(v *view, c *coordinator.Coordinator) {
	c.AppendPreview(v.thumb)
	c.AppendDynamic(group.Appearance,
		attribute.Prop("alpha", attribute.FloatOf(func() float64 { return v.alpha })).
			Writable(func(x attribute.Value) error {
				f, ok := x.AsFloat()
				if !ok || f < 0 || f > 1 {
					return errors.New(errors.ErrInvalidInput, "alpha must be within 0..1")
				}
				v.alpha = f
				return nil
			}),
	)
	c.AppendDynamic(group.States,
		attribute.Prop("hidden", attribute.BoolOf(func() bool { return v.hidden })).
			Writable(func(x attribute.Value) error {
				v.hidden, _ = x.AsBool()
				return nil
			}),
	)
}

func describeLabel(l *label, c *coordinator.Coordinator) {
	c.AppendDynamic(group.General,
		attribute.Prop("text", attribute.StringOf(func() string { return l.text })).
			Writable(func(x attribute.Value) error {
				l.text, _ = x.AsString()
				return nil
			}),
	)
	c.AppendEnum(group.General, labelModes,
		attribute.Prop("mode", attribute.IntOf(func() int { return l.mode })).
			Writable(func(x attribute.Value) error {
				n, _ := x.AsInt()
				l.mode = int(n)
				return nil
			}),
	)
}

func newInspector(t *testing.T) *inspection.Inspector {
	t.Helper()
	cfg := config.Default()
	cfg.Prefs.Backend = config.BackendMemory
	in, err := inspection.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = in.Close() })

	r := in.Registry()
	require.NoError(t, registry.Describe(r, describeView))
	require.NoError(t, registry.Describe(r, describeLabel))
	require.NoError(t, registry.Inherit(r, func(l *label) *view { return &l.view }))
	return in
}

func newLabel() *label {
	return &label{
		view: view{alpha: 1, thumb: attribute.Image{Width: 4, Height: 2, Format: "png", Data: []byte{1}}},
		text: "hello",
	}
}

func TestInspect_ChainOrder(t *testing.T) {
	in := newInspector(t)
	s := in.Inspect(newLabel())

	var keys []group.Key
	for _, g := range s.Groups() {
		keys = append(keys, g.Key)
	}
	assert.Equal(t, []group.Key{group.Preview, group.General, group.States, group.Appearance}, keys)

	general, ok := s.Group(group.General)
	require.True(t, ok)
	var titles []string
	for _, a := range general.Attributes() {
		titles = append(titles, a.Title())
	}
	// label level first, then the root level
	assert.Equal(t, []string{"Text", "Mode", "Type"}, titles)
}

func TestInspect_LiveValues(t *testing.T) {
	in := newInspector(t)
	l := newLabel()
	s := in.Inspect(l)

	first := s.Snapshot()
	l.text = "changed"
	second := s.Snapshot()

	assert.NotEqual(t, first.Checksum, second.Checksum)
	sec, ok := second.Section(string(group.General))
	require.True(t, ok)
	assert.Equal(t, "changed", sec.Rows[0].Value)
}

func TestSession_Edit(t *testing.T) {
	in := newInspector(t)
	l := newLabel()
	s := in.Inspect(l)

	assert.True(t, s.Edit("general", 0, "world"))
	assert.Equal(t, "world", l.text)

	assert.True(t, s.Edit("general", 1, "bold"))
	assert.Equal(t, 1, l.mode)

	assert.True(t, s.Edit("appearance", 0, "0.5"))
	assert.Equal(t, 0.5, l.alpha)

	assert.True(t, s.Edit("states", 0, "yes"))
	assert.True(t, l.hidden)
}

func TestSession_EditFailuresLeaveValue(t *testing.T) {
	in := newInspector(t)
	l := newLabel()
	s := in.Inspect(l)

	tests := []struct {
		name  string
		key   string
		index int
		input string
		code  errors.ErrorCode
	}{
		{"setter rejects", "appearance", 0, "2", errors.ErrWrite},
		{"not a float", "appearance", 0, "opaque", errors.ErrCoercion},
		{"unknown enum", "general", 1, "italic", errors.ErrCoercion},
		{"read only", "general", 2, "x", errors.ErrNotWritable},
		{"no group", "layout", 0, "x", errors.ErrNotFound},
		{"no index", "general", 9, "x", errors.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Apply(tt.key, tt.index, tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetErrorCode(err))
			assert.False(t, s.Edit(tt.key, tt.index, tt.input))
		})
	}
	assert.Equal(t, 1.0, l.alpha)
	assert.Equal(t, 0, l.mode)
}

func TestSession_ConcurrentSnapshotAndEdit(t *testing.T) {
	in := newInspector(t)
	l := newLabel()
	s := in.Inspect(l)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			assert.True(t, s.Edit("general", 0, fmt.Sprintf("text %d", i)))
		}(i)
		go func() {
			defer wg.Done()
			snap := s.Snapshot()
			assert.NotEmpty(t, snap.Checksum)
		}()
	}
	wg.Wait()

	assert.Contains(t, l.text, "text ")
}

func TestInspect_DegeneratePreviewSkipped(t *testing.T) {
	in := newInspector(t)
	l := newLabel()
	l.thumb = attribute.Image{Width: 0, Height: 10}

	s := in.Inspect(l)
	_, ok := s.Group(group.Preview)
	assert.False(t, ok)
}

func TestSetExpanded_AppliesToLaterSessions(t *testing.T) {
	in := newInspector(t)

	before := in.Inspect(newLabel())
	states, _ := before.Group(group.States)
	assert.False(t, states.ExpandedByDefault)

	require.NoError(t, in.SetExpanded("States", true))
	assert.False(t, states.ExpandedByDefault, "existing session keeps its state")

	after := in.Inspect(newLabel())
	states, _ = after.Group(group.States)
	assert.True(t, states.ExpandedByDefault)

	assert.Error(t, in.SetExpanded("", true))
}

func TestNew_Stores(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		backend string
		path    string
	}{
		{config.BackendMemory, ""},
		{config.BackendFile, filepath.Join(dir, "prefs.yaml")},
		{config.BackendSQLite, filepath.Join(dir, "prefs.db")},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := config.Default()
			cfg.Prefs = config.PrefsConfig{Backend: tt.backend, Path: tt.path}
			in, err := inspection.New(cfg)
			require.NoError(t, err)
			defer in.Close()

			all, err := in.Prefs().All()
			require.NoError(t, err)
			assert.Equal(t, prefs.DefaultExpansion(), all)
		})
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Prefs.Backend = "etcd"
	_, err := inspection.New(cfg)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid))
}

func TestNew_WithStore(t *testing.T) {
	store := prefs.NewMemoryStore()
	require.NoError(t, store.SetExpanded("General", false))

	in, err := inspection.New(config.Default(), inspection.WithStore(store))
	require.NoError(t, err)
	defer in.Close()

	s := in.Inspect(standard.Text("abc"))
	general, ok := s.Group(group.General)
	require.True(t, ok)
	assert.False(t, general.ExpandedByDefault)
}

func TestNew_SharedRegistry(t *testing.T) {
	cfg := config.Default()
	cfg.Prefs.Backend = config.BackendMemory
	r := registry.New()

	first, err := inspection.New(cfg, inspection.WithRegistry(r))
	require.NoError(t, err)
	defer first.Close()
	second, err := inspection.New(cfg, inspection.WithRegistry(r))
	require.NoError(t, err)
	defer second.Close()

	for _, in := range []*inspection.Inspector{first, second} {
		general, ok := in.Inspect(standard.Text("hi")).Group(group.General)
		require.True(t, ok)
		assert.Equal(t, 5, general.Len(), "four text rows and the type row")
	}
}

func TestPublish(t *testing.T) {
	in := newInspector(t)
	l := newLabel()
	in.Publish("label", l)
	in.Publish("text", standard.Text("a b"))

	assert.Equal(t, []string{"label", "text"}, in.Names())

	snap, ok := in.Snapshot("label")
	require.True(t, ok)
	assert.Equal(t, "*inspection_test.label", snap.Target)

	require.NoError(t, in.Edit("label", "general", 0, "via edit"))
	assert.Equal(t, "via edit", l.text)

	err := in.Edit("missing", "general", 0, "x")
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))

	_, ok = in.Snapshot("missing")
	assert.False(t, ok)
}
