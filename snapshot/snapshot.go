// Package snapshot resolves an inspection session into plain, serializable
// data with a content checksum.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/st-keller/inspection/attribute"
	"github.com/st-keller/inspection/coordinator"
)

// Placeholder is displayed for values that could not be resolved.
const Placeholder = "-"

// Snapshot is the resolved state of one session at one point in time.
type Snapshot struct {
	Target   string    `json:"target"`
	Checksum string    `json:"checksum"`
	Sections []Section `json:"sections"`
}

// Section is one group.
type Section struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Expanded bool   `json:"expanded"`
	Rows     []Row  `json:"rows"`
}

// Row is one attribute.
type Row struct {
	Title    string   `json:"title"`
	Detail   string   `json:"detail,omitempty"`
	Path     string   `json:"path,omitempty"`
	Variant  string   `json:"variant"`
	Kind     string   `json:"kind"`
	Value    string   `json:"value"`
	Present  bool     `json:"present"`
	Editable bool     `json:"editable"`
	Preview  *Preview `json:"preview,omitempty"`
}

// Preview carries an image payload.
type Preview struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
	Data   []byte `json:"data,omitempty"`
}

// Take resolves every attribute of c now.
func Take(c *coordinator.Coordinator) Snapshot {
	snap := Snapshot{
		Target:   fmt.Sprintf("%T", c.Target()),
		Sections: make([]Section, 0, c.Len()),
	}

	for _, g := range c.Groups() {
		section := Section{
			Key:      string(g.Key),
			Title:    g.Title,
			Expanded: g.ExpandedByDefault,
			Rows:     make([]Row, 0, g.Len()),
		}
		for _, a := range g.Attributes() {
			section.Rows = append(section.Rows, rowFor(a))
		}
		snap.Sections = append(snap.Sections, section)
	}

	snap.Checksum = Checksum(snap.Sections)
	return snap
}

// Checksum returns the SHA-256 of the sections' JSON encoding.
func Checksum(sections []Section) string {
	data, err := json.Marshal(sections)
	if err != nil {
		return ""
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Section returns the section with key.
func (s Snapshot) Section(key string) (Section, bool) {
	for _, sec := range s.Sections {
		if sec.Key == key {
			return sec, true
		}
	}
	return Section{}, false
}

func rowFor(a attribute.Attribute) Row {
	row := Row{
		Title:    a.Title(),
		Detail:   a.Detail(),
		Path:     a.Path(),
		Variant:  string(a.Variant()),
		Editable: a.Editable(),
	}

	v, ok := a.Value()
	row.Kind = v.Kind().String()
	if !ok || v.IsAbsent() {
		row.Value = Placeholder
		return row
	}

	row.Present = true
	row.Value = v.String()
	if img, isImage := v.AsImage(); isImage {
		row.Preview = &Preview{Width: img.Width, Height: img.Height, Format: img.Format, Data: img.Data}
	}
	return row
}
