// Package report renders snapshots for the terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/st-keller/inspection/errors"
	"github.com/st-keller/inspection/snapshot"
)

// Renderer writes snapshots as styled text.
type Renderer struct {
	styles  Styles
	showAll bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithStyles replaces the default styles.
func WithStyles(s Styles) Option {
	return func(r *Renderer) { r.styles = s }
}

// ShowCollapsed renders the rows of collapsed groups too.
func ShowCollapsed(show bool) Option {
	return func(r *Renderer) { r.showAll = show }
}

// New creates a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{styles: DefaultStyles()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render formats snap. Collapsed groups show their header only unless
// ShowCollapsed is set.
func (r *Renderer) Render(snap snapshot.Snapshot) string {
	var b strings.Builder
	b.WriteString(r.styles.Target.Render(snap.Target))
	b.WriteString("\n")

	for _, sec := range snap.Sections {
		marker := "▾"
		if !sec.Expanded {
			marker = "▸"
		}
		b.WriteString(r.styles.Header.Render(fmt.Sprintf("%s %s (%d)", marker, sec.Title, len(sec.Rows))))
		b.WriteString("\n")
		if !sec.Expanded && !r.showAll {
			continue
		}

		width := 0
		for _, row := range sec.Rows {
			width = max(width, lipgloss.Width(row.Title))
		}
		for _, row := range sec.Rows {
			b.WriteString(r.row(row, width))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (r *Renderer) row(row snapshot.Row, width int) string {
	title := r.styles.Title.Render(row.Title) + strings.Repeat(" ", width-lipgloss.Width(row.Title))

	value := r.styles.Value.Render(row.Value)
	if !row.Present {
		value = r.styles.Absent.Render(row.Value)
	}
	if row.Editable {
		value += " " + r.styles.Editable.Render("✎")
	}

	line := title + "  " + value
	if row.Detail != "" {
		line += "  " + r.styles.Detail.Render(row.Detail)
	}
	return line
}

// Write renders snap to w.
func (r *Renderer) Write(w io.Writer, snap snapshot.Snapshot) error {
	if _, err := io.WriteString(w, r.Render(snap)); err != nil {
		return errors.Wrap(err, errors.ErrInternal, "writing report")
	}
	return nil
}

// WriteJSON writes snap as indented JSON.
func WriteJSON(w io.Writer, snap snapshot.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return errors.Wrap(err, errors.ErrInternal, "encoding snapshot")
	}
	return nil
}
