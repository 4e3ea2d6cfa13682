package standard

import (
	"strings"
	"unicode/utf8"

	"github.com/st-keller/inspection/attribute"
	"github.com/st-keller/inspection/coordinator"
	"github.com/st-keller/inspection/group"
)

// Text is inspectable text. Plain strings are described the same way.
type Text string

func (t Text) Length() int { return len(t) }
func (t Text) Runes() int  { return utf8.RuneCountInString(string(t)) }
func (t Text) Words() int  { return len(strings.Fields(string(t))) }

func (t Text) Lines() int {
	if t == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(string(t), "\n"), "\n") + 1
}

func (t Text) PrepareInspection(c *coordinator.Coordinator) {
	c.AppendDynamic(group.General,
		attribute.Prop("length", attribute.IntOf(t.Length)),
		attribute.Prop("runes", attribute.IntOf(t.Runes)),
		attribute.Prop("lines", attribute.IntOf(t.Lines)),
		attribute.Prop("words", attribute.IntOf(t.Words)),
	)
}
