package attribute

import (
	"sort"
	"strings"
)

// EnumTable maps raw integer values to human-readable descriptions.
type EnumTable map[int]string

// Describe returns the description for raw.
func (t EnumTable) Describe(raw int) (string, bool) {
	desc, ok := t[raw]
	return desc, ok
}

// Lookup is the reverse of Describe; matching is case-insensitive.
func (t EnumTable) Lookup(desc string) (int, bool) {
	for raw, d := range t {
		if strings.EqualFold(d, desc) {
			return raw, true
		}
	}
	return 0, false
}

// Values returns the raw values in ascending order.
func (t EnumTable) Values() []int {
	raws := make([]int, 0, len(t))
	for raw := range t {
		raws = append(raws, raw)
	}
	sort.Ints(raws)
	return raws
}

// EnumDescriber is implemented by enumerated types that carry their own
// description table.
type EnumDescriber interface {
	EnumTable() EnumTable
}
