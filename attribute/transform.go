package attribute

import (
	"github.com/dustin/go-humanize"
)

// Transformer maps a raw value to the value to display. Returning false
// renders the attribute as unresolved.
type Transformer func(Value) (Value, bool)

// MemoryBytes formats an integer byte count in binary units (KiB, MiB, ...).
func MemoryBytes(v Value) (Value, bool) {
	n, ok := v.AsInt()
	if !ok || n < 0 {
		return Absent(), false
	}
	return String(humanize.IBytes(uint64(n))), true
}

// FileBytes formats an integer byte count in decimal units (kB, MB, ...).
func FileBytes(v Value) (Value, bool) {
	n, ok := v.AsInt()
	if !ok || n < 0 {
		return Absent(), false
	}
	return String(humanize.Bytes(uint64(n))), true
}

// Percent formats a 0..1 float as a percentage.
func Percent(v Value) (Value, bool) {
	f, ok := v.AsFloat()
	if !ok {
		return Absent(), false
	}
	return String(humanize.FtoaWithDigits(f*100, 1) + "%"), true
}
