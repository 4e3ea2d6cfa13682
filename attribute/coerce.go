package attribute

import (
	"strconv"
	"strings"
	"time"

	"github.com/st-keller/inspection/errors"
)

// Coerce converts edit input to the kind of like, the attribute's current
// value. An absent like yields a string value.
func Coerce(input string, like Value) (Value, error) {
	in := strings.TrimSpace(input)
	switch like.Kind() {
	case KindAbsent, KindString:
		return String(input), nil
	case KindInt:
		n, err := strconv.ParseInt(in, 10, 64)
		if err != nil {
			// Enum rows display descriptions; let the enum resolve names.
			return String(in), nil
		}
		return Int(n), nil
	case KindFloat:
		f, err := strconv.ParseFloat(in, 64)
		if err != nil {
			return Absent(), coerceErr(input, like, err)
		}
		return Float(f), nil
	case KindBool:
		b, err := parseBool(in)
		if err != nil {
			return Absent(), coerceErr(input, like, err)
		}
		return Bool(b), nil
	case KindColor:
		c, err := ParseColor(in)
		if err != nil {
			return Absent(), coerceErr(input, like, err)
		}
		return ColorValue(c), nil
	case KindTime:
		t, err := time.Parse(time.RFC3339, in)
		if err != nil {
			return Absent(), coerceErr(input, like, err)
		}
		return TimeValue(t), nil
	default:
		return Absent(), errors.Newf(errors.ErrCoercion, "%s values cannot be edited", like.Kind())
	}
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "on":
		return true, nil
	case "no", "off":
		return false, nil
	}
	return strconv.ParseBool(s)
}

func coerceErr(input string, like Value, err error) error {
	return errors.Wrapf(err, errors.ErrCoercion, "cannot read %q as %s", input, like.Kind()).
		WithDetail("input", input)
}
