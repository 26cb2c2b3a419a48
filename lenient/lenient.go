// Package lenient provides JSON types that tolerate the loose encodings
// found in real API responses: null for scalars, numbers sent as strings,
// single objects where a list is documented, and assorted date layouts.
//
// Every type decodes null into its zero value, so a DTO built from these
// types never needs pointer fields just to survive a null.
package lenient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var null = []byte("null")

// scalar returns the raw text of a JSON scalar with surrounding quotes
// removed. ok is false for null and the empty string.
func scalar(data []byte) (text string, quoted, ok bool, err error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, null) {
		return "", false, false, nil
	}
	if data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return "", true, false, err
		}
		text = strings.TrimSpace(text)
		return text, true, text != "", nil
	}
	if data[0] == '{' || data[0] == '[' {
		return "", false, false, fmt.Errorf("unexpected JSON %s", kind(data[0]))
	}
	return string(data), false, true, nil
}

func kind(b byte) string {
	if b == '{' {
		return "object"
	}
	return "array"
}

// Bool is a boolean that also accepts "true", "false", "1", "0", "" and null.
type Bool bool

func (b *Bool) UnmarshalJSON(data []byte) error {
	text, _, ok, err := scalar(data)
	if err != nil {
		return fmt.Errorf("lenient.Bool: %w", err)
	}
	if !ok {
		*b = false
		return nil
	}
	v, err := strconv.ParseBool(text)
	if err != nil {
		return fmt.Errorf("lenient.Bool: invalid value %q", text)
	}
	*b = Bool(v)
	return nil
}

// Int64 is an integer that also accepts numeric strings, "" and null.
type Int64 int64

func (n *Int64) UnmarshalJSON(data []byte) error {
	text, _, ok, err := scalar(data)
	if err != nil {
		return fmt.Errorf("lenient.Int64: %w", err)
	}
	if !ok {
		*n = 0
		return nil
	}
	v, err := parseInt(text)
	if err != nil {
		return fmt.Errorf("lenient.Int64: %w", err)
	}
	*n = Int64(v)
	return nil
}

// parseInt accepts decimal integers and whole numbers written as floats,
// such as "3.0" or "1e3". Values outside the int64 range are errors.
func parseInt(text string) (int64, error) {
	v, err := strconv.ParseInt(text, 10, 64)
	if err == nil {
		return v, nil
	}
	if !strings.ContainsAny(text, ".eE") {
		return 0, fmt.Errorf("invalid integer %q: %w", text, err)
	}
	f, err := strconv.ParseFloat(text, 64)
	// -2^63 is exact as a float64; 2^63 is the first value past MaxInt64.
	if err != nil || f != math.Trunc(f) || f >= 0x1p63 || f < -0x1p63 {
		return 0, fmt.Errorf("invalid integer %q", text)
	}
	return int64(f), nil
}

// Float64 is a number that also accepts numeric strings, "" and null.
type Float64 float64

func (f *Float64) UnmarshalJSON(data []byte) error {
	text, _, ok, err := scalar(data)
	if err != nil {
		return fmt.Errorf("lenient.Float64: %w", err)
	}
	if !ok {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("lenient.Float64: invalid number %q", text)
	}
	*f = Float64(v)
	return nil
}

// String accepts strings, numbers and booleans, and maps null to "".
type String string

func (s *String) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, null) {
		*s = ""
		return nil
	}
	switch data[0] {
	case '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("lenient.String: %w", err)
		}
		*s = String(v)
	case '{', '[':
		return fmt.Errorf("lenient.String: unexpected JSON %s", kind(data[0]))
	default:
		*s = String(data)
	}
	return nil
}

func (s String) String() string {
	return string(s)
}

// Time accepts RFC 3339, any layout understood by dateparse, Unix seconds
// as a number or string, "" and null. The zero Time marshals as null.
type Time struct {
	time.Time
}

// NewTime wraps t.
func NewTime(t time.Time) Time {
	return Time{Time: t}
}

func (t *Time) UnmarshalJSON(data []byte) error {
	text, quoted, ok, err := scalar(data)
	if err != nil {
		return fmt.Errorf("lenient.Time: %w", err)
	}
	if !ok {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTime(text)
	if err != nil {
		if !quoted {
			return fmt.Errorf("lenient.Time: invalid timestamp %s", text)
		}
		return fmt.Errorf("lenient.Time: %w", err)
	}
	t.Time = parsed
	return nil
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return null, nil
	}
	return []byte(strconv.Quote(t.Time.Format(time.RFC3339Nano))), nil
}

// ParseTime parses the textual forms accepted by Time. An empty string
// yields the zero time.
func ParseTime(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, nil
	}
	if secs, err := strconv.ParseInt(text, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		sec, frac := math.Modf(f)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, text); err == nil {
		return t, nil
	}
	t, err := dateparse.ParseIn(text, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized time %q", text)
	}
	return t, nil
}

// List is a slice that decodes null as empty and a lone object as a
// one-element list. It always marshals as an array.
type List[T any] []T

func (l *List[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, null) {
		*l = List[T]{}
		return nil
	}
	if data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		if items == nil {
			items = []T{}
		}
		*l = items
		return nil
	}
	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return err
	}
	*l = List[T]{item}
	return nil
}

func (l List[T]) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]T(l))
}
