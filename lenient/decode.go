package lenient

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
)

var (
	timeType    = reflect.TypeOf(Time{})
	stdTimeType = reflect.TypeOf(time.Time{})
)

// Decode copies free-form data, typically a map[string]any taken from a
// response, into out using the `json` field tags. Scalars are converted
// weakly, so "42" fills an int and a lone value fills a slice.
func Decode(input any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			timeHook,
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("lenient.Decode: %w", err)
	}
	return nil
}

// timeHook converts strings, numbers and time.Time into Time or time.Time.
func timeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != timeType && to != stdTimeType {
		return data, nil
	}

	var t time.Time
	switch v := data.(type) {
	case nil:
	case time.Time:
		t = v
	case Time:
		t = v.Time
	case string:
		parsed, err := ParseTime(v)
		if err != nil {
			return nil, err
		}
		t = parsed
	case float64:
		parsed, err := ParseTime(strconv.FormatFloat(v, 'f', -1, 64))
		if err != nil {
			return nil, err
		}
		t = parsed
	case int:
		t = time.Unix(int64(v), 0).UTC()
	case int64:
		t = time.Unix(v, 0).UTC()
	default:
		return data, nil
	}

	if to == timeType {
		return Time{Time: t}, nil
	}
	return t, nil
}
