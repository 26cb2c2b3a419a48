package rest

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Params builds query strings and form bodies, skipping zero values the way
// optional parameters are omitted on the wire.
type Params url.Values

// NewParams returns an empty Params.
func NewParams() Params {
	return make(Params)
}

// Set sets key to value unless value is empty.
func (p Params) Set(key, value string) Params {
	if value != "" {
		url.Values(p).Set(key, value)
	}
	return p
}

// Add appends every non-empty value under key.
func (p Params) Add(key string, values ...string) Params {
	for _, v := range values {
		if v != "" {
			url.Values(p).Add(key, v)
		}
	}
	return p
}

// SetInt sets key unless n is zero.
func (p Params) SetInt(key string, n int64) Params {
	if n != 0 {
		url.Values(p).Set(key, strconv.FormatInt(n, 10))
	}
	return p
}

// SetBool sets key when b is non-nil.
func (p Params) SetBool(key string, b *bool) Params {
	if b != nil {
		url.Values(p).Set(key, strconv.FormatBool(*b))
	}
	return p
}

// SetTime sets key to t formatted with layout unless t is zero.
func (p Params) SetTime(key string, t time.Time, layout string) Params {
	if !t.IsZero() {
		url.Values(p).Set(key, t.Format(layout))
	}
	return p
}

// SetMap sets bracketed keys, e.g. metadata[plan]=pro.
func (p Params) SetMap(prefix string, m map[string]string) Params {
	for k, v := range m {
		url.Values(p).Set(prefix+"["+k+"]", v)
	}
	return p
}

// Join sets key to the comma-separated values unless there are none.
func (p Params) Join(key string, values []string) Params {
	if len(values) > 0 {
		url.Values(p).Set(key, strings.Join(values, ","))
	}
	return p
}

// Values returns p as url.Values.
func (p Params) Values() url.Values {
	return url.Values(p)
}

// Expand substitutes {name} placeholders in a path template with
// path-escaped values.
func Expand(template string, params map[string]string) string {
	if len(params) == 0 {
		return template
	}
	var b strings.Builder
	for {
		start := strings.IndexByte(template, '{')
		if start < 0 {
			break
		}
		end := strings.IndexByte(template[start:], '}')
		if end < 0 {
			break
		}
		end += start
		name := template[start+1 : end]
		b.WriteString(template[:start])
		if v, ok := params[name]; ok {
			b.WriteString(url.PathEscape(v))
		} else {
			b.WriteString(template[start : end+1])
		}
		template = template[end+1:]
	}
	b.WriteString(template)
	return b.String()
}
