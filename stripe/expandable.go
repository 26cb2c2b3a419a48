package stripe

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Expandable is a reference to another object. Stripe sends the ID as a
// string unless the field was listed in expand[], in which case the whole
// object is sent and kept in Object.
type Expandable struct {
	ID     string
	Object json.RawMessage
}

func (e *Expandable) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*e = Expandable{}
		return nil
	case data[0] == '"':
		e.Object = nil
		return json.Unmarshal(data, &e.ID)
	case data[0] == '{':
		var head struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &head); err != nil {
			return err
		}
		e.ID = head.ID
		e.Object = append(json.RawMessage(nil), data...)
		return nil
	}
	return fmt.Errorf("stripe: cannot decode %s as an expandable reference", data)
}

func (e Expandable) MarshalJSON() ([]byte, error) {
	if len(e.Object) > 0 {
		return e.Object, nil
	}
	if e.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(e.ID)
}

// Expanded reports whether the full object was sent.
func (e Expandable) Expanded() bool {
	return len(e.Object) > 0
}

// Decode unmarshals the expanded object into out.
func (e Expandable) Decode(out any) error {
	if !e.Expanded() {
		return fmt.Errorf("stripe: %q was not expanded", e.ID)
	}
	return json.Unmarshal(e.Object, out)
}
