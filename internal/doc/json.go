package doc

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// IDField is the JSON key carrying the document id.
const IDField = "id"

// MarshalJSON encodes the document as a flat object: "id" first, then each
// field in order. Single values encode as scalars, several as arrays, and
// embedded documents as nested objects.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	sep := func() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
	}

	if d.ID != "" {
		sep()
		writeKey(&buf, IDField)
		if err := writeValue(&buf, d.ID); err != nil {
			return nil, err
		}
	}
	for _, f := range d.fields {
		if len(f.Values) == 0 {
			continue
		}
		sep()
		writeKey(&buf, f.Name)
		if len(f.Values) == 1 {
			if err := writeValue(&buf, f.Values[0]); err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			continue
		}
		buf.WriteByte('[')
		for i, v := range f.Values {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(&buf, v); err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
		}
		buf.WriteByte(']')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, k string) {
	b, _ := json.Marshal(k) // strings always encode
	buf.Write(b)
	buf.WriteByte(':')
}

func writeValue(buf *bytes.Buffer, v any) error {
	if child, ok := v.(*Document); ok {
		b, err := child.MarshalJSON()
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// UnmarshalJSON decodes a flat JSON object into a document. "id" becomes
// the document id; other keys become fields in sorted order. Arrays become
// multi-valued fields. Strings are kept as is; objects, numbers and booleans
// are stored as their JSON text so payload fields survive verbatim. Nulls
// are skipped.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = *New("")

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		msg := bytes.TrimSpace(raw[k])
		if k == IDField {
			v, ok, err := rawValue(msg)
			if err != nil {
				return fmt.Errorf("field %s: %w", k, err)
			}
			if ok {
				d.ID = v
			}
			continue
		}
		if len(msg) > 0 && msg[0] == '[' {
			var items []json.RawMessage
			if err := json.Unmarshal(msg, &items); err != nil {
				return fmt.Errorf("field %s: %w", k, err)
			}
			for _, item := range items {
				v, ok, err := rawValue(bytes.TrimSpace(item))
				if err != nil {
					return fmt.Errorf("field %s: %w", k, err)
				}
				if ok {
					d.Add(k, v)
				}
			}
			continue
		}
		v, ok, err := rawValue(msg)
		if err != nil {
			return fmt.Errorf("field %s: %w", k, err)
		}
		if ok {
			d.Add(k, v)
		}
	}
	return nil
}

func rawValue(msg []byte) (string, bool, error) {
	switch {
	case len(msg) == 0 || string(msg) == "null":
		return "", false, nil
	case msg[0] == '"':
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			return "", false, err
		}
		return s, true, nil
	}
	return string(msg), true, nil
}

// String returns the JSON form of the document.
func (d *Document) String() string {
	b, err := d.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<document %s: %v>", d.ID, err)
	}
	return string(b)
}
