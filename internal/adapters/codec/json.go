package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/DanielPopoola/posgateway/internal/core/domain"
)

// EncodeJSON writes fields as a JSON object in their given order. Strings stay strings,
// numeric Go values and json.Number are written as numbers.
func EncodeJSON(fields domain.Fields) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeObject(&buf, fields); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeObject(buf *bytes.Buffer, fields domain.Fields) error {
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := writeJSONValue(buf, f.Value); err != nil {
			return fmt.Errorf("field %s: %w", f.Key, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeJSONValue(buf *bytes.Buffer, value any) error {
	switch v := value.(type) {
	case domain.Fields:
		return writeObject(buf, v)
	case []domain.Fields:
		buf.WriteByte('[')
		for i, group := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeObject(buf, group); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	}
}

// DecodeJSON reads an object into Values. Numbers keep their literal text and booleans
// become "true" or "false".
func DecodeJSON(body []byte) (domain.Values, error) {
	d := json.NewDecoder(bytes.NewReader(body))
	d.UseNumber()

	var raw map[string]any
	if err := d.Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errEmptyDocument
	}
	return jsonValues(raw), nil
}

func jsonValues(m map[string]any) domain.Values {
	v := make(domain.Values, len(m))
	for key, val := range m {
		v[key] = jsonValue(val)
	}
	return v
}

func jsonValue(val any) any {
	switch t := val.(type) {
	case map[string]any:
		return jsonValues(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = jsonValue(item)
		}
		return out
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return t
	}
}
