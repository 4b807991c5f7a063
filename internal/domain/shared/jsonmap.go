package shared

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap is a string-keyed map persisted as a jsonb column.
// It backs the per-aggregate Attributes field, including the embedded
// derived cache objects (user_cache, forest_cache, customer_cache).
type JSONMap map[string]interface{}

// Value implements driver.Valuer
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", value)
	}
	if len(data) == 0 {
		*m = JSONMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// GetMap returns a nested object value, or nil when the key is absent
// or holds a non-object value.
func (m JSONMap) GetMap(key string) map[string]interface{} {
	if v, ok := m[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}

// SetObject stores any JSON-marshalable value under key, normalized through
// a marshal/unmarshal round trip so reads after a save and reads after a
// reload observe the same shapes.
func (m JSONMap) SetObject(key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var normalized interface{}
	if err := json.Unmarshal(b, &normalized); err != nil {
		return err
	}
	m[key] = normalized
	return nil
}

// StringMap is a string-to-string map persisted as a jsonb column,
// used for user-assigned tags.
type StringMap map[string]string

// Value implements driver.Valuer
func (m StringMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (m *StringMap) Scan(value interface{}) error {
	if value == nil {
		*m = StringMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", value)
	}
	if len(data) == 0 {
		*m = StringMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}
