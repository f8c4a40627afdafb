package agents

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
)

// Config is the free-form per-agent configuration object.
type Config map[string]any

// Int reads an integer option. JSON numbers arrive as float64.
func (c Config) Int(key string, def int) int {
	v, ok := c[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
	}
	return def
}

// Strings reads a list of strings.
func (c Config) Strings(key string, def []string) []string {
	v, ok := c[key]
	if !ok {
		return def
	}
	switch l := v.(type) {
	case []string:
		return l
	case []any:
		out := make([]string, 0, len(l))
		for _, it := range l {
			if s, ok := it.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return def
}

// Value implements driver.Valuer so Config can be stored as a JSON column.
func (c Config) Value() (driver.Value, error) {
	if c == nil {
		return "{}", nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (c *Config) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*c = Config{}
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("agents: cannot scan %T into Config", src)
	}
	out := Config{}
	if len(b) > 0 {
		if err := json.Unmarshal(b, &out); err != nil {
			return err
		}
	}
	*c = out
	return nil
}
