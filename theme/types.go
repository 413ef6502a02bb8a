package theme

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// StyleType marks registry items that describe a complete theme.
const StyleType = "registry:style"

// Var is a single CSS custom property without its leading "--".
type Var struct {
	Name  string
	Value string
}

// Vars is an ordered set of custom properties. Declaration order is the
// order in which generated CSS emits them.
type Vars []Var

// Get returns the value stored under name.
func (v Vars) Get(name string) (string, bool) {
	for _, kv := range v {
		if kv.Name == name {
			return kv.Value, true
		}
	}
	return "", false
}

// Has reports whether name is declared.
func (v Vars) Has(name string) bool {
	_, ok := v.Get(name)
	return ok
}

// Set returns v with name assigned to value. An existing declaration keeps
// its position; a new one is appended.
func (v Vars) Set(name, value string) Vars {
	out := v.Clone()
	for i := range out {
		if out[i].Name == name {
			out[i].Value = value
			return out
		}
	}
	return append(out, Var{Name: name, Value: value})
}

// Clone returns an independent copy of v.
func (v Vars) Clone() Vars {
	if v == nil {
		return nil
	}
	out := make(Vars, len(v))
	copy(out, v)
	return out
}

// Map flattens v into a map, later declarations winning.
func (v Vars) Map() map[string]string {
	out := make(map[string]string, len(v))
	for _, kv := range v {
		out[kv.Name] = kv.Value
	}
	return out
}

// UnmarshalYAML decodes a YAML mapping while keeping key order.
func (v *Vars) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: css variables must be a mapping", node.Line)
	}
	out := make(Vars, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: variable %q must have a scalar value", val.Line, key.Value)
		}
		out = out.Set(key.Value, val.Value)
	}
	*v = out
	return nil
}

// MarshalJSON encodes v as a JSON object in declaration order.
func (v Vars) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range v {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(kv.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(kv.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of string values keeping key order.
func (v *Vars) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*v = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("css variables must be a JSON object")
	}

	out := Vars{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("variable %q: %w", key, err)
		}
		out = out.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*v = out
	return nil
}

// VariableSet is the full variable payload of one theme.
type VariableSet struct {
	Light  Vars `yaml:"light" json:"light"`
	Dark   Vars `yaml:"dark" json:"dark"`
	Shared Vars `yaml:"theme,omitempty" json:"shared,omitempty"`
}

// Clone returns a deep copy of s.
func (s VariableSet) Clone() VariableSet {
	return VariableSet{Light: s.Light.Clone(), Dark: s.Dark.Clone(), Shared: s.Shared.Clone()}
}

// Scope selects one of the three variable maps of a VariableSet.
type Scope string

const (
	ScopeLight  Scope = "light"
	ScopeDark   Scope = "dark"
	ScopeShared Scope = "shared"
)

// Valid reports whether s names a known scope.
func (s Scope) Valid() bool {
	switch s {
	case ScopeLight, ScopeDark, ScopeShared:
		return true
	}
	return false
}

// With returns a copy of s with key assigned in scope.
func (s VariableSet) With(scope Scope, key, value string) (VariableSet, error) {
	out := s.Clone()
	switch scope {
	case ScopeLight:
		out.Light = out.Light.Set(key, value)
	case ScopeDark:
		out.Dark = out.Dark.Set(key, value)
	case ScopeShared:
		out.Shared = out.Shared.Set(key, value)
	default:
		return s, fmt.Errorf("unknown variable scope %q", scope)
	}
	return out, nil
}

// Style is one entry of the style registry.
type Style struct {
	Name    string      `yaml:"name" json:"name"`
	Label   string      `yaml:"label" json:"label"`
	Type    string      `yaml:"type" json:"type"`
	CSSVars VariableSet `yaml:"cssVars" json:"cssVars"`
}

// Swatches are the hex colors shown next to a theme in pickers.
type Swatches struct {
	Primary     string `json:"primary"`
	Secondary   string `json:"secondary"`
	Accent      string `json:"accent"`
	Destructive string `json:"destructive"`
}
