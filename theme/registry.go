package theme

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"tweakplay/color"
	"tweakplay/logger"
)

const (
	// DefaultTheme is generated for unknown names and reported for blank CSS.
	DefaultTheme = "default"
	// CustomTheme is reported when CSS matches no registered style.
	CustomTheme = "custom"
	// DefaultMatchThreshold is the share of palette variables that must agree
	// for a near match. It is a heuristic, adjust with SetMatchThreshold.
	DefaultMatchThreshold = 0.9
)

//go:embed registry.yaml
var builtinRegistry []byte

type registryFile struct {
	Items []Style `yaml:"items"`
}

type compiledStyle struct {
	css        string
	normalized string
	keyVars    map[string]string
}

// Registry holds the known styles and their pre-rendered CSS.
type Registry struct {
	styles    []Style
	index     map[string]int
	compiled  []compiledStyle
	threshold float64
	log       *logger.Logger
}

// Builtin loads the registry compiled into the binary.
func Builtin(log *logger.Logger) (*Registry, error) {
	return NewRegistry(builtinRegistry, log)
}

// LoadRegistry reads a registry YAML file from disk.
func LoadRegistry(path string, log *logger.Logger) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return NewRegistry(data, log)
}

// NewRegistry parses registry YAML.
func NewRegistry(data []byte, log *logger.Logger) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}

	r := &Registry{
		index:     make(map[string]int, len(file.Items)),
		threshold: DefaultMatchThreshold,
		log:       log.With("component", "theme"),
	}
	for _, item := range file.Items {
		item.Name = strings.TrimSpace(item.Name)
		if item.Name == "" {
			return nil, fmt.Errorf("parse registry: item without a name")
		}
		if _, dup := r.index[item.Name]; dup {
			return nil, fmt.Errorf("parse registry: duplicate style %q", item.Name)
		}
		if item.Label == "" {
			item.Label = item.Name
		}

		css := Generate(item.CSSVars)
		normalized := Normalize(css)
		r.index[item.Name] = len(r.styles)
		r.styles = append(r.styles, item)
		r.compiled = append(r.compiled, compiledStyle{
			css:        css,
			normalized: normalized,
			keyVars:    keyVars(normalized),
		})
	}

	r.log.WithFields(map[string]any{"styles": len(r.styles)}).Debug("loaded style registry")
	return r, nil
}

// SetMatchThreshold changes the near match ratio used by Detect. Values
// outside (0,1] are ignored.
func (r *Registry) SetMatchThreshold(t float64) {
	if t <= 0 || t > 1 {
		return
	}
	r.threshold = t
}

// Names returns style names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.styles))
	for i, s := range r.styles {
		names[i] = s.Name
	}
	return names
}

// Styles returns copies of every registered style.
func (r *Registry) Styles() []Style {
	out := make([]Style, len(r.styles))
	for i, s := range r.styles {
		s.CSSVars = s.CSSVars.Clone()
		out[i] = s
	}
	return out
}

// Get returns the named style.
func (r *Registry) Get(name string) (Style, bool) {
	i, ok := r.index[name]
	if !ok {
		return Style{}, false
	}
	s := r.styles[i]
	s.CSSVars = s.CSSVars.Clone()
	return s, true
}

// Resolve returns the named style, falling back to the default style with a
// warning. The returned name is the style actually used.
func (r *Registry) Resolve(name string) (string, VariableSet) {
	if i, ok := r.index[name]; ok {
		return name, r.styles[i].CSSVars.Clone()
	}
	r.log.With("theme", name).Warn("theme not found in registry, using default")
	if i, ok := r.index[DefaultTheme]; ok {
		return DefaultTheme, r.styles[i].CSSVars.Clone()
	}
	return DefaultTheme, VariableSet{}
}

// CSS returns the generated stylesheet for the named theme.
func (r *Registry) CSS(name string) string {
	if i, ok := r.index[name]; ok {
		return r.compiled[i].css
	}
	_, vars := r.Resolve(name)
	return Generate(vars)
}

// Detect names the registered style that css was generated from, or
// CustomTheme. Blank input is DefaultTheme.
func (r *Registry) Detect(css string) string {
	if strings.TrimSpace(css) == "" {
		return DefaultTheme
	}

	input := Normalize(css)
	var inputVars map[string]string

	for i, style := range r.styles {
		if style.Type != StyleType {
			continue
		}
		candidate := r.compiled[i]
		if input == candidate.normalized {
			return style.Name
		}

		if inputVars == nil {
			inputVars = keyVars(input)
		}
		if len(inputVars) == 0 || len(inputVars) != len(candidate.keyVars) {
			continue
		}
		matches := 0
		for key, value := range inputVars {
			if v, ok := candidate.keyVars[key]; ok && v == value {
				matches++
			}
		}
		if float64(matches)/float64(len(inputVars)) >= r.threshold {
			return style.Name
		}
	}

	return CustomTheme
}

// Preview returns picker swatches for the named style.
func (r *Registry) Preview(name string) (Swatches, bool) {
	i, ok := r.index[name]
	if !ok {
		return Swatches{}, false
	}
	return PreviewOf(r.styles[i].CSSVars), true
}

// PreviewOf derives swatches from the light variables of set.
func PreviewOf(set VariableSet) Swatches {
	pick := func(fallback string, keys ...string) string {
		for _, k := range keys {
			if v, ok := set.Light.Get(k); ok && v != "" {
				return color.Swatch(FormatValue(k, v))
			}
		}
		return color.Swatch(fallback)
	}

	primary := pick("#000000", "primary")
	return Swatches{
		Primary:     primary,
		Secondary:   pick("#f5f5f5", "secondary", "muted"),
		Accent:      pick(primary, "accent"),
		Destructive: pick("#ef4444", "destructive"),
	}
}
