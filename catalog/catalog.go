// Package catalog is the registry of previewable components: metadata,
// examples and the source of each component file.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned for unknown component or example ids.
var ErrNotFound = errors.New("catalog: not found")

//go:embed components.yaml
var builtinIndex []byte

//go:embed ui/*.tsx
var builtinSources embed.FS

// Example is a ready-to-render preview of a component.
type Example struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	Code string `yaml:"code" json:"code"`
}

// Component describes one catalog entry.
type Component struct {
	ID                   string            `yaml:"id" json:"id"`
	Name                 string            `yaml:"name" json:"name"`
	Category             string            `yaml:"category" json:"category"`
	Description          string            `yaml:"description" json:"description"`
	Dependencies         map[string]string `yaml:"dependencies" json:"dependencies,omitempty"`
	RegistryDependencies []string          `yaml:"registryDependencies" json:"registryDependencies,omitempty"`
	Examples             []Example         `yaml:"examples" json:"examples"`
}

// RegistrySource is the code of a component pulled in as a registry
// dependency, with its own npm dependencies.
type RegistrySource struct {
	Code         string            `json:"code"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

type indexFile struct {
	Items []Component `yaml:"items"`
}

// Catalog is read-only after construction.
type Catalog struct {
	components []Component
	byID       map[string]int
	sources    map[string]string
}

// Builtin returns the catalog compiled into the binary.
func Builtin() (*Catalog, error) {
	sub, err := fs.Sub(builtinSources, "ui")
	if err != nil {
		return nil, err
	}
	return New(builtinIndex, sub)
}

// New parses a YAML index and reads "<id>.tsx" for every entry from sources.
func New(index []byte, sources fs.FS) (*Catalog, error) {
	var file indexFile
	if err := yaml.Unmarshal(index, &file); err != nil {
		return nil, fmt.Errorf("catalog: parse index: %w", err)
	}

	c := &Catalog{
		byID:    make(map[string]int, len(file.Items)),
		sources: make(map[string]string, len(file.Items)),
	}
	for _, comp := range file.Items {
		if comp.ID == "" {
			return nil, fmt.Errorf("catalog: entry without an id")
		}
		if _, dup := c.byID[comp.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate component %q", comp.ID)
		}
		if comp.Name == "" {
			comp.Name = comp.ID
		}
		code, err := fs.ReadFile(sources, comp.ID+".tsx")
		if err != nil {
			return nil, fmt.Errorf("catalog: source for %q: %w", comp.ID, err)
		}
		c.byID[comp.ID] = len(c.components)
		c.components = append(c.components, comp)
		c.sources[comp.ID] = string(code)
	}

	for _, comp := range c.components {
		for _, dep := range comp.RegistryDependencies {
			if _, ok := c.byID[dep]; !ok {
				return nil, fmt.Errorf("catalog: %q depends on unknown component %q", comp.ID, dep)
			}
		}
	}
	return c, nil
}

// List returns every component sorted by category and then name.
func (c *Catalog) List() []Component {
	out := make([]Component, len(c.components))
	copy(out, c.components)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Get looks a component up by id.
func (c *Catalog) Get(id string) (Component, error) {
	i, ok := c.byID[id]
	if !ok {
		return Component{}, fmt.Errorf("component %q: %w", id, ErrNotFound)
	}
	return c.components[i], nil
}

// Example returns one example of a component. An empty exampleID selects
// the first example.
func (c *Catalog) Example(id, exampleID string) (Example, error) {
	comp, err := c.Get(id)
	if err != nil {
		return Example{}, err
	}
	for _, ex := range comp.Examples {
		if exampleID == "" || ex.ID == exampleID {
			return ex, nil
		}
	}
	return Example{}, fmt.Errorf("example %q of %q: %w", exampleID, id, ErrNotFound)
}

// Source returns the component file contents.
func (c *Catalog) Source(id string) (string, error) {
	code, ok := c.sources[id]
	if !ok {
		return "", fmt.Errorf("component %q: %w", id, ErrNotFound)
	}
	return code, nil
}

// Path is where a component file lives in the preview project.
func Path(id string) string {
	return path.Join("/src/components/ui", id+".tsx")
}

// IDFromPath reverses Path. It reports false for other paths.
func IDFromPath(p string) (string, bool) {
	dir, file := path.Split(p)
	if dir != "/src/components/ui/" || !strings.HasSuffix(file, ".tsx") {
		return "", false
	}
	return strings.TrimSuffix(file, ".tsx"), true
}

// RegistrySources resolves the registry dependencies of a component,
// following them transitively. The component itself is never included.
func (c *Catalog) RegistrySources(id string) (map[string]RegistrySource, error) {
	if _, err := c.Get(id); err != nil {
		return nil, err
	}
	out := map[string]RegistrySource{}
	seen := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		comp := c.components[c.byID[queue[0]]]
		queue = queue[1:]
		for _, dep := range comp.RegistryDependencies {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			queue = append(queue, dep)
			d := c.components[c.byID[dep]]
			out[dep] = RegistrySource{Code: c.sources[dep], Dependencies: d.Dependencies}
		}
	}
	return out, nil
}
