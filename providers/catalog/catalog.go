package catalog

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/leofalp/uigen/core/schema"
)

var (
	// ErrInvalidCatalog is wrapped by every load and build error.
	ErrInvalidCatalog = errors.New("invalid catalog")

	// ErrNotFound is returned by Lookup for an unknown component.
	ErrNotFound = errors.New("component not found")
)

// Component describes one component type.
type Component struct {
	Name        string                     `yaml:"name" json:"name"`
	Aliases     []string                   `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Description string                     `yaml:"description,omitempty" json:"description,omitempty"`
	Props       map[string]schema.PropSpec `yaml:"props,omitempty" json:"props,omitempty"`
}

type file struct {
	Version    string      `yaml:"version"`
	Components []Component `yaml:"components"`
}

// Catalog is an immutable set of components. Lookups are case-insensitive
// and resolve aliases.
type Catalog struct {
	version    *semver.Version
	components []Component
	byName     map[string]int
	aliases    map[string]int
}

var _ schema.PropCatalog = (*Catalog)(nil)

// New builds a catalog. Names and aliases must be unique ignoring case, and
// version must be a semantic version.
func New(version string, components ...Component) (*Catalog, error) {
	parsed, err := semver.NewVersion(strings.TrimSpace(version))
	if err != nil {
		return nil, fmt.Errorf("%w: version %q: %v", ErrInvalidCatalog, version, err)
	}

	c := &Catalog{
		version:    parsed,
		components: make([]Component, 0, len(components)),
		byName:     make(map[string]int, len(components)),
		aliases:    map[string]int{},
	}
	for _, component := range components {
		if err := c.add(component); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) add(component Component) error {
	component.Name = strings.TrimSpace(component.Name)
	if component.Name == "" {
		return fmt.Errorf("%w: component %d has no name", ErrInvalidCatalog, len(c.components))
	}
	if c.taken(component.Name) {
		return fmt.Errorf("%w: duplicate component name %q", ErrInvalidCatalog, component.Name)
	}

	props := make(map[string]schema.PropSpec, len(component.Props))
	for name, spec := range component.Props {
		kind, err := schema.ParsePropKind(string(spec.Kind))
		if err != nil {
			return fmt.Errorf("%w: %s.%s: %v", ErrInvalidCatalog, component.Name, name, err)
		}
		spec.Kind = kind
		props[name] = spec
	}
	component.Props = props
	component.Aliases = slices.Clone(component.Aliases)

	index := len(c.components)
	c.byName[strings.ToLower(component.Name)] = index
	for _, alias := range component.Aliases {
		alias = strings.TrimSpace(alias)
		if alias == "" {
			continue
		}
		if c.taken(alias) {
			return fmt.Errorf("%w: alias %q of %s is already in use", ErrInvalidCatalog, alias, component.Name)
		}
		c.aliases[strings.ToLower(alias)] = index
	}
	c.components = append(c.components, component)
	return nil
}

func (c *Catalog) taken(name string) bool {
	key := strings.ToLower(name)
	_, isName := c.byName[key]
	_, isAlias := c.aliases[key]
	return isName || isAlias
}

// Parse reads a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return New(f.Version, f.Components...)
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Version returns the catalog version in its canonical form.
func (c *Catalog) Version() string {
	return c.version.String()
}

// SemVer returns the parsed catalog version.
func (c *Catalog) SemVer() *semver.Version {
	return c.version
}

// Len returns the number of components.
func (c *Catalog) Len() int {
	return len(c.components)
}

// Names returns the canonical names in file order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.components))
	for i, component := range c.components {
		names[i] = component.Name
	}
	return names
}

func (c *Catalog) find(name string) (int, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if index, ok := c.byName[key]; ok {
		return index, true
	}
	index, ok := c.aliases[key]
	return index, ok
}

// Lookup returns the component name or alias refers to.
func (c *Catalog) Lookup(name string) (Component, error) {
	index, ok := c.find(name)
	if !ok {
		return Component{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return c.components[index], nil
}

// IsValidType reports whether name is a component name or alias.
func (c *Catalog) IsValidType(name string) bool {
	_, ok := c.find(name)
	return ok
}

// ResolveAlias returns the canonical spelling of name. The boolean is true
// only when that spelling differs from name, i.e. name was an alias or a
// differently cased component name.
func (c *Catalog) ResolveAlias(name string) (string, bool) {
	index, ok := c.find(name)
	if !ok {
		return "", false
	}
	canonical := c.components[index].Name
	return canonical, canonical != name
}

// PropSpecs returns the prop schemas of a component.
func (c *Catalog) PropSpecs(typeName string) (map[string]schema.PropSpec, bool) {
	index, ok := c.find(typeName)
	if !ok {
		return nil, false
	}
	return c.components[index].Props, true
}

// VersionSatisfies reports whether the catalog version meets constraint,
// for example ">= 1.2, < 2".
func (c *Catalog) VersionSatisfies(constraint string) (bool, error) {
	constraints, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("parse constraint %q: %w", constraint, err)
	}
	return constraints.Check(c.version), nil
}
