package data

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Obstacle is one hazard or pickup placed inside a segment, relative to the
// segment's left edge.
type Obstacle struct {
	Kind    string  `yaml:"kind"`
	OffsetX float64 `yaml:"offset_x"`
	OffsetY float64 `yaml:"offset_y"`
}

// Template is the construction blueprint of one recyclable terrain segment.
// Read-only once loaded.
type Template struct {
	Key         string     `yaml:"key"`
	Description string     `yaml:"description"`
	Ground      []float64  `yaml:"ground"` // surface height samples across the segment
	Obstacles   []Obstacle `yaml:"obstacles"`
}

type catalogFile struct {
	Templates []Template `yaml:"templates"`
	Forced    []string   `yaml:"forced"`
}

// TemplateCatalog is the ordered template set plus the ordered forced
// sequence placed at the start of every stream.
type TemplateCatalog struct {
	templates []*Template
	byKey     map[string]*Template
	forced    []*Template
}

// LoadTemplateCatalog loads a terrain template YAML file.
func LoadTemplateCatalog(path string) (*TemplateCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template catalog: %w", err)
	}
	c, err := ParseTemplateCatalog(raw)
	if err != nil {
		return nil, fmt.Errorf("template catalog %s: %w", path, err)
	}
	return c, nil
}

// ParseTemplateCatalog decodes catalog YAML already in memory.
func ParseTemplateCatalog(raw []byte) (*TemplateCatalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse template catalog: %w", err)
	}
	return NewTemplateCatalog(f.Templates, f.Forced)
}

// NewTemplateCatalog builds a catalog from templates in order. Every forced
// key must name one of the templates.
func NewTemplateCatalog(templates []Template, forced []string) (*TemplateCatalog, error) {
	c := &TemplateCatalog{
		templates: make([]*Template, 0, len(templates)),
		byKey:     make(map[string]*Template, len(templates)),
		forced:    make([]*Template, 0, len(forced)),
	}
	for i := range templates {
		t := templates[i]
		t.Key = NormalizeKey(t.Key)
		if t.Key == "" {
			return nil, fmt.Errorf("template #%d has an empty key", i)
		}
		if _, dup := c.byKey[t.Key]; dup {
			return nil, fmt.Errorf("duplicate template key %q", t.Key)
		}
		c.templates = append(c.templates, &t)
		c.byKey[t.Key] = &t
	}
	for _, k := range forced {
		t, ok := c.byKey[NormalizeKey(k)]
		if !ok {
			return nil, fmt.Errorf("forced template %q is not in the catalog", k)
		}
		c.forced = append(c.forced, t)
	}
	return c, nil
}

// NormalizeKey trims and NFC-normalizes a template key so keys typed with
// different Unicode compositions resolve to the same template.
func NormalizeKey(k string) string {
	return norm.NFC.String(strings.TrimSpace(k))
}

// WithForced returns a catalog sharing this one's templates but with a
// different forced sequence. Used for per-lane overrides.
func (c *TemplateCatalog) WithForced(forced []string) (*TemplateCatalog, error) {
	out := &TemplateCatalog{
		templates: c.templates,
		byKey:     c.byKey,
		forced:    make([]*Template, 0, len(forced)),
	}
	for _, k := range forced {
		t, ok := c.byKey[NormalizeKey(k)]
		if !ok {
			return nil, fmt.Errorf("forced template %q is not in the catalog", k)
		}
		out.forced = append(out.forced, t)
	}
	return out, nil
}

// Get returns the template for key, or nil if none.
func (c *TemplateCatalog) Get(key string) *Template {
	return c.byKey[NormalizeKey(key)]
}

// All returns the full template set in catalog order.
func (c *TemplateCatalog) All() []*Template {
	return c.templates
}

// Forced returns the forced sequence in placement order.
func (c *TemplateCatalog) Forced() []*Template {
	return c.forced
}

// Count returns the number of templates loaded.
func (c *TemplateCatalog) Count() int {
	return len(c.templates)
}
