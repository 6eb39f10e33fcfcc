// Package catalog holds the read-only category → item taxonomy used by multi-select fields.
package catalog

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrUnknownCategory is returned by lookups on a category the field does not define.
var ErrUnknownCategory = errors.New("unknown category")

// Category is one drill-down screen of a multi-select field.
type Category struct {
	ID    string   `yaml:"id" json:"id"`
	Label string   `yaml:"label,omitempty" json:"label,omitempty"`
	Items []string `yaml:"items" json:"items"`
}

// Group is the catalogue of one profile field.
type Group struct {
	Categories []Category `yaml:"categories" json:"categories"`
	// Exclusive lists sentinel items that clear every other selection in the field.
	Exclusive []string `yaml:"exclusive,omitempty" json:"exclusive,omitempty"`
}

// Document is the on-disk catalogue format.
type Document struct {
	Fields map[string]Group  `yaml:"fields"`
	Labels map[string]string `yaml:"labels,omitempty"`
}

// Catalog is immutable after construction and safe for concurrent readers.
type Catalog struct {
	groups map[string]Group
	labels map[string]string
}

// New validates doc and builds a Catalog from it.
func New(doc Document) (*Catalog, error) {
	c := &Catalog{
		groups: make(map[string]Group, len(doc.Fields)),
		labels: make(map[string]string, len(doc.Labels)),
	}
	for k, v := range doc.Labels {
		c.labels[k] = v
	}

	for field, g := range doc.Fields {
		seenCat := make(map[string]bool)
		seenItem := make(map[string]bool)
		for _, cat := range g.Categories {
			if cat.ID == "" {
				return nil, fmt.Errorf("field %q: category without id", field)
			}
			if seenCat[cat.ID] {
				return nil, fmt.Errorf("field %q: duplicate category %q", field, cat.ID)
			}
			seenCat[cat.ID] = true
			for _, item := range cat.Items {
				if item == "" {
					return nil, fmt.Errorf("field %q category %q: empty item id", field, cat.ID)
				}
				seenItem[item] = true
			}
		}
		for _, s := range g.Exclusive {
			if !seenItem[s] {
				return nil, fmt.Errorf("field %q: exclusive item %q is not in any category", field, s)
			}
		}
		c.groups[field] = copyGroup(g)
	}
	return c, nil
}

// Parse decodes a YAML catalogue.
func Parse(data []byte) (*Catalog, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(doc)
}

// Load reads a YAML catalogue from path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Empty returns a catalogue with no fields.
func Empty() *Catalog {
	c, _ := New(Document{})
	return c
}

func copyGroup(g Group) Group {
	out := Group{
		Categories: make([]Category, len(g.Categories)),
		Exclusive:  append([]string(nil), g.Exclusive...),
	}
	for i, cat := range g.Categories {
		out.Categories[i] = Category{
			ID:    cat.ID,
			Label: cat.Label,
			Items: append([]string(nil), cat.Items...),
		}
	}
	return out
}

// HasField reports whether field has a catalogue.
func (c *Catalog) HasField(field string) bool {
	_, ok := c.groups[field]
	return ok
}

// CategoriesOf returns the ordered categories of field, or nil when the field is unknown.
func (c *Catalog) CategoriesOf(field string) []Category {
	g, ok := c.groups[field]
	if !ok {
		return nil
	}
	return copyGroup(g).Categories
}

// Category returns one category of field.
func (c *Catalog) Category(field, category string) (Category, bool) {
	for _, cat := range c.groups[field].Categories {
		if cat.ID == category {
			return Category{ID: cat.ID, Label: cat.Label, Items: append([]string(nil), cat.Items...)}, true
		}
	}
	return Category{}, false
}

// ItemsOf returns the ordered items of one category.
func (c *Catalog) ItemsOf(field, category string) ([]string, error) {
	cat, ok := c.Category(field, category)
	if !ok {
		return nil, fmt.Errorf("field %q category %q: %w", field, category, ErrUnknownCategory)
	}
	return cat.Items, nil
}

// Contains reports whether item belongs to category of field.
func (c *Catalog) Contains(field, category, item string) bool {
	for _, cat := range c.groups[field].Categories {
		if cat.ID != category {
			continue
		}
		for _, it := range cat.Items {
			if it == item {
				return true
			}
		}
	}
	return false
}

// IsExclusive reports whether item is a mutual-exclusion sentinel of field.
func (c *Catalog) IsExclusive(field, item string) bool {
	for _, s := range c.groups[field].Exclusive {
		if s == item {
			return true
		}
	}
	return false
}

// Sentinel returns a predicate bound to field, for use with domain.Selection.ToggleExclusive.
func (c *Catalog) Sentinel(field string) func(string) bool {
	return func(item string) bool { return c.IsExclusive(field, item) }
}

// Label returns the display label of item. Unknown items are labelled with their id.
func (c *Catalog) Label(item string) string {
	if l, ok := c.labels[item]; ok && l != "" {
		return l
	}
	return item
}

// CategoryLabel returns the category label, falling back to the shared labels and then the id.
func (c *Catalog) CategoryLabel(field, category string) string {
	if cat, ok := c.Category(field, category); ok && cat.Label != "" {
		return cat.Label
	}
	return c.Label(category)
}

// Fields lists every field with a catalogue.
func (c *Catalog) Fields() []string {
	out := make([]string, 0, len(c.groups))
	for f := range c.groups {
		out = append(out, f)
	}
	return out
}
