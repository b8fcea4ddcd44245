package categorization

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var defaultCatalogYAML []byte

var (
	ErrUnknownCategory    = errors.New("unknown category")
	ErrUnknownSubcategory = errors.New("unknown subcategory")
)

// Subcategory refines a Category.
type Subcategory struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Category is one entry of the reference table users label expenses with.
type Category struct {
	ID            string        `yaml:"id" json:"id"`
	Name          string        `yaml:"name" json:"name"`
	Color         string        `yaml:"color" json:"color"`
	Description   string        `yaml:"description,omitempty" json:"description,omitempty"`
	Subcategories []Subcategory `yaml:"subcategories,omitempty" json:"subcategories,omitempty"`
}

// Catalog is an immutable set of categories loaded from YAML.
type Catalog struct {
	categories []Category
}

type catalogFile struct {
	Categories []Category `yaml:"categories"`
}

// LoadCatalog parses a catalog document and rejects duplicate or unnamed entries.
func LoadCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing category catalog: %w", err)
	}

	seen := make(map[string]bool)
	for _, c := range f.Categories {
		if c.ID == "" || c.Name == "" {
			return nil, fmt.Errorf("category catalog: entry %q has no id or name", c.ID+c.Name)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("category catalog: duplicate id %q", c.ID)
		}
		seen[c.ID] = true
	}

	return &Catalog{categories: f.Categories}, nil
}

// DefaultCatalog returns the catalog shipped with the binary.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(defaultCatalogYAML)
}

// Categories returns a copy of every category in catalog order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}

// ResolveCategory finds the category named (or identified by) name. Exact
// case-insensitive matches win; otherwise the closest fuzzy match is used.
func (c *Catalog) ResolveCategory(name string) (Category, error) {
	for _, cat := range c.categories {
		if strings.EqualFold(cat.Name, name) || strings.EqualFold(cat.ID, name) {
			return cat, nil
		}
	}

	names := make([]string, len(c.categories))
	for i, cat := range c.categories {
		names[i] = cat.Name
	}
	if idx, _ := bestFuzzyMatch(name, names); idx >= 0 {
		return c.categories[idx], nil
	}
	return Category{}, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}

// ResolveSubcategory finds name among the subcategories of category. An empty
// category searches the whole catalog.
func (c *Catalog) ResolveSubcategory(category, name string) (Subcategory, error) {
	var pool []Subcategory
	if category == "" {
		for _, cat := range c.categories {
			pool = append(pool, cat.Subcategories...)
		}
	} else {
		cat, err := c.ResolveCategory(category)
		if err != nil {
			return Subcategory{}, err
		}
		pool = cat.Subcategories
	}

	for _, sub := range pool {
		if strings.EqualFold(sub.Name, name) || strings.EqualFold(sub.ID, name) {
			return sub, nil
		}
	}

	names := make([]string, len(pool))
	for i, sub := range pool {
		names[i] = sub.Name
	}
	if idx, _ := bestFuzzyMatch(name, names); idx >= 0 {
		return pool[idx], nil
	}
	return Subcategory{}, fmt.Errorf("%w: %q", ErrUnknownSubcategory, name)
}
