// Package sites loads the fixed catalog of monitored wind farms.
package sites

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/wind-period-service/internal/domain"
)

//go:embed sites.json
var defaultCatalog []byte

// Catalog is an immutable, ordered list of sites with unique names.
type Catalog struct {
	sites  []domain.Site
	byName map[string]int
}

// Default returns the built-in New Zealand wind farm catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from a JSON file, or returns the built-in catalog when
// path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read site catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a JSON array of sites.
func Parse(data []byte) (*Catalog, error) {
	var list []domain.Site
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode site catalog: %w", err)
	}
	return New(list)
}

// New validates sites and builds a catalog. Names must be non-empty and unique,
// coordinates must be in range.
func New(list []domain.Site) (*Catalog, error) {
	if len(list) == 0 {
		return nil, fmt.Errorf("site catalog: %w", domain.ErrEmptyInput)
	}
	c := &Catalog{
		sites:  make([]domain.Site, len(list)),
		byName: make(map[string]int, len(list)),
	}
	for i, s := range list {
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			return nil, fmt.Errorf("site %d: name is required", i)
		}
		if _, dup := c.byName[s.Name]; dup {
			return nil, fmt.Errorf("site %q: duplicate name", s.Name)
		}
		if s.Lat < -90 || s.Lat > 90 || s.Lon < -180 || s.Lon > 180 {
			return nil, fmt.Errorf("site %q: coordinates out of range", s.Name)
		}
		c.sites[i] = s
		c.byName[s.Name] = i
	}
	return c, nil
}

// Sites returns a copy of the catalog in its original order.
func (c *Catalog) Sites() []domain.Site {
	out := make([]domain.Site, len(c.sites))
	copy(out, c.sites)
	return out
}

// Len returns the number of sites.
func (c *Catalog) Len() int { return len(c.sites) }

// Lookup finds a site by name.
func (c *Catalog) Lookup(name string) (domain.Site, bool) {
	i, ok := c.byName[name]
	if !ok {
		return domain.Site{}, false
	}
	return c.sites[i], true
}

// Regions returns the distinct region names in catalog order.
func (c *Catalog) Regions() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range c.sites {
		if _, ok := seen[s.Region]; ok {
			continue
		}
		seen[s.Region] = struct{}{}
		out = append(out, s.Region)
	}
	return out
}
