package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// Default returns the built-in catalog
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from a YAML file. An empty path loads the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	return Parse(data)
}

// Parse decodes and validates a YAML catalog
func Parse(data []byte) (*Catalog, error) {
	var c Catalog

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate checks struct tags and cross references, and resolves the time zone
func (c *Catalog) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}

	tz := c.Timezone
	if tz == "" {
		tz = "America/New_York"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("invalid catalog timezone %q: %w", tz, err)
	}
	c.location = loc

	groups := make(map[string]bool, len(c.Groups))
	for _, g := range c.Groups {
		if groups[g.Name] {
			return fmt.Errorf("duplicate group %q", g.Name)
		}
		groups[g.Name] = true
	}

	panels := make(map[string]bool)
	for _, s := range c.Stops {
		if panels[s.Panel] {
			return fmt.Errorf("duplicate panel %q", s.Panel)
		}
		panels[s.Panel] = true
		if !groups[s.Group] {
			return fmt.Errorf("panel %q references unknown group %q", s.Panel, s.Group)
		}
	}
	for _, s := range c.Stations {
		if panels[s.Panel] {
			return fmt.Errorf("duplicate panel %q", s.Panel)
		}
		panels[s.Panel] = true
		if !groups[s.Group] {
			return fmt.Errorf("panel %q references unknown group %q", s.Panel, s.Group)
		}
	}

	return nil
}
