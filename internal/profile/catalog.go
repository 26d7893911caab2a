package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Catalog holds the foundation trait profiles, keyed by name. Populated
// once at startup and read-only afterwards.
type Catalog struct {
	profiles map[string]*TraitProfile
	logger   *zap.Logger
}

// NewCatalog builds a catalog from the given profiles.
func NewCatalog(profiles []*TraitProfile, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := make(map[string]*TraitProfile, len(profiles))
	for _, p := range profiles {
		m[p.Name] = p
	}
	return &Catalog{profiles: m, logger: logger}
}

// LoadDir reads every .json seed file in dir into a catalog. Profiles
// missing a name take the file's base name.
func LoadDir(dir string, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read seeds dir %s: %w", dir, err)
	}

	var profiles []*TraitProfile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read seed %s: %w", e.Name(), err)
		}
		var p TraitProfile
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse seed %s: %w", e.Name(), err)
		}
		if p.Name == "" {
			p.Name = strings.TrimSuffix(e.Name(), ".json")
		}
		profiles = append(profiles, &p)
	}

	c := NewCatalog(profiles, logger)
	logger.Info("foundation catalog loaded",
		zap.String("dir", dir),
		zap.Int("profiles", len(profiles)))
	return c, nil
}

// Get returns a profile by name.
func (c *Catalog) Get(name string) (*TraitProfile, bool) {
	p, ok := c.profiles[name]
	return p, ok
}

// Names returns all profile names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.profiles))
	for n := range c.profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of profiles in the catalog.
func (c *Catalog) Len() int { return len(c.profiles) }
