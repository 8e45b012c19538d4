// Package dataset holds the static region and subdivision catalog the quiz is
// played against.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// ErrRegionNotFound is returned by Lookup for ids absent from the catalog.
var ErrRegionNotFound = errors.New("region not found")

// Division is one subdivision of a region.
type Division struct {
	ID            string   `json:"id" yaml:"id"`
	PreferredName string   `json:"preferredName" yaml:"preferredName"`
	Names         []string `json:"names" yaml:"names"`
	Geoshape      string   `json:"geoshape" yaml:"geoshape"`
}

// Region is a country or area whose divisions make up one game.
type Region struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Divisions []Division `json:"divisions" yaml:"divisions"`
}

// Catalog is the read-only set of playable regions.
type Catalog struct {
	byID    map[string]*Region
	ordered []*Region
}

// Load reads a dataset file. The format is picked from the extension:
// .yaml/.yml are decoded as YAML, everything else as JSON.
func Load(path string) (*Catalog, error) {
	log.Info().Str("path", path).Msg("loading region dataset")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// ParseJSON decodes the data.json layout: an object keyed by region id.
func ParseJSON(data []byte) (*Catalog, error) {
	var raw map[string]Region
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode dataset json: %w", err)
	}
	return New(raw), nil
}

// ParseYAML decodes the same layout as ParseJSON, written in YAML.
func ParseYAML(data []byte) (*Catalog, error) {
	var raw map[string]Region
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode dataset yaml: %w", err)
	}
	return New(raw), nil
}

// New builds a catalog from regions keyed by id. Regions without divisions
// are dropped; a division whose names omit its preferred name gets it added.
func New(regions map[string]Region) *Catalog {
	c := &Catalog{byID: make(map[string]*Region, len(regions))}
	for key, region := range regions {
		if region.ID == "" {
			region.ID = key
		}
		if len(region.Divisions) == 0 {
			log.Warn().Str("region", region.ID).Msg("skipping region without divisions")
			continue
		}
		divisions := make([]Division, len(region.Divisions))
		for i, d := range region.Divisions {
			if d.PreferredName != "" && !lo.Contains(d.Names, d.PreferredName) {
				d.Names = append([]string{d.PreferredName}, d.Names...)
			}
			divisions[i] = d
		}
		region.Divisions = divisions
		r := region
		c.byID[r.ID] = &r
		c.ordered = append(c.ordered, &r)
	}
	sort.Slice(c.ordered, func(i, j int) bool {
		if c.ordered[i].Name == c.ordered[j].Name {
			return c.ordered[i].ID < c.ordered[j].ID
		}
		return c.ordered[i].Name < c.ordered[j].Name
	})
	return c
}

// Lookup returns the region with the given id.
func (c *Catalog) Lookup(id string) (*Region, error) {
	r, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRegionNotFound, id)
	}
	return r, nil
}

// Regions returns every region ordered by display name.
func (c *Catalog) Regions() []*Region {
	return c.ordered
}

// Len reports how many regions are loaded.
func (c *Catalog) Len() int {
	return len(c.ordered)
}

// DivisionCount reports the number of divisions across all regions.
func (c *Catalog) DivisionCount() int {
	return lo.SumBy(c.ordered, func(r *Region) int { return len(r.Divisions) })
}

// NormalizeName is the form both index keys and guesses are compared in.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// BuildNameIndex maps every alternate name of every division, lower-cased, to
// that division. When two divisions share a name the later one wins.
func BuildNameIndex(region *Region) map[string]*Division {
	index := make(map[string]*Division)
	for i := range region.Divisions {
		d := &region.Divisions[i]
		for _, name := range d.Names {
			index[strings.ToLower(name)] = d
		}
	}
	return index
}
