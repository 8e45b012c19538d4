package dataset

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultOSMPolygonURL serves the boundary polygon of an OSM relation.
	DefaultOSMPolygonURL = "https://polygons.openstreetmap.fr/get_geojson.py"
	// DefaultCommonsRawURL serves raw Wikimedia Commons data pages.
	DefaultCommonsRawURL = "https://commons.wikimedia.org/w/index.php"

	commonsDataPrefix = "http://commons.wikimedia.org/data/main/"
)

// SourceRegion is one entry of the cached regions.json query result.
type SourceRegion struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SourceDivision is one entry of the cached divisions.json query result.
type SourceDivision struct {
	ID            string     `json:"id"`
	PreferredName string     `json:"preferredName"`
	Names         []string   `json:"names"`
	RegionID      string     `json:"regionId"`
	OSM           OptionalID `json:"osm"`
	Geo           OptionalID `json:"geo"`
}

// OptionalID accepts a JSON string, number or null.
type OptionalID string

func (o *OptionalID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*o = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*o = OptionalID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("optional id: %w", err)
	}
	*o = OptionalID(n.String())
	return nil
}

type shapeMethod int

const (
	methodOSM shapeMethod = iota
	methodCommons
)

// Combiner turns the cached query results into a dataset, downloading any
// division shape not already present in ShapeDir.
type Combiner struct {
	Client        *http.Client
	ShapeDir      string
	OSMPolygonURL string
	CommonsRawURL string
}

// NewCombiner returns a Combiner using the public shape services.
func NewCombiner(shapeDir string) *Combiner {
	return &Combiner{
		Client:        &http.Client{Timeout: 60 * time.Second},
		ShapeDir:      shapeDir,
		OSMPolygonURL: DefaultOSMPolygonURL,
		CommonsRawURL: DefaultCommonsRawURL,
	}
}

// ShapeRef derives the shape reference stored in the dataset from the URL the
// shape was downloaded from.
func ShapeRef(sourceURL string) string {
	sum := md5.Sum([]byte(sourceURL))
	return hex.EncodeToString(sum[:])[:8]
}

// shapeURL is left unescaped so ShapeRef stays stable for existing datasets.
func (c *Combiner) shapeURL(d SourceDivision) (string, shapeMethod, bool) {
	if d.OSM != "" {
		return c.OSMPolygonURL + "?id=" + string(d.OSM), methodOSM, true
	}
	if d.Geo != "" {
		title := strings.TrimPrefix(string(d.Geo), commonsDataPrefix)
		return c.CommonsRawURL + "?action=raw&format=json&origin=*&title=" + title, methodCommons, true
	}
	return "", 0, false
}

// Combine assigns every division with a known shape to its region. Divisions
// without an OSM relation or Commons reference are skipped.
func (c *Combiner) Combine(ctx context.Context, regions []SourceRegion, divisions []SourceDivision) (map[string]Region, error) {
	out := make(map[string]Region, len(regions))
	for _, r := range regions {
		out[r.ID] = Region{ID: r.ID, Name: r.Name, Divisions: []Division{}}
	}
	if err := os.MkdirAll(c.ShapeDir, 0755); err != nil {
		return nil, fmt.Errorf("create shape dir: %w", err)
	}

	for i, d := range divisions {
		log.Info().Msgf("[%d/%d] %s", i+1, len(divisions), d.PreferredName)

		src, method, ok := c.shapeURL(d)
		if !ok {
			log.Warn().Str("division", d.ID).Msg("no geoshape, skipping")
			continue
		}
		ref := ShapeRef(src)
		path := filepath.Join(c.ShapeDir, ref+".json")
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			log.Info().Str("url", src).Str("ref", ref).Msg("fetching geoshape")
			if err := c.download(ctx, src, method, path); err != nil {
				return nil, fmt.Errorf("division %s: %w", d.ID, err)
			}
		} else if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}

		region, ok := out[d.RegionID]
		if !ok {
			return nil, fmt.Errorf("division %s: %w: %q", d.ID, ErrRegionNotFound, d.RegionID)
		}
		region.Divisions = append(region.Divisions, Division{
			ID:            d.ID,
			PreferredName: d.PreferredName,
			Names:         d.Names,
			Geoshape:      ref,
		})
		out[d.RegionID] = region
	}
	return out, nil
}

func (c *Combiner) download(ctx context.Context, src string, method shapeMethod, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return err
	}
	res, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch geoshape: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch geoshape: unexpected status %s", res.Status)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read geoshape: %w", err)
	}

	if method == methodCommons {
		var page struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &page); err != nil {
			return fmt.Errorf("decode commons page: %w", err)
		}
		if len(page.Data) == 0 {
			return errors.New("commons page has no data member")
		}
		body = page.Data
	}
	return os.WriteFile(path, body, 0644)
}

// WriteFile writes a combined dataset in the data.json layout.
func WriteFile(path string, regions map[string]Region) error {
	data, err := json.MarshalIndent(regions, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadSources loads regions.json and divisions.json from a cache directory.
func ReadSources(cacheDir string) ([]SourceRegion, []SourceDivision, error) {
	var regions []SourceRegion
	if err := readJSON(filepath.Join(cacheDir, "regions.json"), &regions); err != nil {
		return nil, nil, err
	}
	var divisions []SourceDivision
	if err := readJSON(filepath.Join(cacheDir, "divisions.json"), &divisions); err != nil {
		return nil, nil, err
	}
	return regions, divisions, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
