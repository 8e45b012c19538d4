// Package geoshape fetches the boundary geometry of each division.
package geoshape

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/AlanRandon/subdivisions-game/internal/dataset"
)

// MaxConcurrentFetches bounds the number of in-flight fetches of one batch.
const MaxConcurrentFetches = 16

var (
	// ErrInvalidRef is returned for references that are not plain names.
	ErrInvalidRef = errors.New("invalid geoshape reference")
	// ErrNotFound is returned when a source has no shape for a reference.
	ErrNotFound = errors.New("geoshape not found")
	// ErrInvalidGeometry is returned for documents that are not GeoJSON.
	ErrInvalidGeometry = errors.New("invalid geometry")
)

var validRefRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

var geoJSONTypes = map[string]struct{}{
	"Point": {}, "MultiPoint": {},
	"LineString": {}, "MultiLineString": {},
	"Polygon": {}, "MultiPolygon": {},
	"GeometryCollection": {}, "Feature": {}, "FeatureCollection": {},
}

// Geometry is a validated GeoJSON document, kept as the raw bytes it was
// read from.
type Geometry struct {
	Type string
	Raw  json.RawMessage
}

// MarshalJSON writes the original document.
func (g Geometry) MarshalJSON() ([]byte, error) {
	if len(g.Raw) == 0 {
		return []byte("null"), nil
	}
	return g.Raw, nil
}

// Decode validates data as a GeoJSON document.
func Decode(data []byte) (Geometry, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return Geometry{}, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	if _, ok := geoJSONTypes[head.Type]; !ok {
		return Geometry{}, fmt.Errorf("%w: unknown type %q", ErrInvalidGeometry, head.Type)
	}
	return Geometry{Type: head.Type, Raw: json.RawMessage(bytes.TrimSpace(data))}, nil
}

// ValidRef reports whether ref can name a shape resource.
func ValidRef(ref string) bool {
	return validRefRegex.MatchString(ref)
}

// Source resolves a division's geoshape reference to its geometry.
type Source interface {
	Fetch(ctx context.Context, ref string) (Geometry, error)
}

// DirSource reads <Dir>/<ref>.json.
type DirSource struct {
	Dir string
}

func (s DirSource) Fetch(ctx context.Context, ref string) (Geometry, error) {
	if err := ctx.Err(); err != nil {
		return Geometry{}, err
	}
	if !ValidRef(ref) {
		return Geometry{}, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, ref+".json"))
	if errors.Is(err, os.ErrNotExist) {
		return Geometry{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if err != nil {
		return Geometry{}, err
	}
	return Decode(data)
}

// HTTPSource fetches <BaseURL>/<ref>.json.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPSource returns a source with a bounded request timeout.
func NewHTTPSource(baseURL string) *HTTPSource {
	return &HTTPSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *HTTPSource) Fetch(ctx context.Context, ref string) (Geometry, error) {
	if !ValidRef(ref) {
		return Geometry{}, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/"+ref+".json", nil)
	if err != nil {
		return Geometry{}, err
	}
	res, err := s.Client.Do(req)
	if err != nil {
		return Geometry{}, err
	}
	defer res.Body.Close()
	switch {
	case res.StatusCode == http.StatusNotFound:
		return Geometry{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	case res.StatusCode != http.StatusOK:
		return Geometry{}, fmt.Errorf("fetch %s: unexpected status %s", ref, res.Status)
	}
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return Geometry{}, err
	}
	return Decode(data)
}

// LoadAll fetches the geometry of every division of region concurrently and
// returns them keyed by division id. The first failure cancels the remaining
// fetches and fails the whole batch.
func LoadAll(ctx context.Context, src Source, region *dataset.Region) (map[string]Geometry, error) {
	start := time.Now()
	results := make([]Geometry, len(region.Divisions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxConcurrentFetches)
	for i, d := range region.Divisions {
		g.Go(func() error {
			geo, err := src.Fetch(gctx, d.Geoshape)
			if err != nil {
				return fmt.Errorf("division %s: %w", d.ID, err)
			}
			results[i] = geo
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn().Err(err).Str("region", region.ID).Msg("geoshape batch failed")
		return nil, err
	}

	out := make(map[string]Geometry, len(results))
	for i, d := range region.Divisions {
		out[d.ID] = results[i]
	}
	log.Info().
		Str("region", region.ID).
		Int("divisions", len(out)).
		Dur("took", time.Since(start)).
		Msg("geoshapes loaded")
	return out, nil
}
