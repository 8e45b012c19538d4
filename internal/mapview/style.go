// Package mapview describes the browser map: its fixed style, its
// constructor options and the commands the game sends to the live renderer.
package mapview

const (
	openFreeMapPlanet = "https://tiles.openfreemap.org/planet"
	shadedReliefTiles = "https://tiles.openfreemap.org/natural_earth/ne2sr/{z}/{x}/{y}.png"
	spriteURL         = "https://tiles.openfreemap.org/sprites/ofm_f384/ofm"
	glyphsURL         = "https://tiles.openfreemap.org/fonts/{fontstack}/{range}.pbf"
)

// Style is a MapLibre style document.
type Style struct {
	Version  int                    `json:"version"`
	Metadata map[string]any         `json:"metadata"`
	Sources  map[string]StyleSource `json:"sources"`
	Sprite   string                 `json:"sprite"`
	Glyphs   string                 `json:"glyphs"`
	Layers   []Layer                `json:"layers"`
}

// StyleSource is a tile or GeoJSON source.
type StyleSource struct {
	Type     string   `json:"type"`
	URL      string   `json:"url,omitempty"`
	Tiles    []string `json:"tiles,omitempty"`
	TileSize int      `json:"tileSize,omitempty"`
	MaxZoom  int      `json:"maxzoom,omitempty"`
	Data     any      `json:"data,omitempty"`
}

// Layer is a style layer.
type Layer struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Source      string         `json:"source,omitempty"`
	SourceLayer string         `json:"source-layer,omitempty"`
	Filter      []any          `json:"filter,omitempty"`
	Layout      map[string]any `json:"layout,omitempty"`
	Paint       map[string]any `json:"paint,omitempty"`
}

// Options are the map constructor options besides container and style.
type Options struct {
	Center             [2]float64 `json:"center"`
	Zoom               float64    `json:"zoom"`
	AttributionControl bool       `json:"attributionControl"`
	DoubleClickZoom    bool       `json:"doubleClickZoom"`
	StyleURL           string     `json:"style"`
}

// DefaultOptions centers the world at zoom 0 with double-click zoom and the
// attribution control turned off.
func DefaultOptions(styleURL string) Options {
	return Options{
		Center:             [2]float64{0, 0},
		Zoom:               0,
		AttributionControl: false,
		DoubleClickZoom:    false,
		StyleURL:           styleURL,
	}
}

// DefaultStyle is the quiz background: a flat land color with water drawn
// from the OpenFreeMap vector tiles.
func DefaultStyle() Style {
	return Style{
		Version:  8,
		Metadata: map[string]any{},
		Sources: map[string]StyleSource{
			"ne2_shaded": {
				Type:     "raster",
				Tiles:    []string{shadedReliefTiles},
				TileSize: 256,
				MaxZoom:  6,
			},
			"openmaptiles": {
				Type: "vector",
				URL:  openFreeMapPlanet,
			},
		},
		Sprite: spriteURL,
		Glyphs: glyphsURL,
		Layers: []Layer{
			{
				ID:     "background",
				Type:   "background",
				Layout: map[string]any{"visibility": "visible"},
				Paint:  map[string]any{"background-color": MustColorToHex("stone-500")},
			},
			{
				ID:          "water",
				Type:        "fill",
				Source:      "openmaptiles",
				SourceLayer: "water",
				Filter: []any{
					"all",
					[]any{"match", []any{"geometry-type"}, []any{"MultiPolygon", "Polygon"}, true, false},
					[]any{"!=", []any{"get", "brunnel"}, "tunnel"},
				},
				Layout: map[string]any{"visibility": "visible"},
				Paint: map[string]any{
					"fill-antialias": true,
					"fill-color":     MustColorToHex("stone-50"),
				},
			},
		},
	}
}
