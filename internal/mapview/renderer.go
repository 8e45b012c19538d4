package mapview

import (
	"errors"
	"fmt"
	"sync"

	"github.com/AlanRandon/subdivisions-game/internal/geoshape"
)

var (
	// ErrDuplicateID is returned when a source or layer id is already in use.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrUnknownID is returned when a command references a missing source or layer.
	ErrUnknownID = errors.New("unknown id")
)

// Fill layer paint properties.
const (
	PropFillColor        = "fill-color"
	PropFillOutlineColor = "fill-outline-color"
	PropFillOpacity      = "fill-opacity"
)

// Renderer is the part of the map library the game drives.
type Renderer interface {
	AddSource(id string, geometry geoshape.Geometry) error
	AddFillLayer(layer FillLayer) error
	SetPaintProperty(layerID, property string, value any) error
}

// FillLayer paints one GeoJSON source.
type FillLayer struct {
	ID           string
	Source       string
	Color        string
	OutlineColor string
	Opacity      float64
}

// Command op codes, named after the map library methods they replay as.
const (
	OpAddSource        = "addSource"
	OpAddLayer         = "addLayer"
	OpSetPaintProperty = "setPaintProperty"
)

// Command is one renderer call, serialized for the browser.
type Command struct {
	Op       string       `json:"op"`
	ID       string       `json:"id"`
	Source   *StyleSource `json:"source,omitempty"`
	Layer    *Layer       `json:"layer,omitempty"`
	Property string       `json:"property,omitempty"`
	Value    any          `json:"value,omitempty"`
}

// CommandBuffer records renderer calls until they are flushed to the
// browser. It enforces the same id rules the map library does.
type CommandBuffer struct {
	mu       sync.Mutex
	commands []Command
	sources  map[string]struct{}
	layers   map[string]struct{}
}

func NewCommandBuffer() *CommandBuffer {
	return &CommandBuffer{
		sources: make(map[string]struct{}),
		layers:  make(map[string]struct{}),
	}
}

func (b *CommandBuffer) AddSource(id string, geometry geoshape.Geometry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.sources[id]; ok {
		return fmt.Errorf("%w: source %q", ErrDuplicateID, id)
	}
	b.sources[id] = struct{}{}
	b.commands = append(b.commands, Command{
		Op:     OpAddSource,
		ID:     id,
		Source: &StyleSource{Type: "geojson", Data: geometry},
	})
	return nil
}

func (b *CommandBuffer) AddFillLayer(layer FillLayer) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.layers[layer.ID]; ok {
		return fmt.Errorf("%w: layer %q", ErrDuplicateID, layer.ID)
	}
	if _, ok := b.sources[layer.Source]; !ok {
		return fmt.Errorf("%w: source %q", ErrUnknownID, layer.Source)
	}
	b.layers[layer.ID] = struct{}{}
	b.commands = append(b.commands, Command{
		Op: OpAddLayer,
		ID: layer.ID,
		Layer: &Layer{
			ID:     layer.ID,
			Type:   "fill",
			Source: layer.Source,
			Paint: map[string]any{
				PropFillOutlineColor: layer.OutlineColor,
				PropFillColor:        layer.Color,
				PropFillOpacity:      layer.Opacity,
			},
		},
	})
	return nil
}

func (b *CommandBuffer) SetPaintProperty(layerID, property string, value any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.layers[layerID]; !ok {
		return fmt.Errorf("%w: layer %q", ErrUnknownID, layerID)
	}
	b.commands = append(b.commands, Command{
		Op:       OpSetPaintProperty,
		ID:       layerID,
		Property: property,
		Value:    value,
	})
	return nil
}

// Flush returns the pending commands and clears them. Known ids are kept.
func (b *CommandBuffer) Flush() []Command {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.commands
	b.commands = nil
	if out == nil {
		out = []Command{}
	}
	return out
}
