package mapview

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/AlanRandon/subdivisions-game/internal/geoshape"
)

func TestColorToHex(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"green-300", "#86efac"},
		{"stone-700", "#44403c"},
		{"Stone-50", "#fafaf9"},
		{"white", "#ffffff"},
		{"navy", "#000080"},
		{"#0f0", "#00ff00"},
		{"#1C1917", "#1c1917"},
	}
	for _, tt := range tests {
		got, err := ColorToHex(tt.input)
		if err != nil {
			t.Errorf("ColorToHex(%q) error = %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ColorToHex(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}

	for _, bad := range []string{"", "not-a-color", "#12", "#gggggg"} {
		if _, err := ColorToHex(bad); !errors.Is(err, ErrUnknownColor) {
			t.Errorf("ColorToHex(%q) error = %v, want ErrUnknownColor", bad, err)
		}
	}
}

func TestMustColorToHexPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustColorToHex(unknown) did not panic")
		}
	}()
	MustColorToHex("not-a-color")
}

func TestDefaultStyle(t *testing.T) {
	style := DefaultStyle()
	if style.Version != 8 {
		t.Errorf("Version = %d, want 8", style.Version)
	}
	ids := []string{}
	for _, l := range style.Layers {
		ids = append(ids, l.ID)
	}
	if diff := cmp.Diff([]string{"background", "water"}, ids); diff != "" {
		t.Errorf("layers mismatch (-want +got):\n%s", diff)
	}
	if _, ok := style.Sources["openmaptiles"]; !ok {
		t.Error("water layer source openmaptiles missing")
	}
	data, err := json.Marshal(style)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"source-layer":"water"`) {
		t.Errorf("style JSON missing water source-layer: %s", data)
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions("/map/style.json")
	if opts.DoubleClickZoom || opts.AttributionControl {
		t.Error("double click zoom and attribution control must be disabled")
	}
	if opts.Zoom != 0 || opts.Center != [2]float64{0, 0} {
		t.Errorf("center/zoom = %v/%v, want [0 0]/0", opts.Center, opts.Zoom)
	}
}

func TestCommandBuffer(t *testing.T) {
	geo, err := geoshape.Decode([]byte(`{"type":"Polygon","coordinates":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	b := NewCommandBuffer()

	if err := b.AddFillLayer(FillLayer{ID: "a", Source: "a"}); !errors.Is(err, ErrUnknownID) {
		t.Errorf("AddFillLayer() before source error = %v, want ErrUnknownID", err)
	}
	if err := b.SetPaintProperty("a", PropFillColor, ColorSuccess); !errors.Is(err, ErrUnknownID) {
		t.Errorf("SetPaintProperty() on missing layer error = %v, want ErrUnknownID", err)
	}
	if err := b.AddSource("a", geo); err != nil {
		t.Fatalf("AddSource() error = %v", err)
	}
	if err := b.AddSource("a", geo); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("duplicate AddSource() error = %v, want ErrDuplicateID", err)
	}
	if err := b.AddFillLayer(FillLayer{ID: "a", Source: "a", Color: ColorFail, OutlineColor: ColorBorder, Opacity: 0.9}); err != nil {
		t.Fatalf("AddFillLayer() error = %v", err)
	}

	cmds := b.Flush()
	if len(cmds) != 2 || cmds[0].Op != OpAddSource || cmds[1].Op != OpAddLayer {
		t.Fatalf("Flush() = %+v, want addSource then addLayer", cmds)
	}
	if cmds[1].Layer.Paint[PropFillColor] != ColorFail {
		t.Errorf("initial fill = %v, want %s", cmds[1].Layer.Paint[PropFillColor], ColorFail)
	}
	if got := b.Flush(); len(got) != 0 {
		t.Errorf("second Flush() = %v, want empty", got)
	}

	if err := b.SetPaintProperty("a", PropFillColor, ColorSuccess); err != nil {
		t.Fatalf("SetPaintProperty() error = %v", err)
	}
	data, _ := json.Marshal(b.Flush())
	want := `[{"op":"setPaintProperty","id":"a","property":"fill-color","value":"` + ColorSuccess + `"}]`
	if string(data) != want {
		t.Errorf("command JSON = %s, want %s", data, want)
	}
}
