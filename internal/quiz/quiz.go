// Package quiz is the state of one game: which divisions of a region have
// been named, the map paint that goes with it, and the game timer.
//
// A Game is driven by messages passed to Update and drawn by Render. Update
// is the only place state changes; Render never mutates.
package quiz

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/AlanRandon/subdivisions-game/internal/dataset"
	"github.com/AlanRandon/subdivisions-game/internal/geoshape"
	"github.com/AlanRandon/subdivisions-game/internal/mapview"
	"github.com/AlanRandon/subdivisions-game/internal/timer"
)

// FillOpacity is the opacity of every division layer.
const FillOpacity = 0.9

type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// DivisionState is one division of the game being played.
type DivisionState struct {
	Division *dataset.Division
	Geoshape geoshape.Geometry
	Found    bool
}

// Msg is an input to Update.
type Msg interface{ isMsg() }

// FetchCompleted carries the result of the geometry batch load.
type FetchCompleted struct {
	Shapes map[string]geoshape.Geometry
	Err    error
}

// MapReady reports that the map finished loading its style.
type MapReady struct {
	Renderer mapview.Renderer
}

// GuessSubmitted is a name typed by the player.
type GuessSubmitted struct {
	Text string
}

// QuitRequested is the player leaving the game.
type QuitRequested struct{}

func (FetchCompleted) isMsg() {}
func (MapReady) isMsg()       {}
func (GuessSubmitted) isMsg() {}
func (QuitRequested) isMsg()  {}

// Event is an output of Update for the surrounding app.
type Event interface{ isEvent() }

// Won is raised once, when the last division is found.
type Won struct {
	Time time.Duration
}

// Quit is raised when the player leaves.
type Quit struct{}

func (Won) isEvent()  {}
func (Quit) isEvent() {}

// Game is the state of one play of one region.
type Game struct {
	regionID  string
	region    *dataset.Region
	names     map[string]*dataset.Division
	divisions map[string]*DivisionState
	found     []*dataset.Division
	timer     *timer.Timer
	renderer  mapview.Renderer
	status    Status
	err       error
	input     string
	won       bool
}

// New starts a game of regionID. An unknown id gives a game that is already
// failed with dataset.ErrRegionNotFound.
func New(catalog *dataset.Catalog, regionID string, clock clockwork.Clock) *Game {
	g := &Game{
		regionID: regionID,
		timer:    timer.New(clock),
		status:   StatusLoading,
	}
	region, err := catalog.Lookup(regionID)
	if err != nil {
		g.fail(err)
		return g
	}
	g.region = region
	g.names = dataset.BuildNameIndex(region)
	return g
}

func (g *Game) RegionID() string { return g.regionID }

// Region is nil when the region id was unknown.
func (g *Game) Region() *dataset.Region { return g.region }

func (g *Game) Status() Status { return g.status }

func (g *Game) Err() error { return g.err }

func (g *Game) HasWon() bool { return g.won }

func (g *Game) FoundCount() int { return len(g.found) }

func (g *Game) Total() int {
	if g.region == nil {
		return 0
	}
	return len(g.region.Divisions)
}

// Elapsed is the timer reading.
func (g *Game) Elapsed() time.Duration { return g.timer.Duration() }

func (g *Game) fail(err error) {
	g.status = StatusFailed
	g.err = err
	log.Warn().Err(err).Str("region", g.regionID).Msg("game failed")
}

// Update applies msg and returns the events it raised.
func (g *Game) Update(msg Msg) []Event {
	switch m := msg.(type) {
	case FetchCompleted:
		g.fetchCompleted(m)
	case MapReady:
		g.mapReady(m.Renderer)
	case GuessSubmitted:
		return g.guess(m.Text)
	case QuitRequested:
		return []Event{Quit{}}
	}
	return nil
}

func (g *Game) fetchCompleted(m FetchCompleted) {
	if g.status != StatusLoading {
		log.Debug().Str("region", g.regionID).Msg("ignoring fetch result, game not loading")
		return
	}
	if m.Err != nil {
		g.fail(m.Err)
		return
	}
	states := make(map[string]*DivisionState, len(g.region.Divisions))
	for i := range g.region.Divisions {
		d := &g.region.Divisions[i]
		shape, ok := m.Shapes[d.ID]
		if !ok {
			g.fail(fmt.Errorf("no geoshape for division %s", d.ID))
			return
		}
		states[d.ID] = &DivisionState{Division: d, Geoshape: shape}
	}
	g.divisions = states
	g.found = nil
	g.status = StatusReady
}

func (g *Game) mapReady(r mapview.Renderer) {
	if g.status != StatusReady || r == nil {
		return
	}
	g.renderer = r
	for i := range g.region.Divisions {
		state := g.divisions[g.region.Divisions[i].ID]
		id := state.Division.ID
		if err := r.AddSource(id, state.Geoshape); err != nil {
			log.Warn().Err(err).Str("division", id).Msg("add source failed")
			continue
		}
		color := mapview.ColorFail
		if state.Found {
			color = mapview.ColorSuccess
		}
		err := r.AddFillLayer(mapview.FillLayer{
			ID:           id,
			Source:       id,
			Color:        color,
			OutlineColor: mapview.ColorBorder,
			Opacity:      FillOpacity,
		})
		if err != nil {
			log.Warn().Err(err).Str("division", id).Msg("add layer failed")
		}
	}
}

func (g *Game) guess(text string) []Event {
	if g.status != StatusReady {
		return nil
	}
	g.input = text

	d, ok := g.names[dataset.NormalizeName(text)]
	if !ok {
		return nil
	}
	state := g.divisions[d.ID]
	if state.Found {
		return nil
	}

	if g.renderer != nil {
		if err := g.renderer.SetPaintProperty(d.ID, mapview.PropFillColor, mapview.ColorSuccess); err != nil {
			log.Warn().Err(err).Str("division", d.ID).Msg("repaint failed")
		}
	}
	state.Found = true
	g.found = append(g.found, d)
	g.input = ""
	if !g.timer.Started() {
		g.timer.Start()
	}
	log.Debug().
		Str("region", g.regionID).
		Str("division", d.ID).
		Int("found", len(g.found)).
		Int("total", len(g.divisions)).
		Msg("division found")

	if len(g.found) == len(g.divisions) && !g.won {
		g.won = true
		return []Event{Won{Time: g.timer.Duration()}}
	}
	return nil
}
