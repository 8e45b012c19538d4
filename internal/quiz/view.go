package quiz

import (
	"strings"

	"github.com/AlanRandon/subdivisions-game/internal/timer"
)

// View is everything the game templates draw.
type View struct {
	Status     string
	Error      string
	RegionID   string
	RegionName string
	FoundCount int
	Total      int
	Timer      TimerView
	Found      []FoundView
	Input      string
	Won        bool
}

type TimerView struct {
	Display string
	Running bool
	// StartedAtMillis lets the page tick the clock between renders.
	StartedAtMillis int64
}

type FoundView struct {
	ID            string
	PreferredName string
	Names         string
}

func (v View) Loading() bool { return v.Status == StatusLoading.String() }
func (v View) Failed() bool  { return v.Status == StatusFailed.String() }
func (v View) Ready() bool   { return v.Status == StatusReady.String() }

// Render draws g. Found divisions are listed newest first.
func Render(g *Game) View {
	v := View{
		Status:     g.status.String(),
		RegionID:   g.regionID,
		FoundCount: len(g.found),
		Total:      g.Total(),
		Input:      g.input,
		Won:        g.won,
		Timer: TimerView{
			Display: timer.Format(g.timer.Duration()),
			Running: g.timer.Started(),
		},
	}
	if g.timer.Started() {
		v.Timer.StartedAtMillis = g.timer.StartedAt().UnixMilli()
	}
	if g.err != nil {
		v.Error = g.err.Error()
	}
	if g.region != nil {
		v.RegionName = g.region.Name
	}
	v.Found = make([]FoundView, 0, len(g.found))
	for i := len(g.found) - 1; i >= 0; i-- {
		d := g.found[i]
		v.Found = append(v.Found, FoundView{
			ID:            d.ID,
			PreferredName: d.PreferredName,
			Names:         strings.Join(d.Names, "; "),
		})
	}
	return v
}
