// Package shell is the top-level screen state of one player: the region
// list, a game in progress, or the win screen.
package shell

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/AlanRandon/subdivisions-game/internal/besttime"
	"github.com/AlanRandon/subdivisions-game/internal/dataset"
	"github.com/AlanRandon/subdivisions-game/internal/timer"
)

// NotCompleted is shown for regions with no stored best time.
const NotCompleted = "Not yet completed"

// ErrInvalidTransition is returned when an event arrives in a state that
// does not accept it.
var ErrInvalidTransition = errors.New("invalid transition")

// State is one of List, Playing or Win.
type State interface{ isState() }

type List struct{}

type Playing struct {
	ID string
}

type Win struct {
	ID   string
	Time time.Duration
}

func (List) isState()    {}
func (Playing) isState() {}
func (Win) isState()     {}

// Shell owns the State of one player and their view of the best times.
type Shell struct {
	state   State
	store   besttime.Store
	catalog *dataset.Catalog
}

func New(catalog *dataset.Catalog, store besttime.Store) *Shell {
	return &Shell{state: List{}, store: store, catalog: catalog}
}

func (s *Shell) State() State { return s.state }

func invalid(event string, state State) error {
	return fmt.Errorf("%w: %s in state %T", ErrInvalidTransition, event, state)
}

// Play starts a game of id. Unknown ids still transition; the game shows
// the error.
func (s *Shell) Play(id string) error {
	if _, ok := s.state.(List); !ok {
		return invalid("play", s.state)
	}
	s.state = Playing{ID: id}
	return nil
}

// Won records d as the best time of the region being played if it beats the
// stored one, then moves to the win screen.
func (s *Shell) Won(ctx context.Context, d time.Duration) error {
	p, ok := s.state.(Playing)
	if !ok {
		return invalid("won", s.state)
	}
	updated, err := besttime.Record(ctx, s.store, p.ID, d)
	if err != nil {
		// The win stands even when it could not be saved.
		log.Warn().Err(err).Str("region", p.ID).Msg("failed to record best time")
	} else if updated {
		log.Info().Str("region", p.ID).Dur("time", d).Msg("new best time")
	}
	s.state = Win{ID: p.ID, Time: d}
	return nil
}

// MustWon is Won for wins raised in-process, where a mismatched state is a bug.
func (s *Shell) MustWon(ctx context.Context, d time.Duration) {
	if err := s.Won(ctx, d); err != nil {
		panic(err)
	}
}

// Quit leaves a game for the list.
func (s *Shell) Quit() error {
	if _, ok := s.state.(Playing); !ok {
		return invalid("quit", s.state)
	}
	s.state = List{}
	return nil
}

// Back leaves the win screen for the list.
func (s *Shell) Back() error {
	if _, ok := s.state.(Win); !ok {
		return invalid("back", s.state)
	}
	s.state = List{}
	return nil
}

// Entry is one row of the region list.
type Entry struct {
	ID       string
	Name     string
	Count    int
	BestTime string
	Complete bool
}

// Listing returns every region with its stored best time. A store error is
// logged and shown as not completed.
func (s *Shell) Listing(ctx context.Context) []Entry {
	return lo.Map(s.catalog.Regions(), func(r *dataset.Region, _ int) Entry {
		e := Entry{ID: r.ID, Name: r.Name, Count: len(r.Divisions), BestTime: NotCompleted}
		d, ok, err := besttime.Best(ctx, s.store, r.ID)
		if err != nil {
			log.Warn().Err(err).Str("region", r.ID).Msg("failed to read best time")
			return e
		}
		if ok {
			e.BestTime = timer.Format(d)
			e.Complete = true
		}
		return e
	})
}
