package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/AlanRandon/subdivisions-game/internal/geoshape"
	"github.com/AlanRandon/subdivisions-game/internal/mapview"
	"github.com/AlanRandon/subdivisions-game/internal/quiz"
	"github.com/AlanRandon/subdivisions-game/internal/shell"
)

// startGame replaces the session's game with a new game of regionID and
// starts loading its geoshapes in the background. ps.mu must be held.
func (app *App) startGame(ps *PlayerSession, regionID string) *quiz.Game {
	ps.stopLoad()
	g := quiz.New(app.Catalog, regionID, app.Clock)
	ps.Game = g
	ps.Map = nil
	if g.Status() != quiz.StatusLoading {
		return g
	}

	ctx, cancel := context.WithTimeout(app.loadCtx, GameLoadTimeout)
	ps.cancelLoad = cancel
	region := g.Region()
	logger := log.With().Str("session", ps.ID).Str("region", regionID).Logger()

	app.loads.Add(1)
	go func() {
		defer app.loads.Done()
		defer cancel()
		shapes, err := geoshape.LoadAll(ctx, app.Shapes, region)

		ps.mu.Lock()
		defer ps.mu.Unlock()
		if ps.Game != g {
			logger.Debug().Msg("dropping geoshapes for a game that is no longer current")
			return
		}
		ps.cancelLoad = nil
		g.Update(quiz.FetchCompleted{Shapes: shapes, Err: err})
		logger.Debug().Stringer("status", g.Status()).Msg("game load finished")
	}()
	return g
}

// currentGame returns the game being played, starting one if the shell is
// playing but the session has none. ps.mu must be held.
func (app *App) currentGame(ps *PlayerSession) (*quiz.Game, bool) {
	playing, ok := ps.Shell.State().(shell.Playing)
	if !ok {
		return nil, false
	}
	if ps.Game == nil || ps.Game.RegionID() != playing.ID {
		return app.startGame(ps, playing.ID), true
	}
	return ps.Game, true
}

// endGame drops the session's game. ps.mu must be held.
func (ps *PlayerSession) endGame() {
	ps.stopLoad()
	ps.Game = nil
	ps.Map = nil
}

// attachMap gives the game a fresh renderer and returns the commands that
// draw its divisions. ps.mu must be held.
func (ps *PlayerSession) attachMap(g *quiz.Game) []mapview.Command {
	buf := mapview.NewCommandBuffer()
	ps.Map = buf
	g.Update(quiz.MapReady{Renderer: buf})
	return buf.Flush()
}

// flushMap returns the renderer commands queued since the last flush.
// ps.mu must be held.
func (ps *PlayerSession) flushMap() []mapview.Command {
	if ps.Map == nil {
		return nil
	}
	return ps.Map.Flush()
}

// applyEvents feeds the game's events to the shell. It reports whether the
// shell left the game. ps.mu must be held.
func (ps *PlayerSession) applyEvents(ctx context.Context, events []quiz.Event) (bool, error) {
	left := false
	for _, ev := range events {
		switch e := ev.(type) {
		case quiz.Won:
			ps.Shell.MustWon(ctx, e.Time)
			ps.endGame()
			left = true
		case quiz.Quit:
			if err := ps.Shell.Quit(); err != nil {
				return left, err
			}
			ps.endGame()
			left = true
		}
	}
	return left, nil
}
