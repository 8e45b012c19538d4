package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AlanRandon/subdivisions-game/internal/geoshape"
	"github.com/AlanRandon/subdivisions-game/internal/mapview"
	"github.com/AlanRandon/subdivisions-game/internal/quiz"
	"github.com/AlanRandon/subdivisions-game/internal/shell"
	"github.com/AlanRandon/subdivisions-game/internal/timer"
)

const pageTitle = "Subdivisions"

// homeHandler renders whichever screen the session's shell is on.
func (app *App) homeHandler(c *gin.Context) {
	ctx := c.Request.Context()
	ps := app.playerSession(c)
	ps.mu.Lock()
	defer ps.mu.Unlock()

	data := gin.H{"title": pageTitle}
	switch st := ps.Shell.State().(type) {
	case shell.Playing:
		g, _ := app.currentGame(ps)
		data["page"] = PageGame
		data["game"] = quiz.Render(g)
	case shell.Win:
		data["page"] = PageWin
		data["win"] = app.winView(st)
	default:
		data["page"] = PageList
		data["regions"] = ps.Shell.Listing(ctx)
	}
	c.HTML(http.StatusOK, "index.html", data)
}

// playHandler starts a game of the region named in the path.
func (app *App) playHandler(c *gin.Context) {
	ps := app.playerSession(c)
	ps.mu.Lock()
	defer ps.mu.Unlock()

	id := c.Param("id")
	if err := ps.Shell.Play(id); err != nil {
		app.conflict(c, err)
		return
	}
	app.startGame(ps, id)
	reqLog(c.Request.Context()).Info().Str("session", ps.ID).Str("region", id).Msg("game started")
	redirectHome(c)
}

// gameStateHandler renders the game panel as an HTML fragment.
func (app *App) gameStateHandler(c *gin.Context) {
	ps := app.playerSession(c)
	ps.mu.Lock()
	defer ps.mu.Unlock()

	g, ok := app.currentGame(ps)
	if !ok {
		redirectHome(c)
		return
	}
	c.HTML(http.StatusOK, "game-content", gin.H{"game": quiz.Render(g)})
}

// mapReadyHandler attaches the browser's freshly loaded map to the game and
// returns the commands that draw the divisions.
func (app *App) mapReadyHandler(c *gin.Context) {
	ps := app.playerSession(c)
	ps.mu.Lock()
	defer ps.mu.Unlock()

	g, ok := app.currentGame(ps)
	if !ok {
		app.conflict(c, errors.New(ErrorNoGame))
		return
	}
	if g.Status() != quiz.StatusReady {
		c.JSON(http.StatusConflict, gin.H{"error": ErrorGameNotReady, "status": g.Status().String()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"commands": ps.attachMap(g)})
}

// guessHandler submits the typed name to the game.
func (app *App) guessHandler(c *gin.Context) {
	ctx := c.Request.Context()
	ps := app.playerSession(c)
	ps.mu.Lock()
	defer ps.mu.Unlock()

	g, ok := app.currentGame(ps)
	if !ok {
		app.conflict(c, errors.New(ErrorNoGame))
		return
	}

	before := g.FoundCount()
	events := g.Update(quiz.GuessSubmitted{Text: c.PostForm("guess")})
	if g.FoundCount() > before {
		reqLog(ctx).Debug().
			Str("session", ps.ID).
			Int("found", g.FoundCount()).
			Int("total", g.Total()).
			Msg("correct guess")
	}
	setMapCommandsTrigger(c, ps.flushMap())

	left, err := ps.applyEvents(ctx, events)
	if err != nil {
		app.conflict(c, err)
		return
	}
	if left {
		redirectHome(c)
		return
	}
	if !isHTMX(c) {
		redirectHome(c)
		return
	}
	c.HTML(http.StatusOK, "game-content", gin.H{"game": quiz.Render(g)})
}

// quitHandler leaves the current game for the region list.
func (app *App) quitHandler(c *gin.Context) {
	ctx := c.Request.Context()
	ps := app.playerSession(c)
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.Game == nil {
		if err := ps.Shell.Quit(); err != nil {
			app.conflict(c, err)
			return
		}
		redirectHome(c)
		return
	}
	if _, err := ps.applyEvents(ctx, ps.Game.Update(quiz.QuitRequested{})); err != nil {
		app.conflict(c, err)
		return
	}
	reqLog(ctx).Info().Str("session", ps.ID).Msg("game quit")
	redirectHome(c)
}

// backHandler leaves the win screen for the region list.
func (app *App) backHandler(c *gin.Context) {
	ps := app.playerSession(c)
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if err := ps.Shell.Back(); err != nil {
		app.conflict(c, err)
		return
	}
	redirectHome(c)
}

// mapStyleHandler serves the map style document.
func (app *App) mapStyleHandler(c *gin.Context) {
	c.JSON(http.StatusOK, app.Style)
}

// mapOptionsHandler serves the options the browser constructs the map with.
func (app *App) mapOptionsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, mapview.DefaultOptions(RouteMapStyle))
}

// geoshapeHandler serves one geometry resource, <ref>.json.
func (app *App) geoshapeHandler(c *gin.Context) {
	ref, ok := strings.CutSuffix(c.Param("file"), ".json")
	if !ok || !geoshape.ValidRef(ref) {
		c.JSON(http.StatusNotFound, gin.H{"error": ErrorShapeNotFound})
		return
	}
	geo, err := app.Shapes.Fetch(c.Request.Context(), ref)
	switch {
	case errors.Is(err, geoshape.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": ErrorShapeNotFound})
		return
	case err != nil:
		reqLog(c.Request.Context()).Warn().Err(err).Str("ref", ref).Msg("geoshape fetch failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": ErrorShapeUnavailable})
		return
	}
	c.JSON(http.StatusOK, geo)
}

// healthzHandler returns a JSON health check with server stats.
func (app *App) healthzHandler(c *gin.Context) {
	uptime := time.Since(app.StartTime)
	c.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"env":               envName(app.IsProduction),
		"regions_loaded":    app.Catalog.Len(),
		"divisions_loaded":  app.Catalog.DivisionCount(),
		"sessions":          app.sessionCount(),
		"best_time_backend": app.BestTimeBackend,
		"uptime":            formatUptime(uptime),
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
	})
}

// WinView is what the win screen draws.
type WinView struct {
	RegionID   string
	RegionName string
	Time       string
}

func (app *App) winView(st shell.Win) WinView {
	v := WinView{RegionID: st.ID, RegionName: st.ID, Time: timer.Format(st.Time)}
	if r, err := app.Catalog.Lookup(st.ID); err == nil {
		v.RegionName = r.Name
	}
	return v
}

// conflict answers an event the session's current screen does not accept.
func (app *App) conflict(c *gin.Context, err error) {
	reqLog(c.Request.Context()).Warn().Err(err).Str("path", c.FullPath()).Msg("rejected event")
	setTrigger(c, map[string]any{TriggerServerError: ErrorInvalidTransition})
	c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": ErrorInvalidTransition})
}

// redirectHome sends the browser back to the page for the current screen.
func redirectHome(c *gin.Context) {
	if isHTMX(c) {
		c.Header("HX-Redirect", RouteHome)
		c.Status(http.StatusOK)
		return
	}
	c.Redirect(http.StatusSeeOther, RouteHome)
}

func setMapCommandsTrigger(c *gin.Context, cmds []mapview.Command) {
	if len(cmds) == 0 {
		return
	}
	setTrigger(c, map[string]any{TriggerMapCommands: cmds})
}

func setTrigger(c *gin.Context, payload map[string]any) {
	b, err := json.Marshal(payload)
	if err != nil {
		logWarn("Failed to marshal HX-Trigger payload: %v", err)
		return
	}
	c.Header("HX-Trigger", string(b))
}
