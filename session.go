package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AlanRandon/subdivisions-game/internal/besttime"
	"github.com/AlanRandon/subdivisions-game/internal/shell"
)

// getOrCreateSession retrieves the session ID from the cookie or creates a new one.
func (app *App) getOrCreateSession(c *gin.Context) string {
	sessionID, err := c.Cookie(SessionCookieName)
	if err != nil || len(sessionID) < 10 {
		sessionID = uuid.NewString()
		c.SetSameSite(http.SameSiteStrictMode)
		secure := app.IsProduction
		c.SetCookie(SessionCookieName, sessionID, int(app.CookieMaxAge.Seconds()), "/", "", secure, true)
		reqLog(c.Request.Context()).Info().Str("session", sessionID).Msg("created new session")
	}
	return sessionID
}

// playerSession returns the session for the request's cookie, creating it
// on first use, and marks it as accessed.
func (app *App) playerSession(c *gin.Context) *PlayerSession {
	sessionID := app.getOrCreateSession(c)
	now := app.Clock.Now()

	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()
	ps, ok := app.Sessions[sessionID]
	if !ok {
		ps = &PlayerSession{
			ID:    sessionID,
			Shell: shell.New(app.Catalog, besttime.Scoped(app.BestTimes, sessionID)),
		}
		app.Sessions[sessionID] = ps
	}
	ps.LastAccessTime = now
	return ps
}

// sessionCount returns the number of live sessions.
func (app *App) sessionCount() int {
	app.SessionMutex.RLock()
	defer app.SessionMutex.RUnlock()
	return len(app.Sessions)
}

// cleanupSessions evicts sessions idle for longer than SessionTimeout and
// stops their game loads. It returns the number evicted.
func (app *App) cleanupSessions(now time.Time) int {
	cutoff := now.Add(-app.SessionTimeout)

	app.SessionMutex.Lock()
	var evicted []*PlayerSession
	for id, ps := range app.Sessions {
		if ps.LastAccessTime.Before(cutoff) {
			evicted = append(evicted, ps)
			delete(app.Sessions, id)
		}
	}
	app.SessionMutex.Unlock()

	for _, ps := range evicted {
		ps.mu.Lock()
		ps.stopLoad()
		ps.mu.Unlock()
	}
	if len(evicted) > 0 {
		logInfo("Session cleanup completed: removed %d idle sessions", len(evicted))
	}
	return len(evicted)
}

// runSessionJanitor calls cleanupSessions every SessionCleanupInterval until
// ctx is done.
func (app *App) runSessionJanitor(ctx context.Context) {
	ticker := app.Clock.NewTicker(app.SessionCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.Chan():
			app.cleanupSessions(now)
		}
	}
}

// stopLoad cancels the in-flight game load, if any. ps.mu must be held.
func (ps *PlayerSession) stopLoad() {
	if ps.cancelLoad != nil {
		ps.cancelLoad()
		ps.cancelLoad = nil
	}
}
