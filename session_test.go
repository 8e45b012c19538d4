package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/AlanRandon/subdivisions-game/internal/besttime"
	"github.com/AlanRandon/subdivisions-game/internal/shell"
)

func addSession(app *App, id string, lastAccess time.Time) *PlayerSession {
	ps := &PlayerSession{
		ID:             id,
		Shell:          shell.New(app.Catalog, besttime.Scoped(app.BestTimes, id)),
		LastAccessTime: lastAccess,
	}
	app.SessionMutex.Lock()
	app.Sessions[id] = ps
	app.SessionMutex.Unlock()
	return ps
}

func TestCleanupSessions(t *testing.T) {
	app, clock := newTestApp(t)
	now := clock.Now()
	addSession(app, "fresh-session", now.Add(-time.Minute))
	addSession(app, "stale-session", now.Add(-2*time.Hour))

	if n := app.cleanupSessions(now); n != 1 {
		t.Errorf("cleanupSessions() = %d, want 1", n)
	}
	if _, ok := app.Sessions["stale-session"]; ok {
		t.Error("stale session was not evicted")
	}
	if _, ok := app.Sessions["fresh-session"]; !ok {
		t.Error("fresh session was evicted")
	}
}

func TestCleanupStopsGameLoad(t *testing.T) {
	app, clock := newTestAppWith(t, blockingSource{})
	ps := addSession(app, "loading-session", clock.Now().Add(-3*time.Hour))
	ps.mu.Lock()
	if err := ps.Shell.Play("fr"); err != nil {
		t.Fatal(err)
	}
	app.startGame(ps, "fr")
	ps.mu.Unlock()

	app.cleanupSessions(clock.Now())

	done := make(chan struct{})
	go func() {
		app.loads.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("evicting the session did not stop its load")
	}
}

func TestSessionJanitor(t *testing.T) {
	app, clock := newTestApp(t)
	addSession(app, "stale-session", clock.Now())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go app.runSessionJanitor(ctx)

	waitCtx, waitCancel := context.WithTimeout(ctx, 5*time.Second)
	defer waitCancel()
	if err := clock.BlockUntilContext(waitCtx, 1); err != nil {
		t.Fatalf("janitor never started its ticker: %v", err)
	}
	clock.Advance(app.SessionTimeout + app.SessionCleanupInterval)

	deadline := time.Now().Add(5 * time.Second)
	for app.sessionCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("janitor did not evict the idle session")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSessionCookieIsReused(t *testing.T) {
	app, _ := newTestApp(t)
	tc := newTestClient(t, app.setupRouter())

	tc.get(RouteHome)
	first := tc.cookie
	if first == nil || first.SameSite != http.SameSiteStrictMode || !first.HttpOnly {
		t.Fatalf("session cookie = %+v, want HttpOnly SameSite=Strict", first)
	}
	tc.get(RouteHome)
	if app.sessionCount() != 1 {
		t.Errorf("sessionCount() = %d, want 1", app.sessionCount())
	}
}

func TestStaleLoadResultIsDropped(t *testing.T) {
	app, _ := newTestApp(t)
	ps := addSession(app, "replay-session", time.Now())

	ps.mu.Lock()
	_ = ps.Shell.Play("fr")
	first := app.startGame(ps, "fr")
	second := app.startGame(ps, "fr")
	ps.mu.Unlock()
	app.loads.Wait()

	if first == second {
		t.Fatal("startGame should create a new game")
	}
	if ps.Game != second {
		t.Error("the latest game should be current")
	}
	if second.Status().String() != "ready" {
		t.Errorf("current game status = %v, want ready", second.Status())
	}
	if first.Status().String() != "loading" {
		t.Errorf("replaced game status = %v, want loading", first.Status())
	}
}
