package main

import "time"

// Session configuration constants
const (
	SessionCookieName = "session_id"
)

// Route constants
const (
	RouteHome       = "/"
	RoutePlay       = "/play/:id"
	RouteGameState  = "/game/state"
	RouteMapReady   = "/game/map-ready"
	RouteGuess      = "/game/guess"
	RouteQuit       = "/game/quit"
	RouteBack       = "/back"
	RouteMapStyle   = "/map/style.json"
	RouteMapOptions = "/map/options.json"
	RouteGeoshape   = "/data/geoshape/:file"
	RouteHealthz    = "/healthz"
)

// Page names understood by index.html
const (
	PageList = "list"
	PageGame = "game"
	PageWin  = "win"
)

// HX-Trigger event names
const (
	TriggerMapCommands = "map-commands"
	TriggerServerError = "server_error"
	TriggerRateLimit   = "rate-limit-exceeded"
)

// Error message constants
const (
	ErrorNoGame            = "No game in progress."
	ErrorGameNotReady      = "The map data is still loading."
	ErrorInvalidTransition = "That action is not available right now."
	ErrorShapeNotFound     = "Shape not found."
	ErrorShapeUnavailable  = "Shape could not be loaded."
)

// Best-time backends
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// GameLoadTimeout bounds the geoshape load of one game.
const GameLoadTimeout = 2 * time.Minute

// Context key constants
const (
	requestIDKey contextKey = "request_id"
)
