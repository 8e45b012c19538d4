package main

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"github.com/AlanRandon/subdivisions-game/internal/besttime"
	"github.com/AlanRandon/subdivisions-game/internal/dataset"
	"github.com/AlanRandon/subdivisions-game/internal/geoshape"
	"github.com/AlanRandon/subdivisions-game/internal/mapview"
	"github.com/AlanRandon/subdivisions-game/internal/quiz"
	"github.com/AlanRandon/subdivisions-game/internal/shell"
)

type contextKey string

// Config is the server configuration read from the environment.
type Config struct {
	Port                   string
	IsProduction           bool
	LogLevel               string
	DataPath               string
	GeoshapeDir            string
	GeoshapeBaseURL        string
	BestTimeBackend        string
	BestTimeDir            string
	BestTimeSQLitePath     string
	SessionTimeout         time.Duration
	SessionCleanupInterval time.Duration
	CookieMaxAge           time.Duration
	StaticCacheAge         time.Duration
	RateLimitRPS           int
	RateLimitBurst         int
}

// App holds everything the handlers share.
type App struct {
	Config

	Catalog   *dataset.Catalog
	Shapes    geoshape.Source
	BestTimes besttime.Store
	Style     mapview.Style
	Clock     clockwork.Clock
	StartTime time.Time

	Sessions     map[string]*PlayerSession
	SessionMutex sync.RWMutex

	LimiterMap   map[string]*rate.Limiter
	LimiterMutex sync.Mutex

	// loadCtx is the parent of every game load; cancelling it stops them all.
	loadCtx    context.Context
	stopLoads  context.CancelFunc
	loads      sync.WaitGroup
	closers    []io.Closer
	closeMutex sync.Mutex
}

// PlayerSession is the state of one cookie. Everything but LastAccessTime is
// guarded by mu; LastAccessTime is guarded by App.SessionMutex.
type PlayerSession struct {
	mu sync.Mutex

	ID         string
	Shell      *shell.Shell
	Game       *quiz.Game
	Map        *mapview.CommandBuffer
	cancelLoad context.CancelFunc

	LastAccessTime time.Time
}
