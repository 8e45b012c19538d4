package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"
	"golang.org/x/time/rate"

	"github.com/AlanRandon/subdivisions-game/internal/besttime"
	"github.com/AlanRandon/subdivisions-game/internal/dataset"
	"github.com/AlanRandon/subdivisions-game/internal/geoshape"
	"github.com/AlanRandon/subdivisions-game/internal/mapview"
)

func main() {
	_ = godotenv.Load()

	cfg := loadConfig()
	setupLogging(cfg.IsProduction, cfg.LogLevel)
	logInfo("Starting subdivisions game in %s mode", envName(cfg.IsProduction))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg)
	if err != nil {
		logFatal("Failed to start: %v", err)
	}
	logInfo("Loaded %d regions with %d divisions", app.Catalog.Len(), app.Catalog.DivisionCount())

	go app.runSessionJanitor(ctx)
	app.startServer(ctx, app.setupRouter())
	app.Close()
}

// loadConfig reads the server configuration from the environment.
func loadConfig() Config {
	return Config{
		Port:                   getEnv("PORT", "8080"),
		IsProduction:           os.Getenv("GIN_MODE") == "release" || os.Getenv("ENV") == "production",
		LogLevel:               os.Getenv("LOG_LEVEL"),
		DataPath:               getEnv("DATA_PATH", "data/data.json"),
		GeoshapeDir:            getEnv("GEOSHAPE_DIR", "data/geoshape"),
		GeoshapeBaseURL:        os.Getenv("GEOSHAPE_BASE_URL"),
		BestTimeBackend:        getEnv("BEST_TIME_BACKEND", BackendMemory),
		BestTimeDir:            getEnv("BEST_TIME_DIR", "data/best-times"),
		BestTimeSQLitePath:     getEnv("BEST_TIME_SQLITE_PATH", "data/best-times.db"),
		SessionTimeout:         getEnvDuration("SESSION_TIMEOUT", 2*time.Hour),
		SessionCleanupInterval: getEnvDuration("SESSION_CLEANUP_INTERVAL", 10*time.Minute),
		CookieMaxAge:           getEnvDuration("COOKIE_MAX_AGE", 30*24*time.Hour),
		StaticCacheAge:         getEnvDuration("STATIC_CACHE_AGE", 5*time.Minute),
		RateLimitRPS:           getEnvInt("RATE_LIMIT_RPS", 10),
		RateLimitBurst:         getEnvInt("RATE_LIMIT_BURST", 20),
	}
}

// newApp loads the dataset and opens the geoshape source and best-time store
// named by cfg.
func newApp(ctx context.Context, cfg Config) (*App, error) {
	catalog, err := dataset.Load(cfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	var shapes geoshape.Source
	if cfg.GeoshapeBaseURL != "" {
		logInfo("Fetching geoshapes from %s", cfg.GeoshapeBaseURL)
		shapes = geoshape.NewHTTPSource(cfg.GeoshapeBaseURL)
	} else {
		if !dirExists(cfg.GeoshapeDir) {
			logWarn("Geoshape directory %s does not exist, every game will fail to load", cfg.GeoshapeDir)
		}
		shapes = geoshape.DirSource{Dir: cfg.GeoshapeDir}
	}

	store, closer, err := openBestTimeStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := newAppWith(cfg, catalog, shapes, store, clockwork.NewRealClock())
	if closer != nil {
		app.closers = append(app.closers, closer)
	}
	return app, nil
}

// newAppWith assembles an App from already opened parts.
func newAppWith(cfg Config, catalog *dataset.Catalog, shapes geoshape.Source, store besttime.Store, clock clockwork.Clock) *App {
	loadCtx, stopLoads := context.WithCancel(context.Background())
	return &App{
		Config:     cfg,
		Catalog:    catalog,
		Shapes:     shapes,
		BestTimes:  store,
		Style:      mapview.DefaultStyle(),
		Clock:      clock,
		StartTime:  time.Now(),
		Sessions:   make(map[string]*PlayerSession),
		LimiterMap: make(map[string]*rate.Limiter),
		loadCtx:    loadCtx,
		stopLoads:  stopLoads,
	}
}

// setupRouter builds the Gin engine with every route and middleware.
func (app *App) setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(requestIDMiddleware())

	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression,
		ginGzip.WithExcludedExtensions([]string{".svg", ".ico", ".png", ".jpg", ".jpeg", ".gif"}),
		ginGzip.WithExcludedPaths([]string{"/static/fonts"})))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logWarn("Failed to set trusted proxies: %v", err)
	}

	router.Use(func(c *gin.Context) {
		app.applyCacheHeaders(c)
	})

	router.SetFuncMap(template.FuncMap{
		"plural": plural,
	})
	if app.IsProduction && dirExists("dist") {
		logInfo("Serving assets from dist/ directory")
		router.LoadHTMLGlob("dist/templates/*.html")
		router.Static("/static", "./dist/static")
	} else {
		logInfo("Serving development assets from source directories")
		router.LoadHTMLGlob("templates/*.html")
		router.Static("/static", "./static")
	}

	router.GET(RouteHome, app.homeHandler)
	router.POST(RoutePlay, app.rateLimitMiddleware(), app.playHandler)
	router.GET(RouteGameState, app.gameStateHandler)
	router.POST(RouteMapReady, app.mapReadyHandler)
	router.POST(RouteGuess, app.rateLimitMiddleware(), app.guessHandler)
	router.POST(RouteQuit, app.quitHandler)
	router.POST(RouteBack, app.backHandler)
	router.GET(RouteMapStyle, app.mapStyleHandler)
	router.GET(RouteMapOptions, app.mapOptionsHandler)
	router.GET(RouteGeoshape, app.geoshapeHandler)
	router.GET(RouteHealthz, app.healthzHandler)
	return router
}

// applyCacheHeaders lets browsers cache static assets in production and
// nothing else.
func (app *App) applyCacheHeaders(c *gin.Context) {
	path := c.Request.URL.Path
	if app.IsProduction && (strings.HasPrefix(path, "/static/") || strings.HasPrefix(path, "/map/") || strings.HasPrefix(path, "/data/")) {
		cachecontrol.New(cachecontrol.Config{
			Public: true,
			MaxAge: cachecontrol.Duration(app.StaticCacheAge),
		})(c)
		c.Header("Vary", "Accept-Encoding")
		return
	}
	cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	})(c)
}

// startServer serves router until ctx is done, then shuts down gracefully.
func (app *App) startServer(ctx context.Context, router *gin.Engine) {
	srv := &http.Server{
		Addr:              ":" + app.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		<-ctx.Done()
		logInfo("Shutdown signal received, shutting down server gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logWarn("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	logInfo("Server starting on http://localhost:%s", app.Port)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
	logInfo("Server shutdown complete")
}

// Close stops every game load and releases the best-time store.
func (app *App) Close() {
	app.stopLoads()
	app.loads.Wait()

	app.closeMutex.Lock()
	defer app.closeMutex.Unlock()
	for _, c := range app.closers {
		if err := c.Close(); err != nil {
			logWarn("Close: %v", err)
		}
	}
	app.closers = nil
}
