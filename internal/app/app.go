package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"kitchen-assistant/internal/auth"
	"kitchen-assistant/internal/clipper"
	"kitchen-assistant/internal/config"
	"kitchen-assistant/internal/database"
	"kitchen-assistant/internal/kitchen"
	"kitchen-assistant/internal/llm"
	"kitchen-assistant/internal/metrics"
	"kitchen-assistant/internal/recipe"
	"kitchen-assistant/internal/supabase"
)

const cacheTTL = 24 * time.Hour

// App holds the application's dependencies.
type App struct {
	cfg *config.Config
	db  *database.DB
	out io.Writer

	Chef     *recipe.Chef
	Clipper  *clipper.Clipper
	Metrics  *metrics.Store
	Sessions *kitchen.Sessions
	Verifier *auth.Verifier

	importPause time.Duration
	closers     []func() error
}

// New opens the database, connects the configured model provider and
// response cache, and selects the storage backend.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	var closers []func() error
	textGen, err := newTextGenerator(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}
	if c, ok := textGen.(llm.Closer); ok {
		closers = append(closers, c.Close)
	}

	cache, closeCache, err := newResponseCache(ctx, cfg)
	if err != nil {
		log.Printf("Warning: response cache disabled: %v", err)
	}
	if closeCache != nil {
		closers = append(closers, closeCache)
	}

	var helperGen llm.TextGenerator
	if cache != nil {
		helperGen = llm.NewCachedTextGenerator(textGen, cache)
	}

	a := newApp(cfg, db, textGen, helperGen)
	a.closers = append(a.closers, closers...)
	return a, nil
}

func newApp(cfg *config.Config, db *database.DB, textGen, helperGen llm.TextGenerator) *App {
	a := &App{
		cfg:         cfg,
		db:          db,
		out:         os.Stdout,
		Chef:        recipe.NewChef(textGen, helperGen),
		Clipper:     clipper.NewClipper(textGen),
		Metrics:     metrics.NewStore(db.SQL),
		Sessions:    kitchen.NewSessions(remoteFactory(cfg, db)),
		importPause: 5 * time.Second,
	}
	if cfg.JWTSecret != "" {
		a.Verifier = auth.NewVerifier(cfg.JWTSecret)
	}
	return a
}

func newTextGenerator(ctx context.Context, cfg *config.Config) (llm.TextGenerator, error) {
	if cfg.LLMProvider == config.ProviderGroq {
		return llm.NewGroqClient(cfg), nil
	}
	client, err := llm.NewGeminiClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	return client, nil
}

// newResponseCache prefers Redis when configured and falls back to the
// JSON file cache. The returned func flushes or disconnects the cache.
func newResponseCache(ctx context.Context, cfg *config.Config) (llm.ResponseCache, func() error, error) {
	if cfg.RedisURL != "" {
		cache, err := llm.NewRedisCache(ctx, cfg.RedisURL, cacheTTL)
		if err == nil {
			return cache, cache.Close, nil
		}
		log.Printf("Warning: redis unavailable, using file cache: %v", err)
	}
	if cfg.CacheFilePath == "" {
		return nil, nil, nil
	}
	cache, err := llm.NewFileCache(cfg.CacheFilePath)
	if err != nil {
		return nil, nil, err
	}
	return cache, cache.Save, nil
}

// remoteFactory returns the backend for each user. Supabase requests carry
// the user's token so row-level security applies; users without one, such
// as Telegram users, go through the service key.
func remoteFactory(cfg *config.Config, db *database.DB) kitchen.RemoteFactory {
	if cfg.StoreBackend != config.BackendSupabase {
		repo := kitchen.NewSQLRepository(db.SQL)
		return func(kitchen.User, string) kitchen.RemoteStore { return repo }
	}

	anon := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	service := anon
	if cfg.SupabaseServiceKey != "" {
		service = supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey)
	}
	return func(u kitchen.User, token string) kitchen.RemoteStore {
		if token == "" {
			return service
		}
		return anon.WithAccessToken(token)
	}
}

// DataDir is the directory holding the database and cache files.
func (a *App) DataDir() string {
	return filepath.Dir(a.cfg.DatabasePath)
}

// Store returns the Store of a local user, e.g. for CLI commands.
func (a *App) Store(userID string) *kitchen.Store {
	return a.Sessions.For(kitchen.User{ID: userID}, "")
}

// Close releases every resource in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.db.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
