// Package app is the facade the pages talk to. The HTTP API and the desktop
// bindings both go through an App, so every operation behaves the same
// whichever shell the user opened.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/robinvdvleuten/margin/market"
	"github.com/robinvdvleuten/margin/portfolio"
	"github.com/robinvdvleuten/margin/storage"
)

// Topics published to subscribers after a change.
const (
	TopicAssets    = "assets"
	TopicHistory   = "history"
	TopicRebalance = "rebalance"
	TopicSources   = "sources"
	TopicIndexes   = "indexes"
)

// QuoteTTL is how long cached index quotes are served before refetching.
const QuoteTTL = 5 * time.Minute

// Options configures an App.
type Options struct {
	Funds   *market.FundService
	Indexes *market.IndexService

	Version   string
	CommitSHA string

	Logger *slog.Logger
}

// App gathers the portfolio services.
type App struct {
	db        *storage.DB
	portfolio *portfolio.Service
	funds     *market.FundService
	indexes   *market.IndexService
	logger    *slog.Logger

	version   string
	commitSHA string

	mu            sync.RWMutex
	authenticated bool
	quotes        []market.IndexData
	quotesAt      time.Time

	subMu       sync.Mutex
	subscribers map[int]func(topic string)
	nextSub     int

	now func() time.Time
}

// New creates an App over db.
func New(db *storage.DB, opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		db:          db,
		portfolio:   portfolio.New(db),
		funds:       opts.Funds,
		indexes:     opts.Indexes,
		logger:      logger,
		version:     opts.Version,
		commitSHA:   opts.CommitSHA,
		subscribers: make(map[int]func(string)),
		now:         time.Now,
	}
}

// Startup seeds the default sources. Failures are logged, not fatal.
func (a *App) Startup(ctx context.Context) {
	if err := a.portfolio.SeedSources(ctx); err != nil {
		a.logger.Warn("failed to seed default sources", "error", err)
	}
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (a *App) Subscribe(fn func(topic string)) func() {
	a.subMu.Lock()
	defer a.subMu.Unlock()

	id := a.nextSub
	a.nextSub++
	a.subscribers[id] = fn

	return func() {
		a.subMu.Lock()
		delete(a.subscribers, id)
		a.subMu.Unlock()
	}
}

func (a *App) publish(topic string) {
	a.subMu.Lock()
	fns := make([]func(string), 0, len(a.subscribers))
	for _, fn := range a.subscribers {
		fns = append(fns, fn)
	}
	a.subMu.Unlock()

	for _, fn := range fns {
		fn(topic)
	}
}

// publishOnSuccess publishes topic when err is nil and returns err.
func (a *App) publishOnSuccess(topic string, err error) error {
	if err == nil {
		a.publish(topic)
	}
	return err
}

// IsFirstRun reports whether no password has been set yet.
func (a *App) IsFirstRun(ctx context.Context) (bool, error) {
	return a.portfolio.IsFirstRun(ctx)
}

// SetPassword sets or replaces the password.
func (a *App) SetPassword(ctx context.Context, password string) error {
	return a.portfolio.SetPassword(ctx, password)
}

// VerifyPassword checks password and, when it matches, marks the app
// unlocked.
func (a *App) VerifyPassword(ctx context.Context, password string) (bool, error) {
	ok, err := a.portfolio.VerifyPassword(ctx, password)
	if err != nil || !ok {
		return false, err
	}

	a.mu.Lock()
	a.authenticated = true
	a.mu.Unlock()
	return true, nil
}

// IsAuthenticated reports whether the app has been unlocked.
func (a *App) IsAuthenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.authenticated
}

// Logout locks the app.
func (a *App) Logout() {
	a.mu.Lock()
	a.authenticated = false
	a.mu.Unlock()
}

// SystemInfo describes the running binary.
type SystemInfo struct {
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	Version   string `json:"version"`
	CommitSHA string `json:"gitCommit"`
	GoVersion string `json:"goVersion"`
}

// GetSystemInfo describes the running binary.
func (a *App) GetSystemInfo() SystemInfo {
	return SystemInfo{
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		Version:   a.version,
		CommitSHA: a.commitSHA,
		GoVersion: runtime.Version(),
	}
}

// GetDBInfo describes the database file.
func (a *App) GetDBInfo() (storage.Info, error) {
	return storage.Stat(a.db.Path())
}

// BackupDatabase copies the database to dest.
func (a *App) BackupDatabase(dest string) error {
	if dest == "" {
		return fmt.Errorf("backup destination is required")
	}
	if err := a.db.Backup(dest); err != nil {
		return fmt.Errorf("failed to backup database: %w", err)
	}
	a.logger.Info("database backed up", "dest", dest)
	return nil
}

// BackupFileName returns the suggested name for a backup taken at t.
func BackupFileName(t time.Time) string {
	return fmt.Sprintf("margin_backup_%s.db", t.Format("20060102_150405"))
}
