// Package web provides the HTTP server for the margin frontend.
//
// The server renders the single-page shell, redirects deep links onto the
// hash-history route they address and exposes the portfolio operations as a
// JSON API under /api. In development mode it also serves the raw source tree
// and pushes reload notifications to the browser over a websocket.
//
// Every /api endpoint except the auth ones requires the session cookie handed
// out by POST /api/auth/login.
package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/robinvdvleuten/margin/app"
	"github.com/robinvdvleuten/margin/devserver"
	"github.com/robinvdvleuten/margin/frontend"
	"github.com/robinvdvleuten/margin/router"
	"github.com/robinvdvleuten/margin/telemetry"
)

const defaultShutdownTimeout = 10 * time.Second

// DevOptions switches the server into development mode.
type DevOptions struct {
	// SourceDir is served under /src/ and watched for changes.
	SourceDir string
	// PublicDir is served at the root.
	PublicDir string
	// Entry is the module loaded by the shell, relative to SourceDir.
	Entry string
	// Stylesheets are linked from the shell, relative to SourceDir.
	Stylesheets []string

	// ViteURL, when set, points the shell at an external Vite dev server
	// instead of the raw source tree.
	ViteURL string

	// HMRHost is the host the browser dials for reload notifications.
	HMRHost string
	// HMRPath is where the websocket hub is mounted.
	HMRPath string
}

// Options configures a Server.
type Options struct {
	Listen          devserver.ListenConfig
	ShutdownTimeout time.Duration
	Title           string

	// ViteEntry is the manifest key of the entry chunk in production.
	ViteEntry string

	// Dist overrides the embedded build output.
	Dist fs.FS

	// Dev enables development mode when non-nil.
	Dev *DevOptions

	// SingleUser lets the App's own unlocked state stand in for the session
	// cookie. Set it when the only client is a window owned by this process.
	SingleUser bool

	Logger *slog.Logger
}

type Server struct {
	app    *app.App
	routes *router.Table
	opts   Options
	logger *slog.Logger

	dist fs.FS
	hub  *devserver.Hub

	// port is the port actually bound, which differs from the configured one
	// after a fallback.
	port int

	sessionsMu sync.Mutex
	sessions   map[string]time.Time

	// SSE clients for broadcasting change events
	sseClients map[chan string]struct{}
	sseMu      sync.Mutex
}

// New creates a server for a.
func New(a *app.App, routes *router.Table, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	if opts.ViteEntry == "" {
		opts.ViteEntry = "src/main.js"
	}

	s := &Server{
		app:        a,
		routes:     routes,
		opts:       opts,
		logger:     logger,
		port:       opts.Listen.Port,
		sessions:   make(map[string]time.Time),
		sseClients: make(map[chan string]struct{}),
	}
	if opts.Dev != nil {
		s.hub = devserver.NewHub(logger)
	}
	return s
}

// Start binds the configured address, falling back to the next free port
// unless strict, and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ctx, timer := telemetry.Start(ctx, fmt.Sprintf("web.start %s:%d", s.opts.Listen.Host, s.opts.Listen.Port))

	listenCfg := s.opts.Listen
	listenCfg.Logger = s.logger
	ln, err := devserver.Listen(ctx, listenCfg)
	if err != nil {
		timer.End()
		return err
	}
	timer.End()

	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.port = devserver.Port(ln)

	_, timer := telemetry.Start(ctx, "web.setup_router")
	mux, err := s.setupRouter()
	timer.End()
	if err != nil {
		_ = ln.Close()
		return fmt.Errorf("failed to setup router: %w", err)
	}

	unsubscribe := s.app.Subscribe(s.broadcast)
	defer unsubscribe()

	if s.opts.Dev != nil {
		if err := s.startWatcher(ctx); err != nil {
			_ = ln.Close()
			return err
		}
	}

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.logger.Info("server listening", "url", s.URL(), "dev", s.opts.Dev != nil)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// URL is the address a browser on this machine should open.
func (s *Server) URL() string {
	host := s.opts.Listen.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s", net.JoinHostPort(host, fmt.Sprint(s.port)))
}

// Handler returns the routes without listening, for mounting under another
// server such as the desktop window's asset server.
func (s *Server) Handler() (http.Handler, error) {
	return s.setupRouter()
}

func (s *Server) setupRouter() (*http.ServeMux, error) {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/auth/status", s.handleAuthStatus)
	mux.HandleFunc("POST /api/auth/password", s.handleSetPassword)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)

	mux.HandleFunc("GET /api/routes", s.handleGetRoutes)
	mux.HandleFunc("GET /api/routes/resolve", s.handleResolveRoute)

	mux.HandleFunc("GET /api/assets", s.requireSession(s.handleGetAssets))
	mux.HandleFunc("POST /api/assets", s.requireSession(s.handleSaveAsset))
	mux.HandleFunc("PUT /api/assets/{id}", s.requireSession(s.handleUpdateAsset))
	mux.HandleFunc("PUT /api/assets/{id}/amount", s.requireSession(s.handleUpdateAssetAmount))
	mux.HandleFunc("DELETE /api/assets/{id}", s.requireSession(s.handleDeleteAsset))
	mux.HandleFunc("GET /api/funds/{code}", s.requireSession(s.handleGetFund))

	mux.HandleFunc("GET /api/portfolio/ratio", s.requireSession(s.handleGetRatio))
	mux.HandleFunc("GET /api/portfolio/advice", s.requireSession(s.handleGetAdvice))

	mux.HandleFunc("GET /api/history", s.requireSession(s.handleGetHistory))
	mux.HandleFunc("POST /api/history", s.requireSession(s.handleSaveSnapshot))
	mux.HandleFunc("DELETE /api/history/{id}", s.requireSession(s.handleDeleteHistory))

	mux.HandleFunc("GET /api/sources", s.requireSession(s.handleGetSources))
	mux.HandleFunc("POST /api/sources", s.requireSession(s.handleAddSource))
	mux.HandleFunc("DELETE /api/sources/{id}", s.requireSession(s.handleDeleteSource))

	mux.HandleFunc("GET /api/rebalances", s.requireSession(s.handleGetRebalances))
	mux.HandleFunc("GET /api/rebalances/latest", s.requireSession(s.handleGetLatestRebalance))
	mux.HandleFunc("POST /api/rebalances", s.requireSession(s.handleSaveRebalance))
	mux.HandleFunc("DELETE /api/rebalances/{id}", s.requireSession(s.handleDeleteRebalance))

	mux.HandleFunc("GET /api/indexes", s.requireSession(s.handleGetIndexes))
	mux.HandleFunc("GET /api/indexes/{code}", s.requireSession(s.handleGetIndex))

	mux.HandleFunc("GET /api/system", s.requireSession(s.handleGetSystem))
	mux.HandleFunc("GET /api/backup", s.requireSession(s.handleBackup))

	mux.HandleFunc("GET /api/events", s.requireSession(s.handleSSE))

	if err := s.mountAssets(mux); err != nil {
		return nil, err
	}
	return mux, nil
}

// startWatcher reloads connected browsers whenever the source tree changes.
func (s *Server) startWatcher(ctx context.Context) error {
	dev := s.opts.Dev
	watcher := devserver.NewWatcher(s.logger, func(path string) {
		s.logger.Debug("source changed", "path", path)
		s.hub.Broadcast(devserver.Message{Type: devserver.MessageReload, Path: path})
	}, dev.SourceDir, dev.PublicDir)

	if err := watcher.Run(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	return nil
}

// handleSSE handles Server-Sent Events connections for data change events.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	clientChan := make(chan string, 10)

	s.sseMu.Lock()
	s.sseClients[clientChan] = struct{}{}
	s.sseMu.Unlock()

	defer func() {
		s.sseMu.Lock()
		delete(s.sseClients, clientChan)
		s.sseMu.Unlock()
	}()

	_, _ = fmt.Fprintf(w, "data: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-clientChan:
			_, _ = fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()
		}
	}
}

// broadcast sends an event to all connected SSE clients.
func (s *Server) broadcast(event string) {
	s.sseMu.Lock()
	defer s.sseMu.Unlock()

	for clientChan := range s.sseClients {
		select {
		case clientChan <- event:
		default:
			// Client buffer full, skip
		}
	}
}

func (s *Server) distFS() (fs.FS, error) {
	if s.dist != nil {
		return s.dist, nil
	}
	if s.opts.Dist != nil {
		s.dist = s.opts.Dist
		return s.dist, nil
	}
	dist, err := frontend.Dist()
	if err != nil {
		return nil, fmt.Errorf("failed to open frontend build: %w", err)
	}
	s.dist = dist
	return dist, nil
}
