package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/margin/config"
	"github.com/robinvdvleuten/margin/devserver"
	"github.com/robinvdvleuten/margin/router"
	"github.com/robinvdvleuten/margin/scheduler"
	"github.com/robinvdvleuten/margin/web"
)

// ServerFlags override the [server] section of the configuration.
type ServerFlags struct {
	Host       string `help:"Host to listen on (default from config: 0.0.0.0)."`
	Port       int    `help:"Port to listen on (default from config: 34115)." short:"p"`
	StrictPort bool   `help:"Fail when the port is taken instead of trying the next one."`
	NoSchedule bool   `help:"Do not run background jobs."`
}

func (f ServerFlags) apply(cfg *config.Config) {
	if f.Host != "" {
		cfg.Server.Host = f.Host
	}
	if f.Port != 0 {
		cfg.Server.Port = f.Port
	}
	if f.StrictPort {
		cfg.Server.StrictPort = true
	}
}

type ServeCmd struct {
	ServerFlags `embed:""`
}

func (cmd *ServeCmd) Run(ctx *kong.Context, globals *Globals) error {
	return runServer(ctx, globals, cmd.ServerFlags, nil)
}

type DevCmd struct {
	ServerFlags `embed:""`

	ViteURL string `help:"Load the frontend from a running Vite dev server instead of the source tree." name:"vite-url"`
}

func (cmd *DevCmd) Run(ctx *kong.Context, globals *Globals) error {
	return runServer(ctx, globals, cmd.ServerFlags, &cmd.ViteURL)
}

// runServer serves until interrupted. A non-nil viteURL selects development
// mode; an empty value there falls back to vite.url from the configuration.
func runServer(kctx *kong.Context, globals *Globals, flags ServerFlags, viteURL *string) error {
	env, err := setup(kctx, globals, "serve")
	if err != nil {
		return err
	}
	defer env.finish()

	cfg := env.cfg
	flags.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	a, closeDB, err := env.openApp()
	if err != nil {
		return err
	}
	defer closeDB()

	opts := web.Options{
		Listen: devserver.ListenConfig{
			Host:        cfg.Server.Host,
			Port:        cfg.Server.Port,
			StrictPort:  cfg.Server.StrictPort,
			MaxAttempts: cfg.Server.MaxPortAttempts,
		},
		ShutdownTimeout: cfg.Server.ShutdownTimeoutDuration(),
		ViteEntry:       filepath.ToSlash(filepath.Join(filepath.Base(cfg.Build.SourceDir), cfg.Build.Entry)),
		Logger:          env.logger,
	}

	if viteURL != nil {
		url := *viteURL
		if url == "" {
			url = cfg.Vite.URL
		}
		stylesheets, _ := filepath.Glob(filepath.Join(cfg.Build.SourceDir, "*.css"))
		for i, css := range stylesheets {
			stylesheets[i] = filepath.Base(css)
		}
		opts.Dev = &web.DevOptions{
			SourceDir:   cfg.Build.SourceDir,
			PublicDir:   cfg.Build.PublicDir,
			Entry:       cfg.Build.Entry,
			Stylesheets: stylesheets,
			ViteURL:     url,
			HMRHost:     cfg.HMR.Host,
			HMRPath:     cfg.HMR.Path,
		}
	}

	server := web.New(a, router.Default(), opts)

	runCtx, stop := signal.NotifyContext(env.ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if !flags.NoSchedule {
		sched, err := scheduler.New(a, cfg.Schedule, env.logger)
		if err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			sched.Run(runCtx)
		}()
	}

	printInfof(kctx.Stdout, "Starting server on %s", pathStyle.Render(cfg.Server.Addr()))
	printInfof(kctx.Stdout, "Database: %s", pathStyle.Render(cfg.Storage.DatabasePath()))
	if opts.Dev != nil {
		printInfof(kctx.Stdout, "Development mode, watching %s", pathStyle.Render(cfg.Build.SourceDir))
	}

	err = server.Start(runCtx)
	stop()
	wg.Wait()

	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
