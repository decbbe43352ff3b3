// Package cli implements the margin command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/robinvdvleuten/margin/app"
	"github.com/robinvdvleuten/margin/config"
	"github.com/robinvdvleuten/margin/output"
	"github.com/robinvdvleuten/margin/storage"
	"github.com/robinvdvleuten/margin/telemetry"
)

var (
	successSymbol = "✓"
	errorSymbol   = "✗"
	infoSymbol    = "→"

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00D787", Dark: "#00D787"})
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5FAFFF", Dark: "#5FAFFF"})
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00D7D7", Dark: "#00D7D7"})
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})
)

func printSuccess(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		successStyle.Render(successSymbol),
		message,
	)
}

func printError(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		errorStyle.Render(errorSymbol),
		errorStyle.Render(message),
	)
}

func printInfof(w io.Writer, format string, args ...interface{}) {
	formatted := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintf(w, "%s %s\n",
		infoStyle.Render(infoSymbol),
		formatted,
	)
}

// promptYesNo prompts the user with a yes/no question.
// Returns false by default if stdin is not a terminal.
func promptYesNo(question string) (bool, error) {
	if !isTerminal() {
		return false, nil
	}

	var confirm bool

	form := huh.NewConfirm().
		Title(question).
		WithButtonAlignment(lipgloss.Left).
		Value(&confirm)

	err := form.Run()
	if err != nil {
		return false, fmt.Errorf("failed to read response: %w", err)
	}

	return confirm, nil
}

// promptPassword asks for the password without echoing it. Returns an empty
// string if stdin is not a terminal.
func promptPassword() (string, error) {
	if !isTerminal() {
		return "", nil
	}

	var password string
	err := huh.NewInput().
		Title("Password").
		EchoMode(huh.EchoModePassword).
		Value(&password).
		Run()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return password, nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// runEnv is what every command starts from: the loaded configuration, a
// logger and a context carrying the telemetry collector.
type runEnv struct {
	ctx    context.Context
	cfg    *config.Config
	logger *slog.Logger
	finish func()
}

// setup loads the configuration and, with --telemetry, starts a root timer
// named name. finish ends the timer and prints the report.
func setup(kctx *kong.Context, globals *Globals, name string) (*runEnv, error) {
	cfg, err := config.Load(globals.Config)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(kctx.Stderr, &slog.HandlerOptions{
		Level: cfg.Logging.SlogLevel(),
	}))

	env := &runEnv{
		ctx:    context.Background(),
		cfg:    cfg,
		logger: logger,
		finish: func() {},
	}

	if globals.Telemetry {
		collector := telemetry.NewTimingCollector()
		ctx := telemetry.WithCollector(env.ctx, collector)
		ctx, timer := telemetry.Start(ctx, name)
		env.ctx = ctx
		env.finish = func() {
			timer.End()
			_, _ = fmt.Fprintln(kctx.Stderr)
			collector.Report(kctx.Stderr, output.NewStyles(kctx.Stderr))
		}
	}

	return env, nil
}

// openApp opens the database and builds the App over it. The returned close
// function releases the database.
func (e *runEnv) openApp() (*app.App, func(), error) {
	_, timer := telemetry.Start(e.ctx, "storage.open")
	db, err := storage.Open(e.cfg.Storage.DatabasePath())
	timer.End()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	funds, indexes := app.MarketServices(e.cfg.Market)
	a := app.New(db, app.Options{
		Funds:     funds,
		Indexes:   indexes,
		Version:   versionString(),
		CommitSHA: commitString(),
		Logger:    e.logger,
	})
	a.Startup(e.ctx)

	return a, func() { _ = db.Close() }, nil
}

// unlock verifies password, prompting for it when empty.
func (e *runEnv) unlock(a *app.App, password string) error {
	if password == "" {
		p, err := promptPassword()
		if err != nil {
			return err
		}
		password = p
	}
	if password == "" {
		return errPasswordRequired
	}

	ok, err := a.VerifyPassword(e.ctx, password)
	if err != nil {
		return err
	}
	if !ok {
		return errWrongPassword
	}
	return nil
}
