package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/kong"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/margin/app"
	"github.com/robinvdvleuten/margin/bundle"
	"github.com/robinvdvleuten/margin/config"
	"github.com/robinvdvleuten/margin/portfolio"
	"github.com/robinvdvleuten/margin/router"
	"github.com/robinvdvleuten/margin/scheduler"
	"github.com/robinvdvleuten/margin/storage"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var cmds Commands
	var stdout, stderr bytes.Buffer
	parser, err := kong.New(&cmds,
		kong.Name("margin"),
		kong.Writers(&stdout, &stderr),
		kong.Exit(func(int) { t.Fatal("unexpected exit") }),
		kong.Bind(&cmds.Globals),
	)
	assert.NoError(t, err)

	kctx, err := parser.Parse(args)
	assert.NoError(t, err)

	err = kctx.Run()
	return stdout.String(), stderr.String(), err
}

// project writes a configuration keeping the database in a temp dir and
// returns its path together with the data dir.
func project(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	cfgPath := filepath.Join(dir, "margin.toml")
	content := "[storage]\ndata_dir = " + `"` + filepath.ToSlash(dataDir) + `"` + "\n\n[market]\ntimeout = \"1s\"\n"
	assert.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))
	return cfgPath, dataDir
}

// seed sets the password and stores holdings directly.
func seed(t *testing.T, dataDir, password string, assets ...portfolio.AssetInput) {
	t.Helper()
	assert.NoError(t, os.MkdirAll(dataDir, 0o755))
	db, err := storage.Open(filepath.Join(dataDir, "margin.db"))
	assert.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	a := app.New(db, app.Options{})
	assert.NoError(t, a.SetPassword(ctx, password))
	for _, in := range assets {
		_, err := a.SaveAsset(ctx, in)
		assert.NoError(t, err)
	}
}

func TestRoutesCommand(t *testing.T) {
	t.Run("List", func(t *testing.T) {
		stdout, _, err := run(t, "routes", "list")
		assert.NoError(t, err)
		for _, want := range []string{"/set-password", "SetPassword", "/dashboard", "Settings", "→ /login"} {
			assert.Contains(t, stdout, want)
		}
	})

	t.Run("ListIsDefault", func(t *testing.T) {
		stdout, _, err := run(t, "routes")
		assert.NoError(t, err)
		assert.Contains(t, stdout, "/login")
	})

	t.Run("ResolveRoot", func(t *testing.T) {
		stdout, _, err := run(t, "routes", "resolve", "#/")
		assert.NoError(t, err)
		assert.Contains(t, stdout, "/ → /login")
		assert.Contains(t, stdout, "Login")
		assert.Contains(t, stdout, "#/login")
	})

	t.Run("ResolveUnknown", func(t *testing.T) {
		_, _, err := run(t, "routes", "resolve", "/nowhere")
		assert.IsError(t, err, router.ErrNoRoute)
	})
}

func TestAssetsCommand(t *testing.T) {
	cfgPath, dataDir := project(t)
	seed(t, dataDir, "hunter2",
		portfolio.AssetInput{Code: "510300", Name: "沪深300ETF", Type: portfolio.Stock, Source: "支付宝", Amount: decimal.NewFromInt(6000)},
		portfolio.AssetInput{Code: "000171", Name: "易方达裕丰回报", Type: portfolio.Bond, Source: "招商银行", Amount: decimal.NewFromInt(4000)},
	)

	t.Run("WrongPassword", func(t *testing.T) {
		_, _, err := run(t, "--config", cfgPath, "assets", "--password", "nope")
		assert.IsError(t, err, errWrongPassword)
	})

	t.Run("Table", func(t *testing.T) {
		stdout, _, err := run(t, "--config", cfgPath, "assets", "--password", "hunter2")
		assert.NoError(t, err)
		assert.Contains(t, stdout, "510300 沪深300ETF")
		assert.Contains(t, stdout, "6,000.00")
		assert.Contains(t, stdout, "60.00%")
		assert.Contains(t, stdout, "40.00%")
	})

	t.Run("PasswordFromEnv", func(t *testing.T) {
		t.Setenv("MARGIN_PASSWORD", "hunter2")
		stdout, _, err := run(t, "--config", cfgPath, "assets")
		assert.NoError(t, err)
		assert.Contains(t, stdout, "易方达裕丰回报")
	})
}

func TestSnapshotCommand(t *testing.T) {
	cfgPath, dataDir := project(t)
	seed(t, dataDir, "pw")

	stdout, _, err := run(t, "--config", cfgPath, "snapshot", "--password", "pw")
	assert.NoError(t, err)
	assert.Contains(t, stdout, "nothing recorded")

	db, err := storage.Open(filepath.Join(dataDir, "margin.db"))
	assert.NoError(t, err)
	a := app.New(db, app.Options{})
	ok, err := a.VerifyPassword(context.Background(), "pw")
	assert.NoError(t, err)
	assert.True(t, ok)
	_, err = a.SaveAsset(context.Background(), portfolio.AssetInput{
		Code: "510300", Name: "沪深300ETF", Type: portfolio.Stock, Source: "支付宝", Amount: decimal.NewFromInt(100),
	})
	assert.NoError(t, err)
	assert.NoError(t, db.Close())

	stdout, _, err = run(t, "--config", cfgPath, "snapshot", "--password", "pw")
	assert.NoError(t, err)
	assert.Contains(t, stdout, "Recorded snapshot #1")
	assert.Contains(t, stdout, "stock 100.00%")
}

func TestBackupCommand(t *testing.T) {
	cfgPath, dataDir := project(t)
	seed(t, dataDir, "pw")

	dest := filepath.Join(t.TempDir(), "copy.db")
	stdout, _, err := run(t, "--config", cfgPath, "backup", dest)
	assert.NoError(t, err)
	assert.Contains(t, stdout, "Backed up")

	data, err := os.ReadFile(dest)
	assert.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("SQLite format 3")))

	// Without a terminal the overwrite prompt answers no.
	stdout, _, err = run(t, "--config", cfgPath, "backup", dest)
	assert.NoError(t, err)
	assert.Contains(t, stdout, "Backup cancelled")

	stdout, _, err = run(t, "--config", cfgPath, "backup", dest, "--yes")
	assert.NoError(t, err)
	assert.Contains(t, stdout, "Backed up")
}

func TestBuildCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	for name, content := range map[string]string{
		"frontend/src/main.js":       `console.log("margin")`,
		"frontend/public/robots.txt": "User-agent: *",
		"frontend/dist/stale.js":     "old",
	} {
		assert.NoError(t, os.MkdirAll(filepath.Dir(name), 0o755))
		assert.NoError(t, os.WriteFile(name, []byte(content), 0o644))
	}

	stdout, _, err := run(t, "build")
	assert.NoError(t, err)
	assert.Contains(t, stdout, "Emptied")
	assert.Contains(t, stdout, "index.html")
	assert.Contains(t, stdout, "Built")

	_, err = os.Stat("frontend/dist/stale.js")
	assert.True(t, errors.Is(err, os.ErrNotExist))
	_, err = os.Stat("frontend/dist/robots.txt")
	assert.NoError(t, err)

	t.Run("UnsafeOutDir", func(t *testing.T) {
		_, stderr, err := run(t, "build", "--out-dir", t.TempDir())
		var cmdErr *CommandError
		assert.True(t, errors.As(err, &cmdErr))
		assert.Equal(t, 1, cmdErr.ExitCode())
		assert.Contains(t, stderr, "--force")
	})
}

func TestDoctorCommand(t *testing.T) {
	t.Run("Routes", func(t *testing.T) {
		stdout, _, err := run(t, "doctor", "routes")
		assert.NoError(t, err)
		assert.Contains(t, stdout, `RedirectedFrom: "/"`)
		assert.Contains(t, stdout, `Component: "Dashboard"`)
	})

	t.Run("Config", func(t *testing.T) {
		cfgPath, _ := project(t)
		t.Setenv("MARGIN_SERVER_PORT", "4000")
		stdout, _, err := run(t, "--config", cfgPath, "doctor", "config")
		assert.NoError(t, err)
		assert.Contains(t, stdout, "Port: 4000")
		assert.Contains(t, stdout, `Timeout: "1s"`)
	})
}

func TestErrorRenderer(t *testing.T) {
	r := NewErrorRenderer()

	t.Run("Hint", func(t *testing.T) {
		out := r.Render(&router.NoRouteError{Path: "/nowhere"})
		assert.Contains(t, out, "margin routes list")
	})

	t.Run("Wrapped", func(t *testing.T) {
		out := r.Render(errors.Join(errors.New("build"), bundle.ErrUnsafeOutDir))
		assert.Contains(t, out, "--force")
	})

	t.Run("ValidationField", func(t *testing.T) {
		err := portfolio.AssetInput{Type: portfolio.Stock}.Validate()
		out := r.Render(err)
		assert.Contains(t, out, "field: ")
	})

	t.Run("All", func(t *testing.T) {
		out := r.RenderAll([]error{errors.New("one"), errors.New("two")})
		assert.Equal(t, 2, strings.Count(out, errorSymbol))
		assert.Contains(t, out, "\n\n")
	})
}

func TestWithSchedulerStopsJobs(t *testing.T) {
	_, dataDir := project(t)
	seed(t, dataDir, "pw")

	db, err := storage.Open(filepath.Join(dataDir, "margin.db"))
	assert.NoError(t, err)
	defer db.Close()

	a := app.New(db, app.Options{})
	sched, err := scheduler.New(a, config.ScheduleConfig{Snapshot: "@every 1s"}, nil)
	assert.NoError(t, err)

	ctx := context.Background()
	closed := errors.New("window closed")
	err = withScheduler(ctx, sched, func() error { return closed })
	assert.IsError(t, err, closed)
	assert.NoError(t, ctx.Err())
}
