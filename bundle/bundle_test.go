package bundle

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/margin/router"
	"github.com/robinvdvleuten/margin/telemetry"
)

func writeFile(t *testing.T, p, content string) {
	t.Helper()
	assert.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	assert.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

// project lays out a frontend in a fresh working directory.
func project(t *testing.T) Config {
	t.Helper()
	t.Chdir(t.TempDir())

	writeFile(t, "frontend/src/main.js", `console.log("margin")`)
	writeFile(t, "frontend/src/style.css", `body { margin: 0 }`)
	writeFile(t, "frontend/public/favicon.svg", `<svg/>`)
	writeFile(t, "frontend/dist/stale.js", `old`)
	writeFile(t, "frontend/dist/old/nested.txt", `old`)

	return Config{
		SourceDir:   "frontend/src",
		PublicDir:   "frontend/public",
		OutDir:      "frontend/dist",
		EmptyOutDir: true,
		Entry:       "main.js",
	}
}

func TestBuild(t *testing.T) {
	cfg := project(t)
	collector := telemetry.NewTimingCollector()
	ctx := telemetry.WithCollector(context.Background(), collector)

	res, err := Build(ctx, cfg, router.Default())
	assert.NoError(t, err)
	assert.Equal(t, 2, res.Removed)

	_, err = os.Stat("frontend/dist/stale.js")
	assert.True(t, errors.Is(err, os.ErrNotExist))
	_, err = os.Stat("frontend/dist/old")
	assert.True(t, errors.Is(err, os.ErrNotExist))

	mainName := HashedName("main.js", []byte(`console.log("margin")`))
	cssName := HashedName("style.css", []byte(`body { margin: 0 }`))
	assert.Equal(t, "assets/"+mainName, res.Entry)

	assert.Equal(t, []string{
		ManifestPath,
		"assets/" + mainName,
		"assets/" + cssName,
		"favicon.svg",
		"index.html",
		RoutesPath,
	}, res.Files)

	t.Run("Manifest", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join("frontend/dist", ManifestPath))
		assert.NoError(t, err)

		var manifest Manifest
		assert.NoError(t, json.Unmarshal(data, &manifest))
		entry := manifest["src/main.js"]
		assert.True(t, entry.IsEntry)
		assert.Equal(t, "assets/"+mainName, entry.File)
		assert.Equal(t, []string{"assets/" + cssName}, entry.CSS)
		assert.False(t, manifest["src/style.css"].IsEntry)
	})

	t.Run("Routes", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join("frontend/dist", RoutesPath))
		assert.NoError(t, err)

		var manifest router.Manifest
		assert.NoError(t, json.Unmarshal(data, &manifest))
		assert.Equal(t, "hash", manifest.History)
		assert.Equal(t, 5, len(manifest.Routes))
		assert.Equal(t, "/login", manifest.Routes[0].Redirect)
	})

	t.Run("Shell", func(t *testing.T) {
		data, err := os.ReadFile("frontend/dist/index.html")
		assert.NoError(t, err)
		html := string(data)
		assert.True(t, strings.Contains(html, mainName))
		assert.True(t, strings.Contains(html, cssName))
		assert.True(t, strings.Contains(html, `id="margin-routes"`))
		assert.True(t, strings.Contains(html, `"/set-password"`))
		assert.False(t, strings.Contains(html, "WebSocket"))
	})

	t.Run("Telemetry", func(t *testing.T) {
		var names []string
		for _, span := range collector.Spans() {
			names = append(names, span.Name)
		}
		assert.Equal(t, "build", names[0])
		assert.True(t, strings.Contains(strings.Join(names, ","), "hash assets,src/main.js"))
	})
}

func TestBuildKeepsOutDirWhenNotEmptying(t *testing.T) {
	cfg := project(t)
	cfg.EmptyOutDir = false

	res, err := Build(context.Background(), cfg, router.Default())
	assert.NoError(t, err)
	assert.Equal(t, 0, res.Removed)

	_, err = os.Stat("frontend/dist/stale.js")
	assert.NoError(t, err)
}

func TestBuildRefusesUnsafeOutDir(t *testing.T) {
	cfg := project(t)
	outside := t.TempDir()

	tests := []struct {
		name   string
		outDir string
		force  bool
	}{
		{"WorkingDirectory", ".", false},
		{"Parent", "..", true},
		{"Root", string(filepath.Separator), true},
		{"Outside", outside, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cfg
			c.OutDir = tt.outDir
			c.Force = tt.force
			_, err := Build(context.Background(), c, router.Default())
			assert.True(t, errors.Is(err, ErrUnsafeOutDir))
		})
	}

	t.Run("OutsideForced", func(t *testing.T) {
		c := cfg
		c.OutDir = outside
		c.Force = true
		_, err := Build(context.Background(), c, router.Default())
		assert.NoError(t, err)
	})
}

func TestBuildMissingEntry(t *testing.T) {
	cfg := project(t)
	cfg.Entry = "app.js"

	_, err := Build(context.Background(), cfg, router.Default())
	assert.Error(t, err)
}

func TestHashedName(t *testing.T) {
	a := HashedName("main.js", []byte("a"))
	assert.Equal(t, a, HashedName("main.js", []byte("a")))
	assert.NotEqual(t, a, HashedName("main.js", []byte("b")))
	assert.True(t, strings.HasPrefix(a, "main-"))
	assert.True(t, strings.HasSuffix(a, ".js"))
	assert.Equal(t, len("main-12345678.js"), len(a))
}
