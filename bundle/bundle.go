// Package bundle produces the production build of the frontend: a cleared
// output directory holding the public files, content-hashed source assets, a
// Vite-compatible manifest, the route manifest and the rendered HTML shell.
//
// Sources are copied, not transpiled.
package bundle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/olivere/vite"

	"github.com/robinvdvleuten/margin/frontend"
	"github.com/robinvdvleuten/margin/router"
	"github.com/robinvdvleuten/margin/telemetry"
)

// ManifestPath is where the asset manifest is written inside the output dir.
const ManifestPath = ".vite/manifest.json"

// RoutesPath is where the route manifest is written inside the output dir.
const RoutesPath = "routes.json"

// ErrUnsafeOutDir is returned when emptying the output directory could
// destroy something other than build output.
var ErrUnsafeOutDir = errors.New("refusing to empty output directory")

// Config controls a build.
type Config struct {
	SourceDir   string
	PublicDir   string
	OutDir      string
	EmptyOutDir bool
	Entry       string
	Title       string

	// Force allows emptying an output directory outside the working directory.
	Force bool

	Logger *slog.Logger
}

// Chunk is a manifest entry, in the shape Vite writes.
type Chunk struct {
	File    string   `json:"file"`
	Src     string   `json:"src,omitempty"`
	IsEntry bool     `json:"isEntry,omitempty"`
	CSS     []string `json:"css,omitempty"`
}

// Manifest maps source paths to their built chunks.
type Manifest map[string]Chunk

// Result describes a finished build.
type Result struct {
	OutDir   string
	Entry    string
	Files    []string
	Removed  int
	Manifest Manifest
}

// Build runs the pipeline against table.
func Build(ctx context.Context, cfg Config, table *router.Table) (*Result, error) {
	ctx, timer := telemetry.Start(ctx, "build")
	defer timer.End()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.OutDir == "" {
		return nil, fmt.Errorf("%w: no output directory", ErrUnsafeOutDir)
	}
	if cfg.Entry == "" {
		return nil, errors.New("no entry point configured")
	}

	outDir, err := filepath.Abs(cfg.OutDir)
	if err != nil {
		return nil, err
	}
	res := &Result{OutDir: outDir}

	if cfg.EmptyOutDir {
		if err := checkOutDir(outDir, cfg.Force); err != nil {
			return nil, err
		}
		_, t := telemetry.Start(ctx, "empty "+cfg.OutDir)
		res.Removed, err = emptyDir(outDir)
		t.End()
		if err != nil {
			return nil, err
		}
		logger.Debug("emptied output directory", "dir", outDir, "removed", res.Removed)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	if cfg.PublicDir != "" {
		_, t := telemetry.Start(ctx, "copy public")
		files, err := copyTree(cfg.PublicDir, outDir)
		t.End()
		if err != nil {
			return nil, err
		}
		res.Files = append(res.Files, files...)
	}

	hashCtx, t := telemetry.Start(ctx, "hash assets")
	manifest, entryKey, files, err := hashAssets(hashCtx, cfg.SourceDir, cfg.Entry, outDir)
	t.End()
	if err != nil {
		return nil, err
	}
	res.Files = append(res.Files, files...)
	res.Manifest = manifest
	res.Entry = manifest[entryKey].File

	_, t = telemetry.Start(ctx, "write manifests")
	err = writeJSON(filepath.Join(outDir, filepath.FromSlash(ManifestPath)), manifest)
	if err == nil {
		err = writeJSON(filepath.Join(outDir, RoutesPath), table.Manifest())
	}
	t.End()
	if err != nil {
		return nil, err
	}
	res.Files = append(res.Files, ManifestPath, RoutesPath)

	_, t = telemetry.Start(ctx, "render shell")
	err = renderShell(outDir, entryKey, cfg.Title, table)
	t.End()
	if err != nil {
		return nil, err
	}
	res.Files = append(res.Files, "index.html")

	sort.Strings(res.Files)
	logger.Info("build complete", "out", outDir, "entry", res.Entry, "files", len(res.Files))
	return res, nil
}

// checkOutDir refuses the filesystem root, the working directory or any of
// its parents, and (unless forced) anything outside the working directory.
func checkOutDir(outDir string, force bool) error {
	if outDir == filepath.VolumeName(outDir)+string(filepath.Separator) {
		return fmt.Errorf("%w: %s is the filesystem root", ErrUnsafeOutDir, outDir)
	}

	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	if within(wd, outDir) {
		return fmt.Errorf("%w: %s contains the working directory", ErrUnsafeOutDir, outDir)
	}
	if !force && !within(outDir, wd) {
		return fmt.Errorf("%w: %s is outside the working directory", ErrUnsafeOutDir, outDir)
	}
	return nil
}

// within reports whether p is dir or lies below it.
func within(p, dir string) bool {
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func emptyDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read output directory: %w", err)
	}

	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return 0, fmt.Errorf("empty output directory: %w", err)
		}
	}
	return len(entries), nil
}

// copyTree copies every file under src into dest, returning the slash-separated
// relative paths written. A missing src copies nothing.
func copyTree(src, dest string) ([]string, error) {
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var files []string
	err := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if d.IsDir() {
			return os.MkdirAll(filepath.Join(dest, rel), 0o755)
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dest, rel), data, 0o644); err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("copy %s: %w", src, err)
	}
	return files, nil
}

// hashAssets copies source files to assets/<name>-<hash><ext>. Stylesheets
// are attached to the entry chunk.
func hashAssets(ctx context.Context, sourceDir, entry, outDir string) (Manifest, string, []string, error) {
	prefix := filepath.Base(sourceDir)
	entryKey := path.Join(prefix, filepath.ToSlash(entry))

	if err := os.MkdirAll(filepath.Join(outDir, "assets"), 0o755); err != nil {
		return nil, "", nil, err
	}

	manifest := Manifest{}
	var stylesheets, files []string

	err := filepath.WalkDir(sourceDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(sourceDir, p)
		if err != nil {
			return err
		}
		key := path.Join(prefix, filepath.ToSlash(rel))

		_, t := telemetry.Start(ctx, key)
		defer t.End()

		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		name := HashedName(filepath.Base(rel), data)
		if err := os.WriteFile(filepath.Join(outDir, "assets", name), data, 0o644); err != nil {
			return err
		}

		file := "assets/" + name
		files = append(files, file)
		manifest[key] = Chunk{File: file, Src: key, IsEntry: key == entryKey}
		if strings.EqualFold(filepath.Ext(name), ".css") {
			stylesheets = append(stylesheets, file)
		}
		return nil
	})
	if err != nil {
		return nil, "", nil, fmt.Errorf("hash assets: %w", err)
	}

	chunk, ok := manifest[entryKey]
	if !ok {
		return nil, "", nil, fmt.Errorf("entry %s not found in %s", entry, sourceDir)
	}
	sort.Strings(stylesheets)
	chunk.CSS = stylesheets
	manifest[entryKey] = chunk

	return manifest, entryKey, files, nil
}

// HashedName returns name with the first 8 hex digits of the content's
// SHA-256 inserted before the extension.
func HashedName(name string, content []byte) string {
	sum := sha256.Sum256(content)
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "-" + hex.EncodeToString(sum[:])[:8] + ext
}

func writeJSON(p string, v any) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, append(data, '\n'), 0o644)
}

func renderShell(outDir, entryKey, title string, table *router.Table) error {
	fragment, err := vite.HTMLFragment(vite.Config{
		FS:        os.DirFS(outDir),
		IsDev:     false,
		ViteEntry: entryKey,
	})
	if err != nil {
		return fmt.Errorf("read asset manifest: %w", err)
	}

	f, err := os.Create(filepath.Join(outDir, "index.html"))
	if err != nil {
		return err
	}
	if err := frontend.Render(f, frontend.Shell{
		Title:    title,
		Tags:     fragment.Tags,
		Manifest: table.Manifest(),
	}); err != nil {
		_ = f.Close()
		return fmt.Errorf("render shell: %w", err)
	}
	return f.Close()
}
