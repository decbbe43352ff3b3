package web

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/olivere/vite"

	"github.com/robinvdvleuten/margin/frontend"
	"github.com/robinvdvleuten/margin/router"
)

// mountAssets registers the shell, deep-link redirects and static files.
// Production serves the build output; development serves the public and
// source directories from disk plus the hot-reload websocket.
func (s *Server) mountAssets(mux *http.ServeMux) error {
	var (
		tags     template.HTML
		static   fs.FS
		hmrURL   string
		fragment *vite.Fragment
		err      error
	)

	if dev := s.opts.Dev; dev != nil {
		static = os.DirFS(dev.PublicDir)
		mux.Handle("GET /src/", http.StripPrefix("/src/", http.FileServerFS(os.DirFS(dev.SourceDir))))
		mux.Handle("GET "+dev.HMRPath, s.hub)
		hmrURL = fmt.Sprintf("ws://%s%s", net.JoinHostPort(dev.HMRHost, strconv.Itoa(s.port)), dev.HMRPath)

		if dev.ViteURL != "" {
			fragment, err = vite.HTMLFragment(vite.Config{
				FS:        os.DirFS(filepath.Dir(dev.SourceDir)),
				IsDev:     true,
				ViteURL:   dev.ViteURL,
				ViteEntry: path.Join(filepath.Base(dev.SourceDir), dev.Entry),
			})
			if err != nil {
				return fmt.Errorf("failed to create vite fragment: %w", err)
			}
			tags = fragment.Tags
		} else {
			tags = frontend.SourceTags("/src", dev.Entry, dev.Stylesheets...)
		}
	} else {
		static, err = s.distFS()
		if err != nil {
			return err
		}
		fragment, err = vite.HTMLFragment(vite.Config{
			FS:        static,
			IsDev:     false,
			ViteEntry: s.opts.ViteEntry,
		})
		if err != nil {
			return fmt.Errorf("failed to create vite fragment: %w", err)
		}
		tags = fragment.Tags
	}

	var shell bytes.Buffer
	if err := frontend.Render(&shell, frontend.Shell{
		Title:    s.opts.Title,
		Tags:     tags,
		Manifest: s.routes.Manifest(),
		HMRURL:   hmrURL,
	}); err != nil {
		return fmt.Errorf("failed to render shell: %w", err)
	}

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(shell.Bytes())
	})
	mux.Handle("GET /", s.staticHandler(static))
	return nil
}

// staticHandler redirects registered route paths to their hash-history
// location and serves files from static. Anything else is a 404.
func (s *Server) staticHandler(static fs.FS) http.Handler {
	files := http.FileServerFS(static)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.routes.Has(r.URL.Path) {
			match, err := s.routes.Resolve(r.URL.Path)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			http.Redirect(w, r, "/"+router.Href(match.Route.Path), http.StatusFound)
			return
		}

		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		info, err := fs.Stat(static, name)
		if err != nil || info.IsDir() {
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				s.logger.Debug("static lookup failed", "path", name, "error", err)
			}
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
