package web

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/robinvdvleuten/margin/app"
	"github.com/robinvdvleuten/margin/storage"
)

// SystemResponse describes the running binary and its database.
type SystemResponse struct {
	System   app.SystemInfo `json:"system"`
	Database storage.Info   `json:"database"`
}

func (s *Server) handleGetSystem(w http.ResponseWriter, r *http.Request) {
	info, err := s.app.GetDBInfo()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSONResponse(w, SystemResponse{
		System:   s.app.GetSystemInfo(),
		Database: info,
	})
}

// handleBackup streams a fresh copy of the database as a download.
func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	dir, err := os.MkdirTemp("", "margin-backup-")
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer func() { _ = os.RemoveAll(dir) }()

	name := app.BackupFileName(time.Now())
	dest := filepath.Join(dir, name)
	if err := s.app.BackupDatabase(dest); err != nil {
		s.writeError(w, err)
		return
	}

	f, err := os.Open(dest)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.sqlite3")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(w, r, name, stat.ModTime(), f)
}
