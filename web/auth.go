package web

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	sessionCookie = "margin_session"
	sessionTTL    = 12 * time.Hour
)

type passwordRequest struct {
	Password string `json:"password"`
}

// AuthStatus tells the login page where to send the user.
type AuthStatus struct {
	FirstRun      bool `json:"firstRun"`
	Authenticated bool `json:"authenticated"`
}

func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	first, err := s.app.IsFirstRun(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSONResponse(w, AuthStatus{
		FirstRun:      first,
		Authenticated: !first && s.validSession(r),
	})
}

// handleSetPassword sets the first password, or changes it for a signed in
// user.
func (s *Server) handleSetPassword(w http.ResponseWriter, r *http.Request) {
	first, err := s.app.IsFirstRun(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !first && !s.validSession(r) {
		writeJSONStatus(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req passwordRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.app.SetPassword(r.Context(), req.Password); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	ok, err := s.app.VerifyPassword(r.Context(), req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		writeJSONStatus(w, http.StatusUnauthorized, ErrorResponse{Error: "incorrect password"})
		return
	}

	token := uuid.NewString()
	expires := time.Now().Add(sessionTTL)

	s.sessionsMu.Lock()
	s.pruneSessionsLocked(time.Now())
	s.sessions[token] = expires
	s.sessionsMu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSONResponse(w, AuthStatus{Authenticated: true})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.opts.SingleUser {
		s.app.Logout()
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.sessionsMu.Lock()
		delete(s.sessions, c.Value)
		s.pruneSessionsLocked(time.Now())
		remaining := len(s.sessions)
		s.sessionsMu.Unlock()

		if remaining == 0 {
			s.app.Logout()
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) validSession(r *http.Request) bool {
	if s.opts.SingleUser && s.app.IsAuthenticated() {
		return true
	}

	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return false
	}

	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	expires, ok := s.sessions[c.Value]
	if !ok {
		return false
	}
	if time.Now().After(expires) {
		delete(s.sessions, c.Value)
		return false
	}
	return true
}

// pruneSessionsLocked drops expired sessions. sessionsMu must be held.
func (s *Server) pruneSessionsLocked(now time.Time) {
	for token, expires := range s.sessions {
		if now.After(expires) {
			delete(s.sessions, token)
		}
	}
}

// requireSession is middleware that rejects requests without a valid session.
func (s *Server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.validSession(r) {
			writeJSONStatus(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
			return
		}
		next(w, r)
	}
}
