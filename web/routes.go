package web

import "net/http"

func (s *Server) handleGetRoutes(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, s.routes.Manifest())
}

// handleResolveRoute resolves ?path=, which may also be a full hash-history
// location.
func (s *Server) handleResolveRoute(w http.ResponseWriter, r *http.Request) {
	match, err := s.routes.Navigate(r.URL.Query().Get("path"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSONResponse(w, match)
}
