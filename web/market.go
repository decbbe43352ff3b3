package web

import "net/http"

func (s *Server) handleGetFund(w http.ResponseWriter, r *http.Request) {
	info, err := s.app.GetFundInfo(r.Context(), r.PathValue("code"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSONResponse(w, info)
}

func (s *Server) handleGetIndexes(w http.ResponseWriter, r *http.Request) {
	indexes, err := s.app.GetAllIndexes(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSONResponse(w, indexes)
}

func (s *Server) handleGetIndex(w http.ResponseWriter, r *http.Request) {
	index, err := s.app.GetIndexData(r.Context(), r.PathValue("code"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSONResponse(w, index)
}
