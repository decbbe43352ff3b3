package web

import (
	"context"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/margin/portfolio"
)

type updateAssetRequest struct {
	Type   portfolio.AssetType `json:"type"`
	Source string              `json:"source"`
	Amount decimal.Decimal     `json:"amount"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type sourceRequest struct {
	Name string `json:"name"`
}

type rebalanceRequest struct {
	Target float64 `json:"target"`
	Note   string  `json:"note"`
}

// CreatedResponse carries the ID of a newly stored record.
type CreatedResponse struct {
	ID int64 `json:"id"`
}

func (s *Server) handleGetAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := s.app.GetAssets(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSONResponse(w, assets)
}

func (s *Server) handleSaveAsset(w http.ResponseWriter, r *http.Request) {
	var in portfolio.AssetInput
	if err := decodeJSON(r, &in); err != nil {
		s.writeError(w, err)
		return
	}

	id, err := s.app.SaveAsset(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSONResponse(w, CreatedResponse{ID: id})
}

func (s *Server) handleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req updateAssetRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.app.UpdateAsset(r.Context(), id, req.Type, req.Source, req.Amount); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateAssetAmount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.app.UpdateAssetAmount(r.Context(), id, req.Amount); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	s.handleDelete(w, r, s.app.DeleteAsset)
}

func (s *Server) handleGetRatio(w http.ResponseWriter, r *http.Request) {
	ratio, err := s.app.GetPortfolioRatio(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSONResponse(w, ratio)
}

func (s *Server) handleGetAdvice(w http.ResponseWriter, r *http.Request) {
	target, err := strconv.ParseFloat(r.URL.Query().Get("target"), 64)
	if err != nil {
		s.writeError(w, badRequest("target must be a number"))
		return
	}

	advice, err := s.app.GetRebalanceAdvice(r.Context(), target)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSONResponse(w, advice)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.app.GetHistory(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSONResponse(w, history)
}

// handleSaveSnapshot records the current totals. An empty portfolio records
// nothing and answers 204.
func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.app.SaveSnapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if snap == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSONResponse(w, snap)
}

func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	s.handleDelete(w, r, s.app.DeleteHistory)
}

func (s *Server) handleGetSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.app.GetSources(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSONResponse(w, sources)
}

func (s *Server) handleAddSource(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	src, err := s.app.AddSource(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSONResponse(w, src)
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	s.handleDelete(w, r, s.app.DeleteSource)
}

func (s *Server) handleGetRebalances(w http.ResponseWriter, r *http.Request) {
	records, err := s.app.GetRebalanceHistory(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSONResponse(w, records)
}

// handleGetLatestRebalance answers null when nothing has been recorded.
func (s *Server) handleGetLatestRebalance(w http.ResponseWriter, r *http.Request) {
	latest, err := s.app.GetLatestRebalance(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSONResponse(w, latest)
}

// handleSaveRebalance records carrying out the advice for the requested
// target against the current holdings.
func (s *Server) handleSaveRebalance(w http.ResponseWriter, r *http.Request) {
	var req rebalanceRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	advice, err := s.app.GetRebalanceAdvice(r.Context(), req.Target)
	if err != nil {
		s.writeError(w, err)
		return
	}

	record := portfolio.RebalanceFromAdvice(advice, req.Note)
	if err := s.app.SaveRebalance(r.Context(), record); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSONResponse(w, record)
}

func (s *Server) handleDeleteRebalance(w http.ResponseWriter, r *http.Request) {
	s.handleDelete(w, r, s.app.DeleteRebalance)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, del func(ctx context.Context, id int64) error) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := del(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
