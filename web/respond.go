package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/robinvdvleuten/margin/app"
	"github.com/robinvdvleuten/margin/market"
	"github.com/robinvdvleuten/margin/portfolio"
	"github.com/robinvdvleuten/margin/router"
	"github.com/robinvdvleuten/margin/storage"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeJSONResponse writes a JSON response to the http.ResponseWriter.
// If encoding fails, it writes an error response.
func writeJSONResponse(w http.ResponseWriter, data any) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeError maps err onto a status code and writes it as JSON.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: err.Error()}

	var verr *portfolio.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	writeJSONStatus(w, status, resp)
}

func statusFor(err error) int {
	var (
		verr        *portfolio.ValidationError
		unsupported *market.UnsupportedIndexError
	)

	switch {
	case errors.As(err, &verr), errors.Is(err, errBadRequest), errors.Is(err, market.ErrInvalidFundCode):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, router.ErrNoRoute),
		errors.Is(err, market.ErrFundNotFound), errors.As(err, &unsupported):
		return http.StatusNotFound
	case errors.Is(err, portfolio.ErrDuplicate), errors.Is(err, portfolio.ErrNotInitialized):
		return http.StatusConflict
	case errors.Is(err, portfolio.ErrNoAssets):
		return http.StatusUnprocessableEntity
	case errors.Is(err, app.ErrMarketUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// decodeJSON reads the request body into v.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid JSON: %v", err)
	}
	return nil
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}
