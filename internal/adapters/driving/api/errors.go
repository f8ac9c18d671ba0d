package api

import (
	"errors"
	"net/http"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Error codes returned in the JSON error body.
const (
	codeBadRequest      = "bad_request"
	codeSessionNotFound = "session_not_found"
	codeSessionEnded    = "session_ended"
	codeIndexNotFound   = "index_not_found"
	codeEmbeddingFailed = "embedding_failed"
	codeInternal        = "internal_error"
)

// errSessionNotFound is returned when a reset names an unknown session.
var errSessionNotFound = errors.New("session not found")

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler writes a response if err matches. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

var errorHandlers = []errorHandler{
	sentinelHandler(domain.ErrInvalidArgument, http.StatusBadRequest, codeBadRequest),
	sentinelHandler(errSessionNotFound, http.StatusNotFound, codeSessionNotFound),
	sentinelHandler(domain.ErrSessionEnded, http.StatusConflict, codeSessionEnded),
	sentinelHandler(domain.ErrIndexNotFound, http.StatusServiceUnavailable, codeIndexNotFound),
	sentinelHandler(domain.ErrEmbedding, http.StatusBadGateway, codeEmbeddingFailed),
}

// handleError writes the response for a domain error.
func handleError(w http.ResponseWriter, err error) {
	for _, h := range errorHandlers {
		if h(w, err) {
			return
		}
	}
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}
