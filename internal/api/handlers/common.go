package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zenit-qa/zenit/pkg/httputil"
)

const timeFormat = "2006-01-02T15:04:05Z"

// pathID parses a UUID URL parameter, writing a 400 when it is malformed
func pathID(w http.ResponseWriter, r *http.Request, param, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		httputil.JSONError(w, http.StatusBadRequest, "INVALID_ID", "Invalid "+resource+" ID format", nil)
		return uuid.Nil, false
	}
	return id, true
}
