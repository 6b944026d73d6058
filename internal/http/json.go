package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lutefd/courtline-api/internal/domain/scores"
	"github.com/lutefd/courtline-api/internal/storage/docstore"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// writeError maps rule violations to 422 and everything else to 500. The
// caller handles 4xx statuses it can name more precisely.
func writeError(w http.ResponseWriter, err error) {
	var vErr *scores.ValidationError
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": vErr.Reason})
		return
	}
	var conflict *docstore.ConflictError
	if errors.As(err, &conflict) {
		writeConflict(w, conflict)
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}
