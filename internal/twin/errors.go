package twin

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/avillar/storecheck/internal/contract"
)

// errorBody is the backend's standard error payload.
type errorBody struct {
	Timestamp string               `json:"timestamp"`
	Status    int                  `json:"status"`
	Error     string               `json:"error"`
	Path      string               `json:"path"`
	Errors    []contract.Violation `json:"errors,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, errorBody{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Status:    status,
		Error:     message,
		Path:      r.URL.Path,
	})
}

// writeValidationError emits a 422 with one entry per violated rule, in
// rule declaration order.
func writeValidationError(w http.ResponseWriter, r *http.Request, violations []contract.Violation) {
	writeJSON(w, http.StatusUnprocessableEntity, errorBody{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Status:    http.StatusUnprocessableEntity,
		Error:     "Dados inválidos",
		Path:      r.URL.Path,
		Errors:    violations,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
