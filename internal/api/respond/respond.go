// Package respond writes JSON responses and maps classified errors to
// HTTP statuses in one place so every handler speaks the same dialect.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nourishhq/dietitian-platform/internal/apperr"
)

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a classified error as its taxonomy payload, or a generic
// internal error for anything unclassified. Internal details never leak.
func Error(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		JSON(w, status, appErr)
		return
	}
	JSON(w, status, map[string]string{"code": "internal", "message": "internal error"})
}
