package handler

import (
	"net/http"

	"restaurant_menu/internal/common"
	"restaurant_menu/internal/platform/logging"
)

// respondError writes err to the client; anything that maps to 500 is logged with the
// request so the detail is not lost when the body is masked.
func respondError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error) {
	if common.HTTPStatusFromError(err) == http.StatusInternalServerError {
		logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	common.RespondWithAppError(w, err, "Internal server error")
}
