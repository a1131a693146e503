package httpx

import (
	"log/slog"
	"net/http"
)

// BadRequest reports a client error with the supplied detail.
func BadRequest(w http.ResponseWriter, detail string) {
	Problem(w, http.StatusBadRequest, "Validation Failed", detail)
}

// NotFound reports a missing resource.
func NotFound(w http.ResponseWriter, detail string) {
	Problem(w, http.StatusNotFound, "Not Found", detail)
}

// Conflict reports a state conflict, e.g. paying an already settled period.
func Conflict(w http.ResponseWriter, detail string) {
	Problem(w, http.StatusConflict, "Conflict", detail)
}

// Internal reports an unexpected server error. The error is logged, never
// sent to the client.
func Internal(w http.ResponseWriter, err error) {
	if err != nil {
		slog.Error("internal error", slog.String("error", err.Error()))
	}
	Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
