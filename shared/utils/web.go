package utils

import (
	"encoding/json"
	"net/http"

	"github.com/itchan-dev/contestbot/shared/errors"
	"github.com/itchan-dev/contestbot/shared/logger"
)

// WriteErrorAndStatusCode maps err onto its HTTP status. Domain errors keep
// their user-facing message, anything else is hidden behind the status text.
func WriteErrorAndStatusCode(w http.ResponseWriter, err error) {
	if e, ok := err.(*errors.ErrorWithStatusCode); ok {
		http.Error(w, e.Message, e.StatusCode)
		return
	}
	code := errors.StatusCode(err)
	if code == http.StatusInternalServerError {
		logger.Log.Error("request failed", "error", err)
		http.Error(w, http.StatusText(code), code)
		return
	}
	http.Error(w, errors.UserMessage(err), code)
}

func WriteJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
	}
}
