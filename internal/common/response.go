package common

import (
	"encoding/json"
	"errors"
	"net/http"
)

type ErrorResponse struct {
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Message: message})
}

// RespondWithAppError writes err using its mapped status. Validation errors keep their
// field list and MessageErrors their message; any other error that maps to 500 is
// reported as fallback so internals never leak.
func RespondWithAppError(w http.ResponseWriter, err error, fallback string) {
	code := HTTPStatusFromError(err)

	var verr *ValidationError
	if errors.As(err, &verr) {
		RespondWithJSON(w, code, ErrorResponse{Message: verr.Message, Errors: verr.Fields})
		return
	}
	var merr *MessageError
	if errors.As(err, &merr) {
		RespondWithError(w, code, merr.Message)
		return
	}
	if code == http.StatusInternalServerError {
		RespondWithError(w, code, fallback)
		return
	}
	RespondWithError(w, code, err.Error())
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
