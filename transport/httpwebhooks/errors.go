package httpwebhooks

import (
	"encoding/json"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-stripe-webhooks/core"
)

type errorBody struct {
	Category string `json:"category"`
	Code     int    `json:"code"`
	TextCode string `json:"text_code"`
	Message  string `json:"message"`
}

type errorEnvelope struct {
	Error     errorBody `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
}

type ackResponse struct {
	Received bool `json:"received"`
}

// envelopeFor renders err without leaking wrapped causes to the caller.
func envelopeFor(err error, requestID string) (int, errorEnvelope) {
	body := errorBody{
		Category: string(goerrors.CategoryInternal),
		Code:     http.StatusInternalServerError,
		TextCode: core.ServiceErrorInternal,
		Message:  "webhooks: internal error",
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich != nil {
		body.Category = string(rich.Category)
		body.TextCode = rich.TextCode
		body.Message = rich.Message
		if rich.Code != 0 {
			body.Code = rich.Code
		}
	}
	return body.Code, errorEnvelope{Error: body, RequestID: requestID}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
