package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	jsoniter "github.com/json-iterator/go"

	domainerrors "github.com/shelfkeep/library-server/internal/errors"
)

// EnvelopeVersion is the "v" field of every response body.
const EnvelopeVersion = 1

// APIEnvelope wraps successful responses and plain errors.
type APIEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Error   string `json:"error,omitempty"`
}

// APIErrorEnvelope wraps coded errors.
type APIErrorEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer is a huma transformer that wraps every body in the envelope.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	var domainErr *domainerrors.Error
	var apiErr *APIError

	switch e := v.(type) {
	case *APIError:
		apiErr = e
	case error:
		if errors.As(e, &domainErr) {
			apiErr = fromDomainError(domainErr)
		} else {
			return APIEnvelope{Version: EnvelopeVersion, Error: e.Error()}, nil
		}
	default:
		return APIEnvelope{Version: EnvelopeVersion, Success: true, Data: v}, nil
	}

	return errorEnvelope(apiErr.Code, apiErr.Message, apiErr.Details), nil
}

func errorEnvelope(code, message string, details any) APIErrorEnvelope {
	return APIErrorEnvelope{
		Version: EnvelopeVersion,
		Error:   message,
		Code:    code,
		Message: message,
		Details: details,
	}
}

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// writeError writes an error envelope outside of huma (router fallbacks, middleware).
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = jsonAPI.NewEncoder(w).Encode(errorEnvelope(code, message, nil))
}
