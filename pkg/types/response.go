package types

import pkgerrors "github.com/angelmondragon/lensretail-backend/pkg/errors"

// SuccessEnvelope wraps every 2xx JSON body as {"data": ...}.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public face of a typed error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every non-2xx JSON body as {"error": {...}}.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Typed rebuilds the typed error a client received. Returns nil when the
// envelope carried no code.
func (e ErrorEnvelope) Typed() *pkgerrors.Error {
	if e.Error.Code == "" {
		return nil
	}
	return pkgerrors.New(pkgerrors.Code(e.Error.Code), e.Error.Message).WithDetails(e.Error.Details)
}
