package http

import (
	"encoding/json"
	"net/http"

	perr "vdyp/internal/platform/errors"
	pnet "vdyp/internal/platform/net"
	"vdyp/internal/platform/net/http/bind"
)

// Envelope is the body of every API response. Data is set on success, Code and Error
// on failure
type Envelope struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	Field      string         `json:"field,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
}

// JSON writes v as the body with status
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Response lets a handler pick the status of a successful answer. The zero Status is 200
type Response struct {
	Status int
	Body   any
}

// JSONHandler decodes and validates a T from the body, then answers with what fn returns
func JSONHandler[T any](fn func(*http.Request, T) (any, error)) Handler {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := bind.ParseJSON[T](r)
		if err != nil {
			respond(w, r, nil, err)
			return
		}
		out, err := fn(r, in)
		respond(w, r, out, err)
	}
}

// NoBodyHandler answers with what fn returns without reading the body
func NoBodyHandler(fn func(*http.Request) (any, error)) Handler {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := fn(r)
		respond(w, r, out, err)
	}
}

// respond wraps out or err in an Envelope. Errors take their status from their code
func respond(w http.ResponseWriter, r *http.Request, out any, err error) {
	env := Envelope{RequestID: pnet.RequestID(r.Context())}
	status := http.StatusOK
	if err != nil {
		status = perr.HTTPStatus(err)
		wire := perr.WireFrom(err)
		env.Code, env.Error, env.Field = wire.Code, wire.Message, wire.Field
	} else {
		if resp, ok := out.(Response); ok {
			out = resp.Body
			if resp.Status != 0 {
				status = resp.Status
			}
		}
		env.Data = out
	}
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	env.StatusCode, env.Status = status, http.StatusText(status)
	JSON(w, status, env)
}
