package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode classifies an error for the batch loop and the API. Codes travel by name
// on the wire, so the numbering is free to change
type ErrorCode uint16

const (
	ErrorCodeUnknown ErrorCode = iota
	// ErrorCodePanic is a panic recovered by middleware or a worker
	ErrorCodePanic
	// ErrorCodeUnavailable is a transient failure; a retry may succeed
	ErrorCodeUnavailable
	// ErrorCodeInvalidArgument is a bad request parameter or command line flag
	ErrorCodeInvalidArgument
	// ErrorCodeValidation is a polygon failing its input checks. The polygon is bypassed
	ErrorCodeValidation
	// ErrorCodeLowValue is a validation failure where a computed quantity fell under its minimum
	ErrorCodeLowValue
	// ErrorCodeProcessing is a numeric or consistency failure while processing one polygon
	ErrorCodeProcessing
	// ErrorCodeIO is unreadable or out of sync input, or a failed write. Aborts the run
	ErrorCodeIO
	// ErrorCodeConfig is missing or malformed configuration or coefficient tables. Aborts the run
	ErrorCodeConfig
	// ErrorCodeJSON is a request body that does not parse
	ErrorCodeJSON
	ErrorCodeNotFound
	// ErrorCodeDuplicateKey is a unique constraint violation
	ErrorCodeDuplicateKey
	// ErrorCodeDB is any other database failure
	ErrorCodeDB
)

type codeInfo struct {
	name   string
	status int
	// polygon codes concern only the polygon being processed
	polygon bool
}

var codes = map[ErrorCode]codeInfo{
	ErrorCodeUnknown:         {"unknown", http.StatusInternalServerError, false},
	ErrorCodePanic:           {"panic", http.StatusInternalServerError, false},
	ErrorCodeUnavailable:     {"unavailable", http.StatusServiceUnavailable, false},
	ErrorCodeInvalidArgument: {"invalid_argument", http.StatusUnprocessableEntity, false},
	ErrorCodeValidation:      {"validation", http.StatusUnprocessableEntity, true},
	ErrorCodeLowValue:        {"low_value", http.StatusUnprocessableEntity, true},
	ErrorCodeProcessing:      {"processing", http.StatusUnprocessableEntity, true},
	ErrorCodeIO:              {"io", http.StatusInternalServerError, false},
	ErrorCodeConfig:          {"config", http.StatusInternalServerError, false},
	ErrorCodeJSON:            {"json", http.StatusBadRequest, false},
	ErrorCodeNotFound:        {"not_found", http.StatusNotFound, false},
	ErrorCodeDuplicateKey:    {"duplicate_key", http.StatusConflict, false},
	ErrorCodeDB:              {"db", http.StatusInternalServerError, false},
}

func (c ErrorCode) String() string {
	if ci, ok := codes[c]; ok {
		return ci.name
	}
	return fmt.Sprintf("code(%d)", uint16(c))
}

// Status is the HTTP status a response carrying c is sent with
func (c ErrorCode) Status() int {
	if ci, ok := codes[c]; ok {
		return ci.status
	}
	return http.StatusInternalServerError
}

// MarshalText writes the code by name
func (c ErrorCode) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText reads a code name written by MarshalText
func (c *ErrorCode) UnmarshalText(b []byte) error {
	for code, ci := range codes {
		if ci.name == string(b) {
			*c = code
			return nil
		}
	}
	return fmt.Errorf("unknown error code %q", b)
}

// IsPolygonFault reports whether err only concerns the polygon being processed, so a
// batch can record it and move on
func IsPolygonFault(err error) bool {
	if err == nil {
		return false
	}
	return codes[CodeOf(err)].polygon
}

// HTTPStatus returns the mapped HTTP status for any error
func HTTPStatus(err error) int { return CodeOf(err).Status() }
