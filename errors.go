package main

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// HTTPError carries the status code a handler wants to answer with.
type HTTPError struct {
	Code    int
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// ValidationErrors maps a request field to what is wrong with it.
type ValidationErrors map[string]string

func (ve ValidationErrors) Error() string {
	fields := make([]string, 0, len(ve))
	for field := range ve {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+ve[field])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

type errorResponse struct {
	Error   bool              `json:"error"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// toResponse maps err to a status code and body. Messages of unexpected
// errors are not leaked to the client.
func toResponse(err error, ln *Language) (int, errorResponse) {
	var httpError *HTTPError
	var validation ValidationErrors
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound, errorResponse{Error: true, Message: ln.Lang("Not found")}
	case errors.As(err, &validation):
		translated := make(map[string]string, len(validation))
		for field, message := range validation {
			translated[field] = ln.Lang(message)
		}
		return http.StatusUnprocessableEntity, errorResponse{Error: true, Message: ln.Lang("Validation failed"), Errors: translated}
	case errors.As(err, &httpError):
		return httpError.Code, errorResponse{Error: true, Message: ln.Lang(httpError.Message)}
	}
	return http.StatusInternalServerError, errorResponse{Error: true, Message: ln.Lang("Internal server error")}
}
