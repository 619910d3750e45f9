package main

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"testing"
)

func TestToResponse(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		want errorResponse
	}{
		{
			"missing row",
			fmt.Errorf("get: %w", sql.ErrNoRows),
			http.StatusNotFound,
			errorResponse{Error: true, Message: "Not found"},
		},
		{
			"validation",
			ValidationErrors{"title": "is required"},
			http.StatusUnprocessableEntity,
			errorResponse{Error: true, Message: "Validation failed", Errors: map[string]string{"title": "is required"}},
		},
		{
			"http error",
			&HTTPError{Code: http.StatusBadRequest, Message: "Invalid request body", Err: errors.New("eof")},
			http.StatusBadRequest,
			errorResponse{Error: true, Message: "Invalid request body"},
		},
		{
			"anything else",
			errors.New("disk on fire"),
			http.StatusInternalServerError,
			errorResponse{Error: true, Message: "Internal server error"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, got := toResponse(tt.err, nil)
			if code != tt.code {
				t.Errorf("toResponse() code = %d, want %d", code, tt.code)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("toResponse() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	ve := ValidationErrors{"title": "is required", "crew_id": "crew does not exist"}
	want := "validation failed: crew_id: crew does not exist, title: is required"
	if got := ve.Error(); got != want {
		t.Errorf("ValidationErrors.Error() = %q, want %q", got, want)
	}
}
