package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "is too long"
	case "gt", "min":
		return "must be a positive number"
	}
	return "is not valid"
}

// decodeForm reads a JSON body into dst, rejecting unknown fields, and runs
// the struct validation tags of dst.
func decodeForm(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		return &HTTPError{Code: http.StatusBadRequest, Message: "Invalid request body", Err: err}
	}
	if dec.More() {
		return &HTTPError{Code: http.StatusBadRequest, Message: "Invalid request body", Err: errors.New("trailing data")}
	}
	if err := validate.Struct(dst); err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			return err
		}
		ve := make(ValidationErrors, len(fieldErrors))
		for _, fe := range fieldErrors {
			ve[fe.Field()] = fieldMessage(fe)
		}
		return ve
	}
	return nil
}
