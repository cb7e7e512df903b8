// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sky-flux/cadence/internal/api/middleware"
	"github.com/sky-flux/cadence/internal/api/response"
	"github.com/sky-flux/cadence/internal/logger"
)

// maxBodyBytes bounds request bodies; imports are the largest.
const maxBodyBytes = 32 << 20

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and validates it. On failure the error
// response has been written and false is returned.
func decode(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) bool {
	ctx := r.Context()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		msg := "Invalid request body: " + err.Error()
		if errors.Is(err, io.EOF) {
			msg = "Request body is required"
		}
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, msg, getRequestID(ctx))
		return false
	}
	if err := v.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make(map[string]any, len(verrs))
			for _, fe := range verrs {
				details[fe.Field()] = describe(fe)
			}
			response.ErrorWithDetails(w, http.StatusBadRequest, response.ErrCodeValidationFailed,
				"Request validation failed", details, getRequestID(ctx))
			return false
		}
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, err.Error(), getRequestID(ctx))
		return false
	}
	return true
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "lt":
		return "must be less than " + fe.Param()
	case "datetime":
		return "must be a date formatted " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

// fail logs unexpected errors and writes the mapped error response.
func fail(w http.ResponseWriter, r *http.Request, log logger.Logger, msg string, err error) {
	ctx := r.Context()
	if response.HTTPStatusFromError(err) >= http.StatusInternalServerError {
		log.ErrorContext(ctx, msg, "error", err)
	}
	response.HandleError(w, err, getRequestID(ctx))
}

func getRequestID(ctx context.Context) string {
	return middleware.GetRequestID(ctx)
}
