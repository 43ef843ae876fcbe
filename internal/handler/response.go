package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/geotrace/geotrace-go/internal/apperror"
)

const maxBodyBytes = 1 << 20 // 1MB

var errInvalidBody = apperror.Validation("INVALID_BODY", "invalid request body")

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// Responder renders results and classified errors.
type Responder struct {
	log           *slog.Logger
	exposeDetails bool
}

// NewResponder creates a Responder. exposeDetails adds error details to
// responses and must be false in production.
func NewResponder(log *slog.Logger, exposeDetails bool) *Responder {
	return &Responder{log: log, exposeDetails: exposeDetails}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error maps err to a status code and writes it.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := apperror.As(err)
	if !ok {
		e = apperror.New(apperror.KindInternal, "INTERNAL_ERROR", "internal server error").Wrap(err)
	}

	status := http.StatusInternalServerError
	body := errorBody{Error: e.Message, Code: e.Code}

	switch e.Kind {
	case apperror.KindValidation:
		status = http.StatusBadRequest
	case apperror.KindUnauthorized:
		status = http.StatusUnauthorized
	case apperror.KindConflict:
		status = http.StatusConflict
	case apperror.KindMisconfigured:
		status = http.StatusUnauthorized
		body = errorBody{Error: "unauthorized", Code: "UNAUTHORIZED"}
		rs.log.Error("server misconfiguration", "path", r.URL.Path, "code", e.Code, "error", err)
	default:
		body = errorBody{Error: "internal server error", Code: "INTERNAL_ERROR"}
		rs.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	if rs.exposeDetails {
		switch {
		case e.Details != nil:
			body.Details = e.Details
		case status == http.StatusInternalServerError:
			body.Details = err.Error()
		}
	}

	writeJSON(w, status, body)
}

// decode reads a JSON body into dst and validates it. On failure the error
// response has already been written and decode returns false.
func (rs *Responder) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		if isBodyTooLarge(err) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{
				Error: "request body too large",
				Code:  "BODY_TOO_LARGE",
			})
			return false
		}
		rs.Error(w, r, errInvalidBody.WithDetails(err.Error()))
		return false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		rs.Error(w, r, errInvalidBody.WithDetails(err.Error()))
		return false
	}

	if err := validateStruct(dst); err != nil {
		rs.Error(w, r, err)
		return false
	}
	return true
}

func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || strings.Contains(err.Error(), "http: request body too large")
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// validateStruct runs struct tags and returns a validation error carrying a
// field -> message map.
func validateStruct(v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errInvalidBody.Wrap(err)
	}

	fields := make(map[string]string, len(fieldErrs))
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg := fieldMessage(fe)
		fields[fe.Field()] = msg
		messages = append(messages, msg)
	}

	return &apperror.Error{
		Kind:    apperror.KindValidation,
		Code:    "VALIDATION_ERROR",
		Message: strings.Join(messages, "; "),
		Details: map[string]any{"fields": fields},
	}
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "uuid":
		return field + " must contain valid UUIDs"
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must contain at least %s items", field, fe.Param())
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must contain at most %s items", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
