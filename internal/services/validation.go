package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/assetdesk/asset-backend/internal/apperrors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names, clients never see Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct records every tag failure of req into errs
func validateStruct(req interface{}, errs *apperrors.FieldErrors) {
	err := validate.Struct(req)
	if err == nil {
		return
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add("request", "Invalid request")
		return
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), fieldMessage(fe))
	}
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", name, fe.Param())
	case "alpha":
		return fmt.Sprintf("%s must contain letters only", name)
	case "uuid":
		return fmt.Sprintf("%s must be a valid identifier", name)
	default:
		return fmt.Sprintf("%s is invalid", name)
	}
}

// parseUUIDField parses raw unless field already failed
func parseUUIDField(errs *apperrors.FieldErrors, field, raw string) (uuid.UUID, bool) {
	if errs.Has(field) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		errs.Add(field, fmt.Sprintf("%s must be a valid identifier", field))
		return uuid.Nil, false
	}
	return id, true
}

// parseDateField accepts YYYY-MM-DD or RFC3339 and keeps the calendar date only
func parseDateField(errs *apperrors.FieldErrors, field, raw string) (time.Time, bool) {
	if errs.Has(field) {
		return time.Time{}, false
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		errs.Add(field, fmt.Sprintf("%s is required", field))
		return time.Time{}, false
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return dateOnly(t), true
		}
	}
	errs.Add(field, fmt.Sprintf("%s must be a valid date", field))
	return time.Time{}, false
}

// parseEnumField converts raw with parse, recording a failure against field
func parseEnumField[T any](errs *apperrors.FieldErrors, field, raw string, parse func(string) (T, bool)) (T, bool) {
	var zero T
	if errs.Has(field) {
		return zero, false
	}
	v, ok := parse(raw)
	if !ok {
		errs.Add(field, fmt.Sprintf("%s is invalid", field))
		return zero, false
	}
	return v, true
}

// dateOnly drops the time of day, the calendar date is read in t's own zone
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
