package application

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/example/class-scheduler/internal/recurrence"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := recurrence.ParseClock(fl.Field().String())
		return err == nil
	})
	return v
}

// validateStruct runs the struct tag rules and converts failures into field errors.
func validateStruct(input any) *ValidationError {
	vErr := &ValidationError{}
	err := validate.Struct(input)
	if err == nil {
		return vErr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		vErr.add("input", err.Error())
		return vErr
	}
	for _, fe := range fieldErrs {
		vErr.add(fe.Field(), fieldMessage(fe))
	}
	return vErr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte", "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.Join(strings.Fields(fe.Param()), ", "))
	case "clock":
		return "must be a HH:MM time"
	default:
		return "is invalid"
	}
}

func validatePattern(p RecurrencePattern) *ValidationError {
	vErr := validateStruct(p)
	if strings.TrimSpace(p.Title) == "" {
		vErr.add("title", "title is required")
	}
	if p.StartDate.IsZero() {
		vErr.add("start_date", "start_date is required")
	}
	if p.EndDate != nil && !p.StartDate.IsZero() && p.EndDate.Before(p.StartDate) {
		vErr.add("end_date", "end_date must not be before start_date")
	}
	if _, ok := vErr.FieldErrors["start_time"]; !ok {
		if _, ok := vErr.FieldErrors["end_time"]; !ok && p.EndTime <= p.StartTime {
			vErr.add("end_time", "end_time must be after start_time")
		}
	}
	return vErr
}

func validateSingleClass(p SingleClassParams) *ValidationError {
	vErr := validateStruct(p)
	if strings.TrimSpace(p.Title) == "" {
		vErr.add("title", "title is required")
	}
	validateWindow(p.Start, p.End, vErr)
	return vErr
}

func validateUpdate(existing Class, u ClassUpdate) *ValidationError {
	vErr := validateStruct(u)
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		vErr.add("title", "title is required")
	}
	start, end := existing.Start, existing.End
	if u.Start != nil {
		start = *u.Start
	}
	if u.End != nil {
		end = *u.End
	}
	if u.Start != nil || u.End != nil {
		validateWindow(start, end, vErr)
	}
	return vErr
}

func validateWindow(start, end time.Time, vErr *ValidationError) {
	if start.IsZero() {
		vErr.add("start_time", "start_time is required")
	}
	if end.IsZero() {
		vErr.add("end_time", "end_time is required")
	}
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		vErr.add("end_time", "end_time must be after start_time")
	}
}
