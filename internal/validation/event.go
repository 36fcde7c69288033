// Package validation checks event input before it reaches storage.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"happymemories/internal/domain"
)

// MinDetailsLength is the minimum number of characters in an event's details.
const MinDetailsLength = 10

// dateLayouts are tried in order. Layouts without a zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

var fieldLabels = map[string]string{
	"category":   "Category",
	"title":      "Title",
	"details":    "Detail",
	"location":   "Location",
	"start_date": "Start date",
	"end_date":   "End date",
	"image":      "Image",
}

type eventForm struct {
	Category  string `json:"category" validate:"required"`
	Title     string `json:"title" validate:"required"`
	Details   string `json:"details" validate:"required,min=10"`
	Location  string `json:"location" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
	Image     string `json:"image" validate:"required"`
}

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

// ValidateEventFields checks every field of in and returns all violations at once
// as a *domain.ValidationError. The future-date rule is not applied here.
func ValidateEventFields(in domain.EventInput) (domain.EventFields, error) {
	form := eventForm{
		Category:  strings.TrimSpace(in.Category),
		Title:     strings.TrimSpace(in.Title),
		Details:   strings.TrimSpace(in.Details),
		Location:  strings.TrimSpace(in.Location),
		StartDate: strings.TrimSpace(in.StartDate),
		EndDate:   strings.TrimSpace(in.EndDate),
		Image:     strings.TrimSpace(in.Image),
	}

	verr := &domain.ValidationError{}
	rejected := make(map[string]bool)
	if err := validate.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return domain.EventFields{}, fmt.Errorf("validate event: %w", err)
		}
		for _, fe := range fieldErrs {
			verr.Add(fe.Field(), message(fe))
			rejected[fe.Field()] = true
		}
	}

	var start, end time.Time
	if !rejected["start_date"] {
		t, err := ParseDate(form.StartDate)
		if err != nil {
			verr.Add("start_date", "Start date must be a valid date")
		}
		start = t
	}
	if !rejected["end_date"] {
		t, err := ParseDate(form.EndDate)
		if err != nil {
			verr.Add("end_date", "End date must be a valid date")
		}
		end = t
	}

	if verr.HasErrors() {
		return domain.EventFields{}, verr
	}
	return domain.EventFields{
		Category:  form.Category,
		Title:     form.Title,
		Details:   form.Details,
		Location:  form.Location,
		StartDate: start,
		EndDate:   end,
		Image:     form.Image,
	}, nil
}

// ValidateEventIsFuture fails with domain.ErrTemporal unless start is strictly after now.
func ValidateEventIsFuture(start, now time.Time) error {
	if !start.After(now) {
		return fmt.Errorf("%w: selected date %s must be after %s",
			domain.ErrTemporal, start.UTC().Format(time.RFC3339), now.UTC().Format(time.RFC3339))
	}
	return nil
}

// ParseDate reads s with the first matching accepted layout.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func message(fe validator.FieldError) string {
	label := fieldLabels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "min":
		return fmt.Sprintf("The %s should have at least %s characters", strings.ToLower(label), fe.Param())
	}
	return fmt.Sprintf("%s is invalid", label)
}
