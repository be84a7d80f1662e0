package validation

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jwalitptl/appointment-api/internal/model"
	"github.com/jwalitptl/appointment-api/internal/repository"
	"github.com/jwalitptl/appointment-api/pkg/errors"
)

type RequiredFields struct {
	link
	validate *validator.Validate
	fields   []string
}

// NewRequiredFields checks the named Input fields (Go field names). An empty list checks all.
func NewRequiredFields(v *validator.Validate, fields ...string) *RequiredFields {
	return &RequiredFields{validate: v, fields: fields}
}

func (h *RequiredFields) Handle(ctx context.Context, req *Request) error {
	var err error
	if len(h.fields) == 0 {
		err = h.validate.Struct(req.Input)
	} else {
		err = h.validate.StructPartial(req.Input, h.fields...)
	}
	if err != nil {
		return errors.NewValidation(messages(err)...)
	}
	return h.passOn(ctx, req)
}

func messages(err error) []string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out = append(out, fmt.Sprintf("%s is required", fe.Field()))
		case "max":
			out = append(out, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			out = append(out, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return out
}

type IdentifierShape struct {
	link
	validate *validator.Validate
}

func NewIdentifierShape(v *validator.Validate) *IdentifierShape {
	return &IdentifierShape{validate: v}
}

func (h *IdentifierShape) Handle(ctx context.Context, req *Request) error {
	for _, f := range []struct {
		name string
		raw  string
		dst  *uuid.UUID
	}{
		{"patient_id", req.Input.PatientID, &req.PatientID},
		{"provider_id", req.Input.ProviderID, &req.ProviderID},
	} {
		// The uuid tag only matches lowercase hex.
		if err := h.validate.Var(strings.ToLower(f.raw), "uuid"); err != nil {
			return errors.NewValidation(fmt.Sprintf("%s must be a valid identifier", f.name))
		}
		id, err := uuid.Parse(f.raw)
		if err != nil {
			return errors.NewValidation(fmt.Sprintf("%s must be a valid identifier", f.name))
		}
		*f.dst = id
	}
	return h.passOn(ctx, req)
}

// PatientOwnership requires the patient to exist, be active and belong to the caller.
type PatientOwnership struct {
	link
	patients repository.PatientRepository
}

func NewPatientOwnership(patients repository.PatientRepository) *PatientOwnership {
	return &PatientOwnership{patients: patients}
}

func (h *PatientOwnership) Handle(ctx context.Context, req *Request) error {
	patient, err := h.patients.Get(ctx, req.PatientID)
	if err != nil {
		if errors.CodeOf(err) == errors.ErrNotFound {
			return errors.NewNotEligible("patient", err)
		}
		return err
	}
	if req.Caller == nil || patient.ClientID != req.Caller.UserID || !patient.Active {
		return errors.NewNotEligible("patient", nil)
	}
	req.Patient = patient
	return h.passOn(ctx, req)
}

type ProviderApproval struct {
	link
	providers repository.ProviderRepository
}

func NewProviderApproval(providers repository.ProviderRepository) *ProviderApproval {
	return &ProviderApproval{providers: providers}
}

func (h *ProviderApproval) Handle(ctx context.Context, req *Request) error {
	provider, err := h.providers.Get(ctx, req.ProviderID)
	if err != nil {
		if errors.CodeOf(err) == errors.ErrNotFound {
			return errors.NewNotEligible("provider", err)
		}
		return err
	}
	if !provider.Bookable() {
		return errors.NewNotEligible("provider", nil)
	}
	req.Provider = provider
	return h.passOn(ctx, req)
}

// FutureDate accepts today or any later day in the scheduling timezone.
type FutureDate struct {
	link
	now Clock
}

func NewFutureDate(now Clock) *FutureDate {
	return &FutureDate{now: now}
}

func (h *FutureDate) Handle(ctx context.Context, req *Request) error {
	date, err := model.ParseDate(req.Input.Date)
	if err != nil {
		return errors.NewValidation("date must be in YYYY-MM-DD format")
	}
	if date.Before(model.DateOf(h.now())) {
		return errors.NewValidation("date must be today or in the future")
	}
	req.Date = date
	return h.passOn(ctx, req)
}

type TimeFormat struct {
	link
	validate *validator.Validate
}

func NewTimeFormat(v *validator.Validate) *TimeFormat {
	return &TimeFormat{validate: v}
}

func (h *TimeFormat) Handle(ctx context.Context, req *Request) error {
	if err := h.validate.Var(req.Input.Time, "len=5,datetime=15:04"); err != nil {
		return errors.NewValidation("time must be in HH:MM format")
	}
	req.Time = req.Input.Time
	return h.passOn(ctx, req)
}

// NewBookingChain orders the checks for a new appointment.
func NewBookingChain(v *validator.Validate, patients repository.PatientRepository, providers repository.ProviderRepository, now Clock) Handler {
	return Chain(
		NewRequiredFields(v),
		NewIdentifierShape(v),
		NewPatientOwnership(patients),
		NewProviderApproval(providers),
		NewFutureDate(now),
		NewTimeFormat(v),
	)
}

// NewRescheduleChain only looks at the new date and time.
func NewRescheduleChain(v *validator.Validate, now Clock) Handler {
	return Chain(
		NewRequiredFields(v, "Date", "Time"),
		NewFutureDate(now),
		NewTimeFormat(v),
	)
}
