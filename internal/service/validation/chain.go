// Package validation holds the ordered checks a request must pass before it
// may mutate an appointment. Checks are linked into a chain that stops at the
// first failure.
package validation

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jwalitptl/appointment-api/internal/model"
)

// Input is the raw, unparsed request as received from the caller.
type Input struct {
	PatientID  string `json:"patient_id" validate:"required"`
	ProviderID string `json:"provider_id" validate:"required"`
	Date       string `json:"date" validate:"required"`
	Time       string `json:"time" validate:"required"`
	Reason     string `json:"reason" validate:"required,max=1000"`
}

// Request flows through the chain. Validators fill the parsed fields as they pass.
type Request struct {
	Caller *model.UserContext
	Input  Input

	PatientID  uuid.UUID
	ProviderID uuid.UUID
	Date       model.Date
	Time       string
	Patient    *model.Patient
	Provider   *model.Provider
}

type Handler interface {
	SetNext(next Handler) Handler
	Handle(ctx context.Context, req *Request) error
}

type link struct {
	next Handler
}

// SetNext returns next so calls can be chained.
func (l *link) SetNext(next Handler) Handler {
	l.next = next
	return next
}

func (l *link) passOn(ctx context.Context, req *Request) error {
	if l.next == nil {
		return nil
	}
	return l.next.Handle(ctx, req)
}

// Chain links handlers in order and returns the head.
func Chain(handlers ...Handler) Handler {
	if len(handlers) == 0 {
		return nil
	}
	for i := 0; i < len(handlers)-1; i++ {
		handlers[i].SetNext(handlers[i+1])
	}
	return handlers[0]
}

// NewValidate returns a validator that reports json field names.
func NewValidate() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Clock returns the current time in the scheduling timezone.
type Clock func() time.Time

func SystemClock(loc *time.Location) Clock {
	return func() time.Time { return time.Now().In(loc) }
}
