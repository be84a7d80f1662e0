package appointment

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/appointment-api/internal/model"
	"github.com/jwalitptl/appointment-api/internal/repository"
	"github.com/jwalitptl/appointment-api/internal/service/validation"
	"github.com/jwalitptl/appointment-api/pkg/errors"
	"github.com/jwalitptl/appointment-api/pkg/lock"
	"github.com/jwalitptl/appointment-api/pkg/metrics"
)

// Publisher receives one event per successful state change.
type Publisher interface {
	PublishAppointment(ctx context.Context, eventType model.EventType, appointment *model.Appointment, actorID uuid.UUID)
}

type Deps struct {
	Appointments repository.AppointmentRepository
	Patients     repository.PatientRepository
	Providers    repository.ProviderRepository
	Locker       lock.Locker
	Events       Publisher
	Validate     *validator.Validate
	Clock        validation.Clock
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
}

type Service struct {
	repo       repository.AppointmentRepository
	providers  repository.ProviderRepository
	guard      *ConflictGuard
	locker     lock.Locker
	events     Publisher
	booking    validation.Handler
	reschedule validation.Handler
	now        validation.Clock
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

func NewService(d Deps) *Service {
	if d.Validate == nil {
		d.Validate = validation.NewValidate()
	}
	if d.Clock == nil {
		d.Clock = validation.SystemClock(time.UTC)
	}
	return &Service{
		repo:       d.Appointments,
		providers:  d.Providers,
		guard:      NewConflictGuard(d.Appointments),
		locker:     d.Locker,
		events:     d.Events,
		booking:    validation.NewBookingChain(d.Validate, d.Patients, d.Providers, d.Clock),
		reschedule: validation.NewRescheduleChain(d.Validate, d.Clock),
		now:        d.Clock,
		metrics:    d.Metrics,
		logger:     d.Logger.With().Str("component", "appointment").Logger(),
	}
}

func (s *Service) Book(ctx context.Context, caller *model.UserContext, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if err := checkCaller(caller); err != nil {
		return nil, err
	}
	if caller.Role != model.RoleClient {
		return nil, errors.NewForbidden("only clients can book appointments", nil)
	}

	vreq := &validation.Request{
		Caller: caller,
		Input: validation.Input{
			PatientID:  req.PatientID,
			ProviderID: req.ProviderID,
			Date:       req.Date,
			Time:       req.Time,
			Reason:     strings.TrimSpace(req.Reason),
		},
	}
	if err := s.booking.Handle(ctx, vreq); err != nil {
		s.record("book", err)
		return nil, err
	}

	appt := &model.Appointment{
		ClientID:   caller.UserID,
		PatientID:  vreq.PatientID,
		ProviderID: vreq.ProviderID,
		Date:       vreq.Date,
		Time:       vreq.Time,
		Status:     model.AppointmentStatusPending,
		Reason:     vreq.Input.Reason,
	}

	err := s.withSlot(ctx, appt.SlotKey(), func(ctx context.Context) error {
		if err := s.guard.Ensure(ctx, appt.ProviderID, appt.Date, appt.Time, uuid.Nil); err != nil {
			return err
		}
		return s.repo.Create(ctx, appt)
	})
	if err != nil {
		s.record("book", err)
		return nil, err
	}

	s.record("book", nil)
	s.logger.Info().
		Str("appointment_id", appt.ID.String()).
		Str("provider_id", appt.ProviderID.String()).
		Str("slot", appt.SlotKey()).
		Msg("appointment booked")

	s.events.PublishAppointment(ctx, model.EventAppointmentCreated, appt, caller.UserID)
	return appt, nil
}

func (s *Service) Approve(ctx context.Context, caller *model.UserContext, id uuid.UUID, req *model.ApproveAppointmentRequest) (*model.Appointment, error) {
	return s.transition(ctx, caller, id, ActionApprove, model.EventAppointmentApproved, func(ctx context.Context, appt *model.Appointment) error {
		fee := req.Fee
		if fee == nil {
			provider, err := s.providers.Get(ctx, appt.ProviderID)
			if err != nil {
				return err
			}
			fee = &provider.ConsultationFee
		}
		if fee.IsNegative() {
			return errors.NewValidation("fee must not be negative")
		}
		rounded := fee.Round(2)
		appt.Fee = &rounded
		if notes := strings.TrimSpace(req.Notes); notes != "" {
			appt.Notes = notes
		}
		return nil
	})
}

func (s *Service) Reject(ctx context.Context, caller *model.UserContext, id uuid.UUID, reason string) (*model.Appointment, error) {
	return s.transition(ctx, caller, id, ActionReject, model.EventAppointmentRejected, func(_ context.Context, appt *model.Appointment) error {
		appt.Notes = prefixed("Rejected", reason)
		return nil
	})
}

func (s *Service) Confirm(ctx context.Context, caller *model.UserContext, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, caller, id, ActionConfirm, model.EventAppointmentConfirmed, nil)
}

func (s *Service) Complete(ctx context.Context, caller *model.UserContext, id uuid.UUID, req *model.CompleteAppointmentRequest) (*model.Appointment, error) {
	return s.transition(ctx, caller, id, ActionComplete, model.EventAppointmentCompleted, func(_ context.Context, appt *model.Appointment) error {
		diagnosis := strings.TrimSpace(req.Diagnosis)
		treatment := strings.TrimSpace(req.Treatment)

		var missing []string
		if diagnosis == "" {
			missing = append(missing, "diagnosis is required")
		}
		if treatment == "" {
			missing = append(missing, "treatment is required")
		}
		if len(missing) > 0 {
			return errors.NewValidation(missing...)
		}

		completedAt := s.now().UTC()
		appt.Diagnosis = diagnosis
		appt.Treatment = treatment
		appt.FollowUp = req.FollowUp
		appt.CompletedAt = &completedAt
		if notes := strings.TrimSpace(req.Notes); notes != "" {
			appt.Notes = notes
		}
		return nil
	})
}

func (s *Service) Cancel(ctx context.Context, caller *model.UserContext, id uuid.UUID, reason string) (*model.Appointment, error) {
	return s.transition(ctx, caller, id, ActionCancel, model.EventAppointmentCancelled, func(_ context.Context, appt *model.Appointment) error {
		appt.Notes = prefixed("Cancelled", reason)
		return nil
	})
}

// Reschedule moves a live appointment to a new slot and sends it back to pending.
// The conflict check and the write share one slot lock; there is no second check.
func (s *Service) Reschedule(ctx context.Context, caller *model.UserContext, id uuid.UUID, req *model.RescheduleAppointmentRequest) (*model.Appointment, error) {
	if err := checkCaller(caller); err != nil {
		return nil, err
	}

	appt, from, err := s.load(ctx, caller, id, ActionReschedule)
	if err != nil {
		s.record(string(ActionReschedule), err)
		return nil, err
	}

	vreq := &validation.Request{Caller: caller, Input: validation.Input{Date: req.Date, Time: req.Time}}
	if err := s.reschedule.Handle(ctx, vreq); err != nil {
		s.record(string(ActionReschedule), err)
		return nil, err
	}

	oldDate, oldTime := appt.Date, appt.Time
	appt.Date = vreq.Date
	appt.Time = vreq.Time
	appt.Status = model.AppointmentStatusPending
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		appt.Notes = notes
	} else {
		appt.Notes = fmt.Sprintf("Rescheduled from %s %s", oldDate, oldTime)
	}

	err = s.withSlot(ctx, appt.SlotKey(), func(ctx context.Context) error {
		if err := s.guard.Ensure(ctx, appt.ProviderID, appt.Date, appt.Time, appt.ID); err != nil {
			return err
		}
		return s.repo.Update(ctx, appt, from)
	})
	if err != nil {
		s.record(string(ActionReschedule), err)
		return nil, err
	}

	s.record(string(ActionReschedule), nil)
	s.events.PublishAppointment(ctx, model.EventAppointmentRescheduled, appt, caller.UserID)
	return appt, nil
}

func (s *Service) Rate(ctx context.Context, caller *model.UserContext, id uuid.UUID, req *model.RateAppointmentRequest) (*model.Appointment, error) {
	if err := checkCaller(caller); err != nil {
		return nil, err
	}

	appt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, notEligible(err)
	}
	if PartyOf(appt, caller) != PartyClient {
		return nil, errors.NewNotEligible("appointment", ErrWrongParty)
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, errors.NewValidation("rating must be between 1 and 5")
	}
	if appt.Status != model.AppointmentStatusCompleted {
		return nil, errors.NewValidation("only completed appointments can be rated")
	}
	if appt.Rating != nil {
		return nil, errors.NewValidation("appointment has already been rated")
	}

	review := strings.TrimSpace(req.Review)
	if err := s.repo.SetRating(ctx, appt.ID, caller.UserID, req.Rating, review); err != nil {
		return nil, err
	}

	rating := req.Rating
	appt.Rating = &rating
	appt.Review = review
	s.events.PublishAppointment(ctx, model.EventAppointmentRated, appt, caller.UserID)
	return appt, nil
}

// List scopes the filter to the caller: clients see their bookings, providers
// their assigned appointments, admins everything.
func (s *Service) List(ctx context.Context, caller *model.UserContext, filters model.AppointmentFilters) ([]*model.Appointment, int, error) {
	if err := checkCaller(caller); err != nil {
		return nil, 0, err
	}
	switch caller.Role {
	case model.RoleClient:
		filters.ClientID = caller.UserID
	case model.RoleProvider:
		filters.ProviderID = caller.UserID
	case model.RoleAdmin:
	default:
		return nil, 0, errors.NewForbidden("unknown role", nil)
	}
	filters.Pagination = filters.Pagination.Normalize()
	return s.repo.List(ctx, &filters)
}

type mutator func(ctx context.Context, appt *model.Appointment) error

func (s *Service) transition(ctx context.Context, caller *model.UserContext, id uuid.UUID, action Action, event model.EventType, mutate mutator) (*model.Appointment, error) {
	if err := checkCaller(caller); err != nil {
		return nil, err
	}

	appt, from, err := s.load(ctx, caller, id, action)
	if err != nil {
		s.record(string(action), err)
		return nil, err
	}

	to, _ := Transition(from, action, PartyOf(appt, caller))
	if mutate != nil {
		if err := mutate(ctx, appt); err != nil {
			s.record(string(action), err)
			return nil, err
		}
	}
	appt.Status = to

	if err := s.repo.Update(ctx, appt, from); err != nil {
		s.record(string(action), err)
		return nil, err
	}

	s.record(string(action), nil)
	s.logger.Info().
		Str("appointment_id", appt.ID.String()).
		Str("action", string(action)).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("appointment transitioned")

	s.events.PublishAppointment(ctx, event, appt, caller.UserID)
	return appt, nil
}

// load fetches the appointment and checks the action is allowed for this caller.
// Missing, foreign and ineligible appointments all look the same to the caller.
func (s *Service) load(ctx context.Context, caller *model.UserContext, id uuid.UUID, action Action) (*model.Appointment, model.AppointmentStatus, error) {
	appt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, "", notEligible(err)
	}
	if _, err := Transition(appt.Status, action, PartyOf(appt, caller)); err != nil {
		return nil, "", errors.NewNotEligible("appointment", err)
	}
	return appt, appt.Status, nil
}

func (s *Service) withSlot(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	err := s.locker.WithLock(ctx, key, fn)
	if stderrors.Is(err, lock.ErrLockNotAcquired) {
		return errors.NewConflict("slot is currently being booked", err)
	}
	return err
}

func (s *Service) record(action string, err error) {
	if s.metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = resultLabel(err)
	}
	if errors.CodeOf(err) == errors.ErrConflict {
		s.metrics.SlotConflicts.Inc()
	}
	s.metrics.AppointmentTransitions.WithLabelValues(action, result).Inc()
}

func resultLabel(err error) string {
	switch errors.CodeOf(err) {
	case errors.ErrBadRequest:
		return "invalid"
	case errors.ErrNotFound:
		return "not_eligible"
	case errors.ErrConflict:
		return "conflict"
	case errors.ErrForbidden:
		return "forbidden"
	}
	return "error"
}

func checkCaller(caller *model.UserContext) error {
	if caller == nil {
		return errors.Unauthorized(nil)
	}
	if caller.Blocked {
		return errors.NewForbidden("account is blocked", nil)
	}
	return nil
}

func notEligible(err error) error {
	if errors.CodeOf(err) == errors.ErrNotFound {
		return errors.NewNotEligible("appointment", err)
	}
	return err
}

func prefixed(label, reason string) string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return label
	}
	return label + ": " + reason
}
