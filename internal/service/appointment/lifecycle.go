package appointment

import (
	"errors"

	"github.com/jwalitptl/appointment-api/internal/model"
)

type Action string

const (
	ActionApprove    Action = "approve"
	ActionReject     Action = "reject"
	ActionConfirm    Action = "confirm"
	ActionComplete   Action = "complete"
	ActionCancel     Action = "cancel"
	ActionReschedule Action = "reschedule"
)

// Party is the caller's relationship to one appointment.
type Party string

const (
	PartyNone     Party = ""
	PartyClient   Party = "client"
	PartyProvider Party = "provider"
)

var (
	ErrInvalidTransition = errors.New("transition not allowed from current status")
	ErrWrongParty        = errors.New("caller may not perform this action")
)

type rule struct {
	from    []model.AppointmentStatus
	parties []Party
	to      model.AppointmentStatus
}

var transitions = map[Action]rule{
	ActionApprove: {
		from:    []model.AppointmentStatus{model.AppointmentStatusPending},
		parties: []Party{PartyProvider},
		to:      model.AppointmentStatusApproved,
	},
	ActionReject: {
		from:    []model.AppointmentStatus{model.AppointmentStatusPending},
		parties: []Party{PartyProvider},
		to:      model.AppointmentStatusRejected,
	},
	ActionConfirm: {
		from:    []model.AppointmentStatus{model.AppointmentStatusApproved},
		parties: []Party{PartyClient},
		to:      model.AppointmentStatusConfirmed,
	},
	ActionComplete: {
		from:    []model.AppointmentStatus{model.AppointmentStatusApproved, model.AppointmentStatusConfirmed},
		parties: []Party{PartyProvider},
		to:      model.AppointmentStatusCompleted,
	},
	ActionCancel: {
		from:    []model.AppointmentStatus{model.AppointmentStatusPending, model.AppointmentStatusApproved, model.AppointmentStatusConfirmed},
		parties: []Party{PartyClient, PartyProvider},
		to:      model.AppointmentStatusCancelled,
	},
	ActionReschedule: {
		from:    []model.AppointmentStatus{model.AppointmentStatusPending, model.AppointmentStatusApproved, model.AppointmentStatusConfirmed},
		parties: []Party{PartyClient, PartyProvider},
		to:      model.AppointmentStatusPending,
	},
}

// Transition returns the status reached by applying action from the given status.
// It has no side effects.
func Transition(from model.AppointmentStatus, action Action, party Party) (model.AppointmentStatus, error) {
	r, ok := transitions[action]
	if !ok {
		return from, ErrInvalidTransition
	}
	if !containsParty(r.parties, party) {
		return from, ErrWrongParty
	}
	if from.IsTerminal() || !containsStatus(r.from, from) {
		return from, ErrInvalidTransition
	}
	return r.to, nil
}

// PartyOf reports how caller relates to the appointment.
func PartyOf(a *model.Appointment, caller *model.UserContext) Party {
	switch {
	case caller == nil:
		return PartyNone
	case caller.Role == model.RoleClient && a.ClientID == caller.UserID:
		return PartyClient
	case caller.Role == model.RoleProvider && a.ProviderID == caller.UserID:
		return PartyProvider
	}
	return PartyNone
}

func containsParty(list []Party, p Party) bool {
	if p == PartyNone {
		return false
	}
	for _, x := range list {
		if x == p {
			return true
		}
	}
	return false
}

func containsStatus(list []model.AppointmentStatus, s model.AppointmentStatus) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
