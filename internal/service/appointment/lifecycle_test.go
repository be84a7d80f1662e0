package appointment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/appointment-api/internal/model"
)

var allStatuses = []model.AppointmentStatus{
	model.AppointmentStatusPending,
	model.AppointmentStatusApproved,
	model.AppointmentStatusConfirmed,
	model.AppointmentStatusCompleted,
	model.AppointmentStatusCancelled,
	model.AppointmentStatusRejected,
}

var allActions = []Action{ActionApprove, ActionReject, ActionConfirm, ActionComplete, ActionCancel, ActionReschedule}

func TestTransition_Table(t *testing.T) {
	tests := []struct {
		from   model.AppointmentStatus
		action Action
		party  Party
		to     model.AppointmentStatus
	}{
		{model.AppointmentStatusPending, ActionApprove, PartyProvider, model.AppointmentStatusApproved},
		{model.AppointmentStatusPending, ActionReject, PartyProvider, model.AppointmentStatusRejected},
		{model.AppointmentStatusApproved, ActionConfirm, PartyClient, model.AppointmentStatusConfirmed},
		{model.AppointmentStatusApproved, ActionComplete, PartyProvider, model.AppointmentStatusCompleted},
		{model.AppointmentStatusConfirmed, ActionComplete, PartyProvider, model.AppointmentStatusCompleted},
		{model.AppointmentStatusPending, ActionCancel, PartyClient, model.AppointmentStatusCancelled},
		{model.AppointmentStatusConfirmed, ActionCancel, PartyProvider, model.AppointmentStatusCancelled},
		{model.AppointmentStatusApproved, ActionReschedule, PartyClient, model.AppointmentStatusPending},
		{model.AppointmentStatusConfirmed, ActionReschedule, PartyProvider, model.AppointmentStatusPending},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.action), func(t *testing.T) {
			to, err := Transition(tt.from, tt.action, tt.party)
			assert.NoError(t, err)
			assert.Equal(t, tt.to, to)
		})
	}
}

func TestTransition_TerminalStatesHaveNoExits(t *testing.T) {
	for _, from := range allStatuses {
		if !from.IsTerminal() {
			continue
		}
		for _, action := range allActions {
			for _, party := range []Party{PartyClient, PartyProvider} {
				to, err := Transition(from, action, party)
				assert.Error(t, err, "%s --%s--> should fail", from, action)
				assert.Equal(t, from, to)
			}
		}
	}
}

func TestTransition_WrongParty(t *testing.T) {
	_, err := Transition(model.AppointmentStatusPending, ActionApprove, PartyClient)
	assert.ErrorIs(t, err, ErrWrongParty)

	_, err = Transition(model.AppointmentStatusApproved, ActionConfirm, PartyProvider)
	assert.ErrorIs(t, err, ErrWrongParty)

	_, err = Transition(model.AppointmentStatusPending, ActionCancel, PartyNone)
	assert.ErrorIs(t, err, ErrWrongParty)
}

func TestTransition_OnlyTableEdgesSucceed(t *testing.T) {
	allowed := 0
	for _, from := range allStatuses {
		for _, action := range allActions {
			for _, party := range []Party{PartyClient, PartyProvider} {
				if _, err := Transition(from, action, party); err == nil {
					allowed++
				}
			}
		}
	}
	// approve 1, reject 1, confirm 1, complete 2, cancel 3x2, reschedule 3x2
	assert.Equal(t, 17, allowed)
}

func TestPartyOf(t *testing.T) {
	client, provider := uuid.New(), uuid.New()
	appt := &model.Appointment{ClientID: client, ProviderID: provider}

	assert.Equal(t, PartyClient, PartyOf(appt, &model.UserContext{UserID: client, Role: model.RoleClient}))
	assert.Equal(t, PartyProvider, PartyOf(appt, &model.UserContext{UserID: provider, Role: model.RoleProvider}))
	assert.Equal(t, PartyNone, PartyOf(appt, &model.UserContext{UserID: client, Role: model.RoleProvider}))
	assert.Equal(t, PartyNone, PartyOf(appt, &model.UserContext{UserID: uuid.New(), Role: model.RoleAdmin}))
	assert.Equal(t, PartyNone, PartyOf(appt, nil))
}
