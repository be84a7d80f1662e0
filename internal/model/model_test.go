package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSONRoundTrip(t *testing.T) {
	var got struct {
		Date Date `json:"date"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-06-01"}`), &got))
	assert.Equal(t, "2024-06-01", got.Date.String())

	raw, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-06-01"}`, string(raw))

	assert.Error(t, json.Unmarshal([]byte(`{"date":"06/01/2024"}`), &got))
}

func TestDate_Scan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-06-01", d.String())

	require.NoError(t, d.Scan([]byte("2024-07-02T00:00:00Z")))
	assert.Equal(t, "2024-07-02", d.String())

	assert.Error(t, d.Scan(42))
}

func TestAppointmentStatus(t *testing.T) {
	for _, s := range []AppointmentStatus{AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusRejected} {
		assert.True(t, s.IsTerminal(), s)
		assert.True(t, s.Valid(), s)
	}
	for _, s := range []AppointmentStatus{AppointmentStatusPending, AppointmentStatusApproved, AppointmentStatusConfirmed} {
		assert.False(t, s.IsTerminal(), s)
		assert.True(t, s.HoldsSlot(), s)
	}
	assert.True(t, AppointmentStatusCompleted.HoldsSlot())
	assert.False(t, AppointmentStatusCancelled.HoldsSlot())
	assert.False(t, AppointmentStatus("archived").Valid())
	assert.False(t, AppointmentStatus("").Valid())
	assert.False(t, AppointmentStatusRejected.HoldsSlot())
}

func TestPriorityOf(t *testing.T) {
	assert.Equal(t, PriorityHigh, PriorityOf(EventAppointmentCancelled))
	assert.Equal(t, PriorityLow, PriorityOf(EventAppointmentCompleted))
	assert.Equal(t, PriorityUrgent, PriorityOf(EventSystemAlert))
	assert.Equal(t, PriorityMedium, PriorityOf("something_else"))
	assert.Len(t, eventPriorities, 20)
}

func TestToJSONMap(t *testing.T) {
	u := &User{Name: "Ana", Email: "ana@example.com", PasswordHash: "x", Role: RoleClient}
	m, err := ToJSONMap(u)
	require.NoError(t, err)
	assert.Equal(t, "Ana", m["name"])
	assert.Equal(t, "x", m["password_hash"])
	assert.Equal(t, "client", m["role"])
}

func TestPagination_Normalize(t *testing.T) {
	p := Pagination{Page: 0, PageSize: 500}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PageSize)
	assert.Equal(t, 20, Pagination{Page: 2, PageSize: 20}.Offset())
}
