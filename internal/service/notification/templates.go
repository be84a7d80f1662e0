package notification

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/google/uuid"

	"github.com/jwalitptl/appointment-api/internal/model"
)

type mailTemplate struct {
	subject    string
	body       *template.Template
	recipients func(evt model.NotificationEvent) []uuid.UUID
}

// mailData is what email bodies can reference.
type mailData struct {
	Name   string
	Date   string
	Time   string
	Reason string
	Notes  string
	Fee    string
}

func toClient(evt model.NotificationEvent) []uuid.UUID   { return ids(evt.UserID) }
func toProvider(evt model.NotificationEvent) []uuid.UUID { return ids(evt.ProviderID) }
func toParties(evt model.NotificationEvent) []uuid.UUID  { return ids(evt.UserID, evt.ProviderID) }

func ids(candidates ...uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(candidates))
	for _, id := range candidates {
		if id == uuid.Nil {
			continue
		}
		dup := false
		for _, seen := range out {
			dup = dup || seen == id
		}
		if !dup {
			out = append(out, id)
		}
	}
	return out
}

var mailTemplates = map[model.EventType]mailTemplate{
	model.EventAppointmentCreated: {
		subject:    "New appointment request",
		recipients: toProvider,
		body: template.Must(template.New("created").Parse(
			`Hello {{.Name}},

You have a new appointment request for {{.Date}} at {{.Time}}.
Reason: {{.Reason}}

Please approve or reject it from your dashboard.
`)),
	},
	model.EventAppointmentApproved: {
		subject:    "Your appointment has been approved",
		recipients: toClient,
		body: template.Must(template.New("approved").Parse(
			`Hello {{.Name}},

Your appointment on {{.Date}} at {{.Time}} has been approved.
{{if .Fee}}Consultation fee: {{.Fee}}
{{end}}{{if .Notes}}Notes from your provider: {{.Notes}}
{{end}}
Please confirm your attendance.
`)),
	},
	model.EventAppointmentCancelled: {
		subject:    "Appointment cancelled",
		recipients: toParties,
		body: template.Must(template.New("cancelled").Parse(
			`Hello {{.Name}},

The appointment on {{.Date}} at {{.Time}} has been cancelled.
{{if .Notes}}{{.Notes}}
{{end}}`)),
	},
	model.EventAppointmentCompleted: {
		subject:    "Appointment completed",
		recipients: toClient,
		body: template.Must(template.New("completed").Parse(
			`Hello {{.Name}},

Your appointment on {{.Date}} at {{.Time}} is complete. You can now rate your visit.
`)),
	},
	model.EventProviderApproved: {
		subject:    "Your provider account has been approved",
		recipients: func(evt model.NotificationEvent) []uuid.UUID { return ids(evt.UserID) },
		body: template.Must(template.New("provider_approved").Parse(
			`Hello {{.Name}},

Your provider account has been approved. Clients can now book appointments with you.
`)),
	},
}

func render(t *template.Template, data mailData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func dataFor(evt model.NotificationEvent, name string) mailData {
	d := mailData{Name: name}
	if appt, ok := evt.Appointment(); ok {
		d.Date = appt.Date.String()
		d.Time = appt.Time
		d.Reason = appt.Reason
		d.Notes = appt.Notes
		if appt.Fee != nil {
			d.Fee = appt.Fee.StringFixed(2)
		}
	}
	return d
}

// recordText builds the in-app title and message for one recipient role.
func recordText(evt model.NotificationEvent, role model.Role) (string, string) {
	when := ""
	if appt, ok := evt.Appointment(); ok {
		when = fmt.Sprintf("%s at %s", appt.Date, appt.Time)
	}

	switch evt.Type {
	case model.EventAppointmentCreated:
		if role == model.RoleProvider {
			return "New appointment request", "A client requested an appointment on " + when + "."
		}
		return "Appointment requested", "Your appointment request for " + when + " was sent."
	case model.EventAppointmentApproved:
		if role == model.RoleProvider {
			return "Appointment approved", "You approved the appointment on " + when + "."
		}
		return "Appointment approved", "Your appointment on " + when + " was approved. Please confirm."
	case model.EventAppointmentRejected:
		return "Appointment rejected", "Your appointment request for " + when + " was rejected."
	case model.EventAppointmentConfirmed:
		return "Appointment confirmed", "The client confirmed the appointment on " + when + "."
	case model.EventAppointmentCancelled:
		return "Appointment cancelled", "The appointment on " + when + " was cancelled."
	case model.EventAppointmentCompleted:
		return "Appointment completed", "Your appointment on " + when + " is complete. You can now rate it."
	case model.EventAppointmentRescheduled:
		return "Appointment rescheduled", "The appointment was moved to " + when + " and awaits approval."
	case model.EventAppointmentRated:
		return "New rating", "The client rated the appointment on " + when + "."
	case model.EventAppointmentReminder:
		return "Appointment reminder", "You have an appointment on " + when + "."
	case model.EventUserBlocked:
		return "Account blocked", "Your account has been blocked. Contact support for details."
	case model.EventUserUnblocked:
		return "Account restored", "Your account has been unblocked."
	case model.EventProviderApproved:
		return "Provider account approved", "Your provider account is approved and open for bookings."
	case model.EventProviderRejected:
		return "Provider application rejected", "Your provider application was not approved."
	case model.EventSystemAlert:
		if alert, ok := evt.Payload.(*model.AlertPayload); ok {
			return alert.Title, alert.Message
		}
		return "System alert", "A system alert was raised."
	}
	return string(evt.Type), ""
}
