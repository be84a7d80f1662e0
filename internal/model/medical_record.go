package model

import (
	"github.com/google/uuid"
)

type MedicalRecord struct {
	Base
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	ClientID      uuid.UUID  `db:"client_id" json:"client_id"`
	ProviderID    uuid.UUID  `db:"provider_id" json:"provider_id"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	Diagnosis     string     `db:"diagnosis" json:"diagnosis"`
	Treatment     string     `db:"treatment" json:"treatment"`
	Prescription  string     `db:"prescription" json:"prescription,omitempty"`
	Notes         string     `db:"notes" json:"notes,omitempty"`
}
