package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleProvider, RoleAdmin:
		return true
	}
	return false
}

// User represents a system user
type User struct {
	Base
	Name         string `json:"name" db:"name"`
	Email        string `json:"email" db:"email"`
	Phone        string `json:"phone,omitempty" db:"phone"`
	Address      string `json:"address,omitempty" db:"address"`
	Role         Role   `json:"role" db:"role"`
	PasswordHash string `json:"password_hash,omitempty" db:"password_hash"`
	RefreshToken string `json:"refresh_token,omitempty" db:"refresh_token"`
	IsBlocked    bool   `json:"is_blocked" db:"is_blocked"`
	IsApproved   bool   `json:"is_approved" db:"is_approved"`
}

// Provider is the practitioner profile. Its ID is the owning user's ID.
type Provider struct {
	Base
	Name            string          `json:"name" db:"name"`
	Email           string          `json:"email" db:"email"`
	Phone           string          `json:"phone,omitempty" db:"phone"`
	Specialization  string          `json:"specialization" db:"specialization"`
	LicenseNumber   string          `json:"license_number,omitempty" db:"license_number"`
	ConsultationFee decimal.Decimal `json:"consultation_fee" db:"consultation_fee"`
	ClinicAddress   string          `json:"clinic_address,omitempty" db:"clinic_address"`
	Bio             string          `json:"bio,omitempty" db:"bio"`
	IsApproved      bool            `json:"is_approved" db:"is_approved"`
	IsBlocked       bool            `json:"is_blocked" db:"is_blocked"`
}

// Bookable reports whether clients may book this provider.
func (p *Provider) Bookable() bool {
	return p.IsApproved && !p.IsBlocked && p.DeletedAt == nil
}

type Patient struct {
	Base
	ClientID    uuid.UUID `db:"client_id" json:"client_id"`
	Name        string    `db:"name" json:"name"`
	DateOfBirth *Date     `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender      string    `db:"gender" json:"gender,omitempty"`
	Active      bool      `db:"active" json:"active"`
}
