// Package mocks provides testify mocks of the repository interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/appointment-api/internal/model"
	"github.com/jwalitptl/appointment-api/internal/repository"
)

var (
	_ repository.AppointmentRepository   = (*AppointmentRepository)(nil)
	_ repository.UserRepository          = (*UserRepository)(nil)
	_ repository.ProviderRepository      = (*ProviderRepository)(nil)
	_ repository.PatientRepository       = (*PatientRepository)(nil)
	_ repository.MedicalRecordRepository = (*MedicalRecordRepository)(nil)
	_ repository.NotificationRepository  = (*NotificationRepository)(nil)
)

type AppointmentRepository struct {
	mock.Mock
}

func (m *AppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	return m.Called(ctx, appointment).Error(0)
}

func (m *AppointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

func (m *AppointmentRepository) Update(ctx context.Context, appointment *model.Appointment, from model.AppointmentStatus) error {
	return m.Called(ctx, appointment, from).Error(0)
}

func (m *AppointmentRepository) SetRating(ctx context.Context, id, clientID uuid.UUID, rating int, review string) error {
	return m.Called(ctx, id, clientID, rating, review).Error(0)
}

func (m *AppointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, int, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*model.Appointment), args.Int(1), args.Error(2)
}

func (m *AppointmentRepository) FindActiveBySlot(ctx context.Context, providerID uuid.UUID, date model.Date, slot string, excludeID uuid.UUID) (*model.Appointment, error) {
	args := m.Called(ctx, providerID, date, slot, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Appointment), args.Error(1)
}

type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *UserRepository) Update(ctx context.Context, id uuid.UUID, fields model.JSONMap) (*model.User, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *UserRepository) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error {
	return m.Called(ctx, id, blocked).Error(0)
}

func (m *UserRepository) SetApproved(ctx context.Context, id uuid.UUID, approved bool) error {
	return m.Called(ctx, id, approved).Error(0)
}

func (m *UserRepository) ListIDsByRole(ctx context.Context, role model.Role) ([]uuid.UUID, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type ProviderRepository struct {
	mock.Mock
}

func (m *ProviderRepository) Create(ctx context.Context, provider *model.Provider) error {
	return m.Called(ctx, provider).Error(0)
}

func (m *ProviderRepository) Get(ctx context.Context, id uuid.UUID) (*model.Provider, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Provider), args.Error(1)
}

func (m *ProviderRepository) Update(ctx context.Context, id uuid.UUID, fields model.JSONMap) (*model.Provider, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Provider), args.Error(1)
}

type PatientRepository struct {
	mock.Mock
}

func (m *PatientRepository) Create(ctx context.Context, patient *model.Patient) error {
	return m.Called(ctx, patient).Error(0)
}

func (m *PatientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Patient), args.Error(1)
}

type MedicalRecordRepository struct {
	mock.Mock
}

func (m *MedicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MedicalRecordRepository) Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MedicalRecord), args.Error(1)
}

func (m *MedicalRecordRepository) Update(ctx context.Context, id uuid.UUID, fields model.JSONMap) (*model.MedicalRecord, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MedicalRecord), args.Error(1)
}

func (m *MedicalRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type NotificationRepository struct {
	mock.Mock
}

func (m *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *NotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, page model.Pagination) ([]*model.Notification, int, error) {
	args := m.Called(ctx, userID, page)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*model.Notification), args.Int(1), args.Error(2)
}

func (m *NotificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *NotificationRepository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}
