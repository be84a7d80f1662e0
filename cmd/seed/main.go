package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/jwalitptl/appointment-api/internal/config"
	"github.com/jwalitptl/appointment-api/internal/model"
	"github.com/jwalitptl/appointment-api/internal/repository"
	"github.com/jwalitptl/appointment-api/internal/repository/postgres"
	"github.com/jwalitptl/appointment-api/pkg/auth"
	"github.com/jwalitptl/appointment-api/pkg/logger"
)

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
}

type seeder struct {
	users     repository.UserRepository
	providers repository.ProviderRepository
	patients  repository.PatientRepository
	records   repository.MedicalRecordRepository
	tokens    *auth.JWTService
}

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	clients := flag.Int("clients", 20, "number of clients to create")
	providers := flag.Int("providers", 5, "number of approved providers to create")
	flag.Parse()
	if *providers < 1 {
		log.Fatal().Msg("at least one provider is required")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	log.Logger = logger.New(logger.Config{Level: cfg.Logging.Level, Pretty: true})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	s := &seeder{
		users:     postgres.NewUserRepository(db),
		providers: postgres.NewProviderRepository(db),
		patients:  postgres.NewPatientRepository(db),
		records:   postgres.NewMedicalRecordRepository(db),
		tokens:    auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.ExpiryHours)*time.Hour),
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	admin, err := s.user(ctx, model.RoleAdmin, true)
	if err != nil {
		log.Fatal().Err(err).Msg("seed admin")
	}
	s.printToken(admin)

	var seeded []*model.User
	for i := 0; i < *providers; i++ {
		p, err := s.provider(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("seed provider")
		}
		seeded = append(seeded, p)
	}
	s.printToken(seeded[0])

	for i := 0; i < *clients; i++ {
		c, err := s.client(ctx, seeded)
		if err != nil {
			log.Fatal().Err(err).Msg("seed client")
		}
		if i == 0 {
			s.printToken(c)
		}
	}

	log.Info().Int("clients", *clients).Int("providers", *providers).Msg("seed complete")
}

func (s *seeder) user(ctx context.Context, role model.Role, approved bool) (*model.User, error) {
	u := &model.User{
		Name:       gofakeit.Name(),
		Email:      gofakeit.Email(),
		Phone:      gofakeit.Phone(),
		Address:    gofakeit.Address().Address,
		Role:       role,
		IsApproved: approved,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *seeder) provider(ctx context.Context) (*model.User, error) {
	u, err := s.user(ctx, model.RoleProvider, true)
	if err != nil {
		return nil, err
	}
	p := &model.Provider{
		Base:            model.Base{ID: u.ID},
		Specialization:  specialties[gofakeit.Number(0, len(specialties)-1)],
		LicenseNumber:   gofakeit.Numerify("LIC-######"),
		ConsultationFee: decimal.NewFromFloat(gofakeit.Price(40, 250)).Round(2),
		ClinicAddress:   gofakeit.Address().Address,
		Bio:             gofakeit.Sentence(12),
	}
	if err := s.providers.Create(ctx, p); err != nil {
		return nil, err
	}
	return u, nil
}

// client creates a client with one or two patients, each with a record
// written by a random provider.
func (s *seeder) client(ctx context.Context, providers []*model.User) (*model.User, error) {
	u, err := s.user(ctx, model.RoleClient, false)
	if err != nil {
		return nil, err
	}

	n := gofakeit.Number(1, 2)
	for i := 0; i < n; i++ {
		dob := model.DateOf(gofakeit.DateRange(time.Now().AddDate(-90, 0, 0), time.Now().AddDate(-1, 0, 0)))
		patient := &model.Patient{
			ClientID:    u.ID,
			Name:        gofakeit.Name(),
			DateOfBirth: &dob,
			Gender:      gofakeit.Gender(),
			Active:      true,
		}
		if err := s.patients.Create(ctx, patient); err != nil {
			return nil, err
		}

		record := &model.MedicalRecord{
			PatientID:    patient.ID,
			ClientID:     u.ID,
			ProviderID:   providers[gofakeit.Number(0, len(providers)-1)].ID,
			Diagnosis:    gofakeit.Sentence(4),
			Treatment:    gofakeit.Sentence(6),
			Prescription: gofakeit.Sentence(3),
		}
		if err := s.records.Create(ctx, record); err != nil {
			return nil, err
		}
	}
	return u, nil
}

func (s *seeder) printToken(u *model.User) {
	token, err := s.tokens.Issue(u.ID, string(u.Role))
	if err != nil {
		log.Error().Err(err).Msg("failed to issue token")
		return
	}
	fmt.Printf("%-8s %s %s\n", u.Role, u.ID, token)
}
