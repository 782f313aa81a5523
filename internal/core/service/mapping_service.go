package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/healthcare-api/internal/core/domain"
	"github.com/carelink/healthcare-api/internal/core/policy"
	"github.com/carelink/healthcare-api/internal/core/ports"
)

// MappingService links patients to the doctors treating them. Mappings
// inherit visibility from the referenced patient's owner.
type MappingService struct {
	mappings ports.MappingRepository
	patients ports.PatientRepository
	doctors  ports.DoctorRepository
	tx       ports.TxManager
	log      zerolog.Logger
}

func NewMappingService(
	mappings ports.MappingRepository,
	patients ports.PatientRepository,
	doctors ports.DoctorRepository,
	tx ports.TxManager,
	log zerolog.Logger,
) *MappingService {
	return &MappingService{mappings: mappings, patients: patients, doctors: doctors, tx: tx, log: log}
}

// Create validates both references and inserts the mapping in one
// transaction. A patient outside the caller's scope is reported exactly like
// a missing one.
func (s *MappingService) Create(ctx context.Context, caller domain.Identity, in ports.MappingInput) (*domain.Mapping, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthorized
	}

	var created *domain.Mapping
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		patient, err := ownedPatient(ctx, s.patients, caller, in.PatientID)
		if err != nil {
			if errors.Is(err, domain.ErrPatientNotFound) {
				return domain.NewValidationError("patient does not exist")
			}
			return err
		}
		if !policy.CanAccessMapping(caller, patient) {
			return domain.NewValidationError("patient does not exist")
		}

		if in.DoctorID == "" {
			return domain.NewValidationError("doctor does not exist")
		}
		doctor, err := s.doctors.FindByID(ctx, in.DoctorID)
		if err != nil {
			if errors.Is(err, domain.ErrDoctorNotFound) {
				return domain.NewValidationError("doctor does not exist")
			}
			return err
		}

		exists, err := s.mappings.Exists(ctx, patient.ID, doctor.ID)
		if err != nil {
			return fmt.Errorf("check mapping: %w", err)
		}
		if exists {
			return domain.ErrDuplicateMapping
		}

		m := &domain.Mapping{
			ID:         uuid.NewString(),
			PatientID:  patient.ID,
			DoctorID:   doctor.ID,
			OwnerID:    patient.OwnerID,
			AssignedAt: time.Now().UTC(),
		}
		if err := s.mappings.Create(ctx, m); err != nil {
			if errors.Is(err, domain.ErrDuplicateMapping) || errors.Is(err, domain.ErrValidation) {
				return err
			}
			return fmt.Errorf("create mapping: %w", err)
		}
		created = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("mapping_id", created.ID).
		Str("patient_id", created.PatientID).
		Str("doctor_id", created.DoctorID).
		Msg("mapping created")
	return created, nil
}

// List returns the mappings of every patient the caller owns, optionally
// narrowed to one patient. The owner filter is applied in the query, so a
// foreign or unknown patientID simply matches nothing.
func (s *MappingService) List(ctx context.Context, caller domain.Identity, patientID string, page ports.Page) (*ports.ListResult[*domain.Mapping], error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	page = page.Normalize()
	items, total, err := s.mappings.List(ctx, ports.MappingFilter{
		OwnerID:   caller.UserID,
		PatientID: patientID,
		Page:      page,
	})
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	visible := items[:0]
	for _, m := range items {
		if policy.CanSeeMapping(caller, m) {
			visible = append(visible, m)
		}
	}
	return ports.NewListResult(visible, total, page), nil
}

func (s *MappingService) Get(ctx context.Context, caller domain.Identity, id string) (*domain.Mapping, error) {
	return ownedMapping(ctx, s.mappings, caller, id)
}

func (s *MappingService) Delete(ctx context.Context, caller domain.Identity, id string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		m, err := ownedMapping(ctx, s.mappings, caller, id)
		if err != nil {
			return err
		}
		if err := s.mappings.Delete(ctx, m.ID, caller.UserID); err != nil {
			return fmt.Errorf("delete mapping: %w", err)
		}
		s.log.Info().Str("mapping_id", m.ID).Msg("mapping deleted")
		return nil
	})
}

func ownedMapping(ctx context.Context, repo ports.MappingRepository, caller domain.Identity, id string) (*domain.Mapping, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	if id == "" {
		return nil, domain.ErrMappingNotFound
	}
	m, err := repo.FindByID(ctx, id, caller.UserID)
	if err != nil {
		return nil, err
	}
	if !policy.CanSeeMapping(caller, m) {
		return nil, domain.ErrMappingNotFound
	}
	return m, nil
}
