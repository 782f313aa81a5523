package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/healthcare-api/internal/core/domain"
	"github.com/carelink/healthcare-api/internal/core/policy"
	"github.com/carelink/healthcare-api/internal/core/ports"
)

// PatientService manages patient records scoped to their owner.
type PatientService struct {
	patients ports.PatientRepository
	mappings ports.MappingRepository
	tx       ports.TxManager
	log      zerolog.Logger
}

func NewPatientService(patients ports.PatientRepository, mappings ports.MappingRepository, tx ports.TxManager, log zerolog.Logger) *PatientService {
	return &PatientService{patients: patients, mappings: mappings, tx: tx, log: log}
}

func (s *PatientService) Create(ctx context.Context, caller domain.Identity, in ports.PatientInput) (*domain.Patient, error) {
	if !policy.CanCreatePatient(caller) {
		return nil, domain.ErrUnauthorized
	}

	now := time.Now().UTC()
	p := &domain.Patient{
		ID:        uuid.NewString(),
		OwnerID:   caller.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyPatientInput(p, in)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.patients.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	s.log.Info().Str("patient_id", p.ID).Str("owner_id", p.OwnerID).Msg("patient created")
	return p, nil
}

func (s *PatientService) List(ctx context.Context, caller domain.Identity, page ports.Page) (*ports.ListResult[*domain.Patient], error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	page = page.Normalize()
	items, total, err := s.patients.List(ctx, caller.UserID, page)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return ports.NewListResult(items, total, page), nil
}

func (s *PatientService) Get(ctx context.Context, caller domain.Identity, id string) (*domain.Patient, error) {
	return ownedPatient(ctx, s.patients, caller, id)
}

// Update replaces every writable field. Owner and creation time are kept.
func (s *PatientService) Update(ctx context.Context, caller domain.Identity, id string, in ports.PatientInput) (*domain.Patient, error) {
	p, err := ownedPatient(ctx, s.patients, caller, id)
	if err != nil {
		return nil, err
	}
	applyPatientInput(p, in)
	return s.save(ctx, p)
}

func (s *PatientService) Patch(ctx context.Context, caller domain.Identity, id string, in ports.PatientPatch) (*domain.Patient, error) {
	p, err := ownedPatient(ctx, s.patients, caller, id)
	if err != nil {
		return nil, err
	}
	setIf(&p.Name, in.Name)
	setIf(&p.Age, in.Age)
	setIf(&p.Gender, in.Gender)
	setIf(&p.Contact, in.Contact)
	setIf(&p.Address, in.Address)
	setIf(&p.MedicalHistory, in.MedicalHistory)
	return s.save(ctx, p)
}

func (s *PatientService) save(ctx context.Context, p *domain.Patient) (*domain.Patient, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.UpdatedAt = time.Now().UTC()
	if err := s.patients.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}
	s.log.Info().Str("patient_id", p.ID).Msg("patient updated")
	return p, nil
}

// Delete removes the patient and every mapping that references it in one
// transaction.
func (s *PatientService) Delete(ctx context.Context, caller domain.Identity, id string) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := ownedPatient(ctx, s.patients, caller, id)
		if err != nil {
			return err
		}
		removed, err := s.mappings.DeleteByPatient(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("delete patient mappings: %w", err)
		}
		if err := s.patients.Delete(ctx, p.ID, caller.UserID); err != nil {
			return fmt.Errorf("delete patient: %w", err)
		}
		s.log.Info().Str("patient_id", p.ID).Int64("mappings_removed", removed).Msg("patient deleted")
		return nil
	})
}

// ownedPatient is the single lookup path for owner-scoped patient access.
// The repository filters by owner before checking existence, so a patient
// that belongs to someone else is indistinguishable from a missing one.
func ownedPatient(ctx context.Context, repo ports.PatientRepository, caller domain.Identity, id string) (*domain.Patient, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthorized
	}
	if id == "" {
		return nil, domain.ErrPatientNotFound
	}
	p, err := repo.FindByID(ctx, id, caller.UserID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccessPatient(caller, p) {
		return nil, domain.ErrPatientNotFound
	}
	return p, nil
}

func applyPatientInput(p *domain.Patient, in ports.PatientInput) {
	p.Name = in.Name
	p.Age = in.Age
	p.Gender = in.Gender
	p.Contact = in.Contact
	p.Address = in.Address
	p.MedicalHistory = in.MedicalHistory
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
