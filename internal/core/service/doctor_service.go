package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelink/healthcare-api/internal/core/domain"
	"github.com/carelink/healthcare-api/internal/core/policy"
	"github.com/carelink/healthcare-api/internal/core/ports"
)

// DoctorService manages the doctor directory. Any authenticated caller may
// create, change or remove entries.
type DoctorService struct {
	doctors  ports.DoctorRepository
	mappings ports.MappingRepository
	tx       ports.TxManager
	log      zerolog.Logger
}

func NewDoctorService(doctors ports.DoctorRepository, mappings ports.MappingRepository, tx ports.TxManager, log zerolog.Logger) *DoctorService {
	return &DoctorService{doctors: doctors, mappings: mappings, tx: tx, log: log}
}

func (s *DoctorService) Create(ctx context.Context, caller domain.Identity, in ports.DoctorInput) (*domain.Doctor, error) {
	if !policy.CanAccessDoctor(caller) {
		return nil, domain.ErrUnauthorized
	}

	now := time.Now().UTC()
	d := &domain.Doctor{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	applyDoctorInput(d, in)
	if err := d.Validate(); err != nil {
		return nil, err
	}

	if err := s.doctors.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("create doctor: %w", err)
	}
	s.log.Info().Str("doctor_id", d.ID).Str("created_by", caller.UserID).Msg("doctor created")
	return d, nil
}

func (s *DoctorService) List(ctx context.Context, caller domain.Identity, page ports.Page) (*ports.ListResult[*domain.Doctor], error) {
	if !policy.CanAccessDoctor(caller) {
		return nil, domain.ErrUnauthorized
	}
	page = page.Normalize()
	items, total, err := s.doctors.List(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return ports.NewListResult(items, total, page), nil
}

func (s *DoctorService) Get(ctx context.Context, caller domain.Identity, id string) (*domain.Doctor, error) {
	if !policy.CanAccessDoctor(caller) {
		return nil, domain.ErrUnauthorized
	}
	if id == "" {
		return nil, domain.ErrDoctorNotFound
	}
	return s.doctors.FindByID(ctx, id)
}

func (s *DoctorService) Update(ctx context.Context, caller domain.Identity, id string, in ports.DoctorInput) (*domain.Doctor, error) {
	d, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	applyDoctorInput(d, in)
	return s.save(ctx, d)
}

func (s *DoctorService) Patch(ctx context.Context, caller domain.Identity, id string, in ports.DoctorPatch) (*domain.Doctor, error) {
	d, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	setIf(&d.Name, in.Name)
	setIf(&d.Specialization, in.Specialization)
	setIf(&d.Contact, in.Contact)
	if in.Email != nil {
		d.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	return s.save(ctx, d)
}

func (s *DoctorService) save(ctx context.Context, d *domain.Doctor) (*domain.Doctor, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	d.UpdatedAt = time.Now().UTC()
	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, fmt.Errorf("update doctor: %w", err)
	}
	s.log.Info().Str("doctor_id", d.ID).Msg("doctor updated")
	return d, nil
}

// Delete removes the doctor and every mapping that references it in one
// transaction.
func (s *DoctorService) Delete(ctx context.Context, caller domain.Identity, id string) error {
	if !policy.CanAccessDoctor(caller) {
		return domain.ErrUnauthorized
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		d, err := s.Get(ctx, caller, id)
		if err != nil {
			return err
		}
		removed, err := s.mappings.DeleteByDoctor(ctx, d.ID)
		if err != nil {
			return fmt.Errorf("delete doctor mappings: %w", err)
		}
		if err := s.doctors.Delete(ctx, d.ID); err != nil {
			return fmt.Errorf("delete doctor: %w", err)
		}
		s.log.Info().Str("doctor_id", d.ID).Int64("mappings_removed", removed).Msg("doctor deleted")
		return nil
	})
}

func applyDoctorInput(d *domain.Doctor, in ports.DoctorInput) {
	d.Name = in.Name
	d.Specialization = in.Specialization
	d.Contact = in.Contact
	d.Email = strings.ToLower(strings.TrimSpace(in.Email))
}
