package ports

import (
	"context"

	"github.com/carelink/healthcare-api/internal/core/domain"
)

// PatientInput carries every writable patient field. Ownership is never part
// of the input; it comes from the caller identity.
type PatientInput struct {
	Name           string
	Age            int
	Gender         string
	Contact        string
	Address        string
	MedicalHistory string
}

// PatientPatch carries the fields of a partial update; nil means unchanged.
type PatientPatch struct {
	Name           *string
	Age            *int
	Gender         *string
	Contact        *string
	Address        *string
	MedicalHistory *string
}

type PatientService interface {
	Create(ctx context.Context, caller domain.Identity, in PatientInput) (*domain.Patient, error)
	List(ctx context.Context, caller domain.Identity, page Page) (*ListResult[*domain.Patient], error)
	Get(ctx context.Context, caller domain.Identity, id string) (*domain.Patient, error)
	Update(ctx context.Context, caller domain.Identity, id string, in PatientInput) (*domain.Patient, error)
	Patch(ctx context.Context, caller domain.Identity, id string, in PatientPatch) (*domain.Patient, error)
	Delete(ctx context.Context, caller domain.Identity, id string) error
}

// DoctorInput carries every writable doctor field.
type DoctorInput struct {
	Name           string
	Specialization string
	Contact        string
	Email          string
}

// DoctorPatch carries the fields of a partial update; nil means unchanged.
type DoctorPatch struct {
	Name           *string
	Specialization *string
	Contact        *string
	Email          *string
}

type DoctorService interface {
	Create(ctx context.Context, caller domain.Identity, in DoctorInput) (*domain.Doctor, error)
	List(ctx context.Context, caller domain.Identity, page Page) (*ListResult[*domain.Doctor], error)
	Get(ctx context.Context, caller domain.Identity, id string) (*domain.Doctor, error)
	Update(ctx context.Context, caller domain.Identity, id string, in DoctorInput) (*domain.Doctor, error)
	Patch(ctx context.Context, caller domain.Identity, id string, in DoctorPatch) (*domain.Doctor, error)
	Delete(ctx context.Context, caller domain.Identity, id string) error
}

// MappingInput references the patient and doctor to link.
type MappingInput struct {
	PatientID string
	DoctorID  string
}

type MappingService interface {
	Create(ctx context.Context, caller domain.Identity, in MappingInput) (*domain.Mapping, error)
	// List returns the caller's mappings. A patientID the caller does not
	// own yields an empty page, not an error.
	List(ctx context.Context, caller domain.Identity, patientID string, page Page) (*ListResult[*domain.Mapping], error)
	Get(ctx context.Context, caller domain.Identity, id string) (*domain.Mapping, error)
	Delete(ctx context.Context, caller domain.Identity, id string) error
}
