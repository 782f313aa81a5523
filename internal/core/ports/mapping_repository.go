package ports

import (
	"context"

	"github.com/carelink/healthcare-api/internal/core/domain"
)

// MappingFilter scopes a mapping listing. OwnerID is always set by the
// service; PatientID is optional.
type MappingFilter struct {
	OwnerID   string
	PatientID string
	Page      Page
}

// MappingRepository defines persistence operations for patient-doctor mappings.
type MappingRepository interface {
	// Create returns domain.ErrDuplicateMapping when the pair already exists.
	Create(ctx context.Context, m *domain.Mapping) error
	Exists(ctx context.Context, patientID, doctorID string) (bool, error)
	FindByID(ctx context.Context, id, ownerID string) (*domain.Mapping, error)
	List(ctx context.Context, filter MappingFilter) ([]*domain.Mapping, int64, error)
	Delete(ctx context.Context, id, ownerID string) error
	DeleteByPatient(ctx context.Context, patientID string) (int64, error)
	DeleteByDoctor(ctx context.Context, doctorID string) (int64, error)
}
