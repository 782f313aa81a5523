package ports

import (
	"context"

	"github.com/carelink/healthcare-api/internal/core/domain"
)

// PatientRepository defines persistence operations for patients. Every read
// and write is filtered by ownerID inside the query, so a patient owned by
// someone else is reported as domain.ErrPatientNotFound.
type PatientRepository interface {
	Create(ctx context.Context, p *domain.Patient) error
	FindByID(ctx context.Context, id, ownerID string) (*domain.Patient, error)
	List(ctx context.Context, ownerID string, page Page) ([]*domain.Patient, int64, error)
	Update(ctx context.Context, p *domain.Patient) error
	Delete(ctx context.Context, id, ownerID string) error
}
