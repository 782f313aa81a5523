package ports

import (
	"context"

	"github.com/carelink/healthcare-api/internal/core/domain"
)

// DoctorRepository defines persistence operations for the doctor directory.
type DoctorRepository interface {
	Create(ctx context.Context, d *domain.Doctor) error
	FindByID(ctx context.Context, id string) (*domain.Doctor, error)
	List(ctx context.Context, page Page) ([]*domain.Doctor, int64, error)
	Update(ctx context.Context, d *domain.Doctor) error
	Delete(ctx context.Context, id string) error
}
