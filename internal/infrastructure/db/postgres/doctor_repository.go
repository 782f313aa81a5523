package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/healthcare-api/internal/core/domain"
	"github.com/carelink/healthcare-api/internal/core/ports"
)

type DoctorRepository struct {
	pool *pgxpool.Pool
}

func NewDoctorRepository(pool *pgxpool.Pool) *DoctorRepository {
	return &DoctorRepository{pool: pool}
}

const doctorCols = `id, name, specialization, contact, email, created_at, updated_at`

func scanDoctor(row pgx.Row) (*domain.Doctor, error) {
	var d domain.Doctor
	if err := row.Scan(&d.ID, &d.Name, &d.Specialization, &d.Contact, &d.Email, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DoctorRepository) Create(ctx context.Context, d *domain.Doctor) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO doctors (`+doctorCols+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.Name, d.Specialization, d.Contact, d.Email, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert doctor: %w", err)
	}
	return nil
}

func (r *DoctorRepository) FindByID(ctx context.Context, id string) (*domain.Doctor, error) {
	if !validID(id) {
		return nil, domain.ErrDoctorNotFound
	}
	d, err := scanDoctor(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDoctorNotFound
		}
		return nil, fmt.Errorf("find doctor: %w", err)
	}
	return d, nil
}

func (r *DoctorRepository) List(ctx context.Context, page ports.Page) ([]*domain.Doctor, int64, error) {
	q := conn(ctx, r.pool)

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM doctors`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count doctors: %w", err)
	}

	rows, err := q.Query(ctx,
		`SELECT `+doctorCols+` FROM doctors ORDER BY created_at, id LIMIT $1 OFFSET $2`,
		page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list doctors: %w", err)
	}
	defer rows.Close()

	out := []*domain.Doctor{}
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan doctor: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate doctors: %w", err)
	}
	return out, total, nil
}

func (r *DoctorRepository) Update(ctx context.Context, d *domain.Doctor) error {
	if !validID(d.ID) {
		return domain.ErrDoctorNotFound
	}
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE doctors SET name = $2, specialization = $3, contact = $4, email = $5, updated_at = $6
		 WHERE id = $1`,
		d.ID, d.Name, d.Specialization, d.Contact, d.Email, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDoctorNotFound
	}
	return nil
}

func (r *DoctorRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrDoctorNotFound
	}
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete doctor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDoctorNotFound
	}
	return nil
}
