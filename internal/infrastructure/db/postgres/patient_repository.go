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

type PatientRepository struct {
	pool *pgxpool.Pool
}

func NewPatientRepository(pool *pgxpool.Pool) *PatientRepository {
	return &PatientRepository{pool: pool}
}

const patientCols = `id, owner_id, name, age, gender, contact, address, medical_history, created_at, updated_at`

func scanPatient(row pgx.Row) (*domain.Patient, error) {
	var p domain.Patient
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Age, &p.Gender, &p.Contact,
		&p.Address, &p.MedicalHistory, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PatientRepository) Create(ctx context.Context, p *domain.Patient) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO patients (`+patientCols+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.OwnerID, p.Name, p.Age, p.Gender, p.Contact, p.Address, p.MedicalHistory, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *PatientRepository) FindByID(ctx context.Context, id, ownerID string) (*domain.Patient, error) {
	if !validID(id) || !validID(ownerID) {
		return nil, domain.ErrPatientNotFound
	}
	p, err := scanPatient(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE id = $1 AND owner_id = $2`, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPatientNotFound
		}
		return nil, fmt.Errorf("find patient: %w", err)
	}
	return p, nil
}

func (r *PatientRepository) List(ctx context.Context, ownerID string, page ports.Page) ([]*domain.Patient, int64, error) {
	if !validID(ownerID) {
		return []*domain.Patient{}, 0, nil
	}
	q := conn(ctx, r.pool)

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM patients WHERE owner_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	rows, err := q.Query(ctx,
		`SELECT `+patientCols+` FROM patients WHERE owner_id = $1
		 ORDER BY created_at, id LIMIT $2 OFFSET $3`,
		ownerID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	out := []*domain.Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan patient: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate patients: %w", err)
	}
	return out, total, nil
}

// Update rewrites the mutable columns. owner_id and created_at are never set here.
func (r *PatientRepository) Update(ctx context.Context, p *domain.Patient) error {
	if !validID(p.ID) || !validID(p.OwnerID) {
		return domain.ErrPatientNotFound
	}
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE patients SET name = $3, age = $4, gender = $5, contact = $6,
		        address = $7, medical_history = $8, updated_at = $9
		 WHERE id = $1 AND owner_id = $2`,
		p.ID, p.OwnerID, p.Name, p.Age, p.Gender, p.Contact, p.Address, p.MedicalHistory, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepository) Delete(ctx context.Context, id, ownerID string) error {
	if !validID(id) || !validID(ownerID) {
		return domain.ErrPatientNotFound
	}
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM patients WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPatientNotFound
	}
	return nil
}
