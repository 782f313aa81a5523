package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/healthcare-api/internal/core/domain"
	"github.com/carelink/healthcare-api/internal/core/ports"
)

// MappingRepository derives a mapping's owner by joining its patient.
type MappingRepository struct {
	pool *pgxpool.Pool
}

func NewMappingRepository(pool *pgxpool.Pool) *MappingRepository {
	return &MappingRepository{pool: pool}
}

const mappingSelect = `SELECT m.id, m.patient_id, m.doctor_id, p.owner_id, m.assigned_at
FROM patient_doctor_mappings m
JOIN patients p ON p.id = m.patient_id`

func scanMapping(row pgx.Row) (*domain.Mapping, error) {
	var m domain.Mapping
	if err := row.Scan(&m.ID, &m.PatientID, &m.DoctorID, &m.OwnerID, &m.AssignedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MappingRepository) Create(ctx context.Context, m *domain.Mapping) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO patient_doctor_mappings (id, patient_id, doctor_id, assigned_at) VALUES ($1, $2, $3, $4)`,
		m.ID, m.PatientID, m.DoctorID, m.AssignedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateMapping
		}
		if ref := missingReference(err); ref != nil {
			return ref
		}
		return fmt.Errorf("insert mapping: %w", err)
	}
	return nil
}

// missingReference translates a foreign key violation on insert, raised when
// the patient or doctor was deleted after it was checked.
func missingReference(err error) error {
	constraint, ok := foreignKeyConstraint(err)
	if !ok {
		return nil
	}
	if strings.Contains(constraint, "doctor_id") {
		return domain.NewValidationError("doctor does not exist")
	}
	return domain.NewValidationError("patient does not exist")
}

func (r *MappingRepository) Exists(ctx context.Context, patientID, doctorID string) (bool, error) {
	if !validID(patientID) || !validID(doctorID) {
		return false, nil
	}
	var exists bool
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patient_doctor_mappings WHERE patient_id = $1 AND doctor_id = $2)`,
		patientID, doctorID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check mapping: %w", err)
	}
	return exists, nil
}

func (r *MappingRepository) FindByID(ctx context.Context, id, ownerID string) (*domain.Mapping, error) {
	if !validID(id) || !validID(ownerID) {
		return nil, domain.ErrMappingNotFound
	}
	m, err := scanMapping(conn(ctx, r.pool).QueryRow(ctx,
		mappingSelect+` WHERE m.id = $1 AND p.owner_id = $2`, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMappingNotFound
		}
		return nil, fmt.Errorf("find mapping: %w", err)
	}
	return m, nil
}

func (r *MappingRepository) List(ctx context.Context, f ports.MappingFilter) ([]*domain.Mapping, int64, error) {
	if !validID(f.OwnerID) || (f.PatientID != "" && !validID(f.PatientID)) {
		return []*domain.Mapping{}, 0, nil
	}

	where := ` WHERE p.owner_id = $1`
	args := []any{f.OwnerID}
	if f.PatientID != "" {
		where += ` AND m.patient_id = $2`
		args = append(args, f.PatientID)
	}

	q := conn(ctx, r.pool)

	var total int64
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM patient_doctor_mappings m JOIN patients p ON p.id = m.patient_id`+where,
		args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count mappings: %w", err)
	}

	n := len(args)
	rows, err := q.Query(ctx,
		mappingSelect+where+fmt.Sprintf(` ORDER BY m.assigned_at, m.id LIMIT $%d OFFSET $%d`, n+1, n+2),
		append(args, f.Page.Limit, f.Page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list mappings: %w", err)
	}
	defer rows.Close()

	out := []*domain.Mapping{}
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan mapping: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate mappings: %w", err)
	}
	return out, total, nil
}

func (r *MappingRepository) Delete(ctx context.Context, id, ownerID string) error {
	if !validID(id) || !validID(ownerID) {
		return domain.ErrMappingNotFound
	}
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM patient_doctor_mappings m USING patients p
		 WHERE m.id = $1 AND p.id = m.patient_id AND p.owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete mapping: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMappingNotFound
	}
	return nil
}

func (r *MappingRepository) DeleteByPatient(ctx context.Context, patientID string) (int64, error) {
	return r.deleteWhere(ctx, `patient_id`, patientID)
}

func (r *MappingRepository) DeleteByDoctor(ctx context.Context, doctorID string) (int64, error) {
	return r.deleteWhere(ctx, `doctor_id`, doctorID)
}

func (r *MappingRepository) deleteWhere(ctx context.Context, column, id string) (int64, error) {
	if !validID(id) {
		return 0, nil
	}
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM patient_doctor_mappings WHERE `+column+` = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete mappings: %w", err)
	}
	return tag.RowsAffected(), nil
}
