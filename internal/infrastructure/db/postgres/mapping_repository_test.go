package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/carelink/healthcare-api/internal/core/domain"
)

func TestMissingReference(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "patient deleted",
			err:  &pgconn.PgError{Code: foreignKeyViolation, ConstraintName: "patient_doctor_mappings_patient_id_fkey"},
			want: "patient does not exist",
		},
		{
			name: "doctor deleted",
			err:  fmt.Errorf("exec: %w", &pgconn.PgError{Code: foreignKeyViolation, ConstraintName: "patient_doctor_mappings_doctor_id_fkey"}),
			want: "doctor does not exist",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := missingReference(tt.err)
			if !errors.Is(err, domain.ErrValidation) || err.Error() != tt.want {
				t.Fatalf("got %v, want validation error %q", err, tt.want)
			}
		})
	}
}

func TestMissingReference_IgnoresOtherErrors(t *testing.T) {
	for _, err := range []error{
		&pgconn.PgError{Code: uniqueViolation},
		errors.New("connection reset"),
	} {
		if got := missingReference(err); got != nil {
			t.Errorf("missingReference(%v) = %v, want nil", err, got)
		}
	}
}
