package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/carelink/healthcare-api/internal/core/domain"
	"github.com/carelink/healthcare-api/internal/core/ports"
)

var errAbort = errors.New("abort")

func seed(t *testing.T, s *Store) (*domain.Patient, *domain.Doctor, *domain.Mapping) {
	t.Helper()
	ctx := context.Background()
	p := &domain.Patient{ID: "p1", OwnerID: "u-alice", Name: "Jane", CreatedAt: time.Now()}
	d := &domain.Doctor{ID: "d1", Name: "Dr. One", CreatedAt: time.Now()}
	m := &domain.Mapping{ID: "m1", PatientID: p.ID, DoctorID: d.ID, OwnerID: p.OwnerID, AssignedAt: time.Now()}
	if err := s.Patients().Create(ctx, p); err != nil {
		t.Fatalf("seed patient: %v", err)
	}
	if err := s.Doctors().Create(ctx, d); err != nil {
		t.Fatalf("seed doctor: %v", err)
	}
	if err := s.Mappings().Create(ctx, m); err != nil {
		t.Fatalf("seed mapping: %v", err)
	}
	return p, d, m
}

func TestWithinTx_RollbackKeepsWritesMadeOutsideTheTx(t *testing.T) {
	s := NewStore()
	bg := context.Background()

	err := s.WithinTx(bg, func(ctx context.Context) error {
		if err := s.Patients().Create(ctx, &domain.Patient{ID: "in-tx", OwnerID: "u-alice"}); err != nil {
			return err
		}
		// Another request commits while the transaction is open.
		if err := s.Patients().Create(bg, &domain.Patient{ID: "committed", OwnerID: "u-bob"}); err != nil {
			return err
		}
		return errAbort
	})
	if !errors.Is(err, errAbort) {
		t.Fatalf("expected errAbort, got %v", err)
	}

	if _, err := s.Patients().FindByID(bg, "in-tx", "u-alice"); !errors.Is(err, domain.ErrPatientNotFound) {
		t.Errorf("write inside the failed tx should be undone, got %v", err)
	}
	if _, err := s.Patients().FindByID(bg, "committed", "u-bob"); err != nil {
		t.Errorf("write outside the tx must survive the rollback: %v", err)
	}
}

func TestWithinTx_RollbackRestoresDeletesAndUpdates(t *testing.T) {
	s := NewStore()
	bg := context.Background()
	p, d, m := seed(t, s)

	err := s.WithinTx(bg, func(ctx context.Context) error {
		changed := *d
		changed.Name = "Dr. Renamed"
		if err := s.Doctors().Update(ctx, &changed); err != nil {
			return err
		}
		if _, err := s.Mappings().DeleteByPatient(ctx, p.ID); err != nil {
			return err
		}
		if err := s.Patients().Delete(ctx, p.ID, p.OwnerID); err != nil {
			return err
		}
		return errAbort
	})
	if !errors.Is(err, errAbort) {
		t.Fatalf("expected errAbort, got %v", err)
	}

	if _, err := s.Patients().FindByID(bg, p.ID, p.OwnerID); err != nil {
		t.Errorf("patient should be restored: %v", err)
	}
	if _, err := s.Mappings().FindByID(bg, m.ID, m.OwnerID); err != nil {
		t.Errorf("mapping should be restored: %v", err)
	}
	got, err := s.Doctors().FindByID(bg, d.ID)
	if err != nil {
		t.Fatalf("find doctor: %v", err)
	}
	if got.Name != "Dr. One" {
		t.Errorf("doctor name = %q, want the pre-tx value", got.Name)
	}
}

func TestWithinTx_CommitKeepsWrites(t *testing.T) {
	s := NewStore()
	bg := context.Background()

	err := s.WithinTx(bg, func(ctx context.Context) error {
		return s.Doctors().Create(ctx, &domain.Doctor{ID: "d1", Name: "Dr. One"})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Doctors().FindByID(bg, "d1"); err != nil {
		t.Fatalf("doctor should exist after commit: %v", err)
	}
}

func TestWithinTx_NestedCallJoinsOuterTx(t *testing.T) {
	s := NewStore()
	bg := context.Background()

	err := s.WithinTx(bg, func(ctx context.Context) error {
		if err := s.WithinTx(ctx, func(ctx context.Context) error {
			return s.Doctors().Create(ctx, &domain.Doctor{ID: "d1"})
		}); err != nil {
			return err
		}
		return errAbort
	})
	if !errors.Is(err, errAbort) {
		t.Fatalf("expected errAbort, got %v", err)
	}
	if _, err := s.Doctors().FindByID(bg, "d1"); !errors.Is(err, domain.ErrDoctorNotFound) {
		t.Fatalf("inner write should roll back with the outer tx, got %v", err)
	}
}

func TestWithinTx_SerializesTransactions(t *testing.T) {
	s := NewStore()
	bg := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	firstDone := make(chan error, 1)

	go func() {
		firstDone <- s.WithinTx(bg, func(context.Context) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	secondIn := make(chan struct{})
	secondDone := make(chan error, 1)
	go func() {
		secondDone <- s.WithinTx(bg, func(context.Context) error {
			close(secondIn)
			return nil
		})
	}()

	select {
	case <-secondIn:
		t.Fatal("second transaction started while the first was open")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	if err := <-firstDone; err != nil {
		t.Fatalf("first tx: %v", err)
	}
	if err := <-secondDone; err != nil {
		t.Fatalf("second tx: %v", err)
	}
}

func TestMappingRepository_CreateRequiresReferences(t *testing.T) {
	s := NewStore()
	bg := context.Background()
	p, d, _ := seed(t, s)

	tests := []struct {
		name    string
		mapping domain.Mapping
		want    string
	}{
		{"missing patient", domain.Mapping{ID: "m2", PatientID: "ghost", DoctorID: d.ID}, "patient does not exist"},
		{"missing doctor", domain.Mapping{ID: "m3", PatientID: p.ID, DoctorID: "ghost"}, "doctor does not exist"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Mappings().Create(bg, &tt.mapping)
			if !errors.Is(err, domain.ErrValidation) || err.Error() != tt.want {
				t.Fatalf("got %v, want validation error %q", err, tt.want)
			}
		})
	}
}

func TestMappingRepository_ListScopedToOwner(t *testing.T) {
	s := NewStore()
	bg := context.Background()
	seed(t, s)

	own, total, err := s.Mappings().List(bg, ports.MappingFilter{OwnerID: "u-alice"})
	if err != nil || total != 1 || len(own) != 1 {
		t.Fatalf("owner list = %d/%d, err %v; want 1", len(own), total, err)
	}
	foreign, total, err := s.Mappings().List(bg, ports.MappingFilter{OwnerID: "u-bob", PatientID: "p1"})
	if err != nil || total != 0 || len(foreign) != 0 {
		t.Fatalf("foreign list = %d/%d, err %v; want 0", len(foreign), total, err)
	}
}
