package memory

import (
	"context"
	"time"

	"github.com/carelink/healthcare-api/internal/core/domain"
	"github.com/carelink/healthcare-api/internal/core/ports"
)

// UserRepository implements ports.AuthRepository.
type UserRepository struct{ s *Store }

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == user.Username {
			return nil, domain.ErrUserExists
		}
	}
	r.s.users[user.ID] = *user
	clone := *user
	return &clone, nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Username == username {
			clone := u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

// PatientRepository implements ports.PatientRepository.
type PatientRepository struct{ s *Store }

func (r *PatientRepository) Create(ctx context.Context, p *domain.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	track(ctx, r.s.patients, p.ID)
	r.s.patients[p.ID] = *p
	return nil
}

func (r *PatientRepository) FindByID(_ context.Context, id, ownerID string) (*domain.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.patients[id]
	if !ok || p.OwnerID != ownerID {
		return nil, domain.ErrPatientNotFound
	}
	return &p, nil
}

func (r *PatientRepository) List(_ context.Context, ownerID string, page ports.Page) ([]*domain.Patient, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.Patient
	for _, p := range r.s.patients {
		if p.OwnerID == ownerID {
			clone := p
			out = append(out, &clone)
		}
	}
	items, total := paginate(out,
		func(p *domain.Patient) time.Time { return p.CreatedAt },
		func(p *domain.Patient) string { return p.ID }, page)
	return items, total, nil
}

func (r *PatientRepository) Update(ctx context.Context, p *domain.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.patients[p.ID]
	if !ok || cur.OwnerID != p.OwnerID {
		return domain.ErrPatientNotFound
	}
	track(ctx, r.s.patients, p.ID)
	r.s.patients[p.ID] = *p
	return nil
}

func (r *PatientRepository) Delete(ctx context.Context, id, ownerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.patients[id]
	if !ok || cur.OwnerID != ownerID {
		return domain.ErrPatientNotFound
	}
	track(ctx, r.s.patients, id)
	delete(r.s.patients, id)
	return nil
}

// DoctorRepository implements ports.DoctorRepository.
type DoctorRepository struct{ s *Store }

func (r *DoctorRepository) Create(ctx context.Context, d *domain.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	track(ctx, r.s.doctors, d.ID)
	r.s.doctors[d.ID] = *d
	return nil
}

func (r *DoctorRepository) FindByID(_ context.Context, id string) (*domain.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.doctors[id]
	if !ok {
		return nil, domain.ErrDoctorNotFound
	}
	return &d, nil
}

func (r *DoctorRepository) List(_ context.Context, page ports.Page) ([]*domain.Doctor, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Doctor, 0, len(r.s.doctors))
	for _, d := range r.s.doctors {
		clone := d
		out = append(out, &clone)
	}
	items, total := paginate(out,
		func(d *domain.Doctor) time.Time { return d.CreatedAt },
		func(d *domain.Doctor) string { return d.ID }, page)
	return items, total, nil
}

func (r *DoctorRepository) Update(ctx context.Context, d *domain.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.doctors[d.ID]; !ok {
		return domain.ErrDoctorNotFound
	}
	track(ctx, r.s.doctors, d.ID)
	r.s.doctors[d.ID] = *d
	return nil
}

func (r *DoctorRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.doctors[id]; !ok {
		return domain.ErrDoctorNotFound
	}
	track(ctx, r.s.doctors, id)
	delete(r.s.doctors, id)
	return nil
}

// MappingRepository implements ports.MappingRepository.
type MappingRepository struct{ s *Store }

func (r *MappingRepository) Create(ctx context.Context, m *domain.Mapping) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, cur := range r.s.mappings {
		if cur.PatientID == m.PatientID && cur.DoctorID == m.DoctorID {
			return domain.ErrDuplicateMapping
		}
	}
	if _, ok := r.s.patients[m.PatientID]; !ok {
		return domain.NewValidationError("patient does not exist")
	}
	if _, ok := r.s.doctors[m.DoctorID]; !ok {
		return domain.NewValidationError("doctor does not exist")
	}
	track(ctx, r.s.mappings, m.ID)
	r.s.mappings[m.ID] = *m
	return nil
}

func (r *MappingRepository) Exists(_ context.Context, patientID, doctorID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.mappings {
		if m.PatientID == patientID && m.DoctorID == doctorID {
			return true, nil
		}
	}
	return false, nil
}

func (r *MappingRepository) FindByID(_ context.Context, id, ownerID string) (*domain.Mapping, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.mappings[id]
	if !ok || m.OwnerID != ownerID {
		return nil, domain.ErrMappingNotFound
	}
	return &m, nil
}

func (r *MappingRepository) List(_ context.Context, f ports.MappingFilter) ([]*domain.Mapping, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*domain.Mapping
	for _, m := range r.s.mappings {
		if m.OwnerID != f.OwnerID {
			continue
		}
		if f.PatientID != "" && m.PatientID != f.PatientID {
			continue
		}
		clone := m
		out = append(out, &clone)
	}
	items, total := paginate(out,
		func(m *domain.Mapping) time.Time { return m.AssignedAt },
		func(m *domain.Mapping) string { return m.ID }, f.Page)
	return items, total, nil
}

func (r *MappingRepository) Delete(ctx context.Context, id, ownerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.mappings[id]
	if !ok || m.OwnerID != ownerID {
		return domain.ErrMappingNotFound
	}
	track(ctx, r.s.mappings, id)
	delete(r.s.mappings, id)
	return nil
}

func (r *MappingRepository) DeleteByPatient(ctx context.Context, patientID string) (int64, error) {
	return r.deleteWhere(ctx, func(m domain.Mapping) bool { return m.PatientID == patientID }), nil
}

func (r *MappingRepository) DeleteByDoctor(ctx context.Context, doctorID string) (int64, error) {
	return r.deleteWhere(ctx, func(m domain.Mapping) bool { return m.DoctorID == doctorID }), nil
}

func (r *MappingRepository) deleteWhere(ctx context.Context, match func(domain.Mapping) bool) int64 {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, m := range r.s.mappings {
		if match(m) {
			track(ctx, r.s.mappings, id)
			delete(r.s.mappings, id)
			n++
		}
	}
	return n
}

// TokenStore implements ports.TokenStore.
type TokenStore struct{ s *Store }

func (t *TokenStore) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.revoked[jti] = time.Now().Add(ttl)
	return nil
}

func (t *TokenStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	exp, ok := t.s.revoked[jti]
	return ok && time.Now().Before(exp), nil
}
