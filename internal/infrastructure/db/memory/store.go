// Package memory is an in-process implementation of every repository port.
// It backs STORAGE_DRIVER=memory for local runs and the service and API tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/carelink/healthcare-api/internal/core/domain"
	"github.com/carelink/healthcare-api/internal/core/ports"
)

// Store holds all records behind a single mutex. txMu serializes
// transactions; plain writes outside a transaction only take mu.
type Store struct {
	mu       sync.RWMutex
	txMu     sync.Mutex
	users    map[string]domain.User
	patients map[string]domain.Patient
	doctors  map[string]domain.Doctor
	mappings map[string]domain.Mapping
	revoked  map[string]time.Time
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]domain.User),
		patients: make(map[string]domain.Patient),
		doctors:  make(map[string]domain.Doctor),
		mappings: make(map[string]domain.Mapping),
		revoked:  make(map[string]time.Time),
	}
}

func (s *Store) Users() *UserRepository       { return &UserRepository{s: s} }
func (s *Store) Patients() *PatientRepository { return &PatientRepository{s: s} }
func (s *Store) Doctors() *DoctorRepository   { return &DoctorRepository{s: s} }
func (s *Store) Mappings() *MappingRepository { return &MappingRepository{s: s} }
func (s *Store) Tokens() *TokenStore          { return &TokenStore{s: s} }

type txKey struct{}

// undoLog records the previous value of every key a transaction wrote.
type undoLog struct {
	steps []func()
}

func (u *undoLog) rollback() {
	for i := len(u.steps) - 1; i >= 0; i-- {
		u.steps[i]()
	}
}

// WithinTx runs fn while holding the transaction lock. If fn fails, only the
// keys written through the ctx handed to fn are restored. A ctx that already
// carries a transaction joins it.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*undoLog); ok {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	undo := &undoLog{}
	if err := fn(context.WithValue(ctx, txKey{}, undo)); err != nil {
		s.mu.Lock()
		undo.rollback()
		s.mu.Unlock()
		return err
	}
	return nil
}

// track saves the current value of m[key] in the transaction carried by ctx,
// if any. Callers hold s.mu for writing.
func track[V any](ctx context.Context, m map[string]V, key string) {
	undo, ok := ctx.Value(txKey{}).(*undoLog)
	if !ok {
		return
	}
	prev, existed := m[key]
	undo.steps = append(undo.steps, func() {
		if existed {
			m[key] = prev
		} else {
			delete(m, key)
		}
	})
}

// Ping satisfies the readiness check.
func (s *Store) Ping(context.Context) error { return nil }

// paginate sorts by creation time then id and slices out the requested page.
func paginate[T any](items []T, created func(T) time.Time, id func(T) string, page ports.Page) ([]T, int64) {
	sort.Slice(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if ci.Equal(cj) {
			return id(items[i]) < id(items[j])
		}
		return ci.Before(cj)
	})
	total := int64(len(items))
	page = page.Normalize()
	start := page.Offset()
	if start >= len(items) {
		return []T{}, total
	}
	end := start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], total
}
