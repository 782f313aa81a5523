package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carelink/healthcare-api/internal/core/domain"
	"github.com/carelink/healthcare-api/internal/core/ports"
)

// MappingRepository stores mappings with the patient's owner_id copied onto
// each document, so scoping needs no lookup into the patients collection.
type MappingRepository struct {
	col      *mongo.Collection
	patients *mongo.Collection
	doctors  *mongo.Collection
}

func NewMappingRepository(db *mongo.Database) *MappingRepository {
	return &MappingRepository{
		col:      db.Collection(collectionMappings),
		patients: db.Collection(collectionPatients),
		doctors:  db.Collection(collectionDoctors),
	}
}

// referenceBump is written to a mapping's patient and doctor when the mapping
// is inserted, so a transaction deleting either one hits a write conflict.
var referenceBump = bson.M{"$inc": bson.M{"ref_version": 1}}

type reference struct {
	col     *mongo.Collection
	id      string
	missing string
}

func (r *MappingRepository) references(m *domain.Mapping) []reference {
	return []reference{
		{col: r.patients, id: m.PatientID, missing: "patient does not exist"},
		{col: r.doctors, id: m.DoctorID, missing: "doctor does not exist"},
	}
}

func (r *MappingRepository) claimReferences(ctx context.Context, m *domain.Mapping) error {
	for _, ref := range r.references(m) {
		res, err := ref.col.UpdateOne(ctx, bson.M{"_id": ref.id}, referenceBump)
		if err != nil {
			return fmt.Errorf("claim %s %s: %w", ref.col.Name(), ref.id, err)
		}
		if res.MatchedCount == 0 {
			return domain.NewValidationError(ref.missing)
		}
	}
	return nil
}

type mappingDoc struct {
	ID         string    `bson:"_id"`
	PatientID  string    `bson:"patient_id"`
	DoctorID   string    `bson:"doctor_id"`
	OwnerID    string    `bson:"owner_id"`
	AssignedAt time.Time `bson:"assigned_at"`
}

func (d mappingDoc) toDomain() *domain.Mapping {
	return &domain.Mapping{
		ID:         d.ID,
		PatientID:  d.PatientID,
		DoctorID:   d.DoctorID,
		OwnerID:    d.OwnerID,
		AssignedAt: d.AssignedAt.UTC(),
	}
}

func (r *MappingRepository) Create(ctx context.Context, m *domain.Mapping) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := r.claimReferences(ctx, m); err != nil {
		return err
	}

	doc := mappingDoc{
		ID:         m.ID,
		PatientID:  m.PatientID,
		DoctorID:   m.DoctorID,
		OwnerID:    m.OwnerID,
		AssignedAt: m.AssignedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateMapping
		}
		return fmt.Errorf("insert mapping: %w", err)
	}
	return nil
}

func (r *MappingRepository) Exists(ctx context.Context, patientID, doctorID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx,
		bson.M{"patient_id": patientID, "doctor_id": doctorID},
		options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count mappings: %w", err)
	}
	return n > 0, nil
}

func (r *MappingRepository) FindByID(ctx context.Context, id, ownerID string) (*domain.Mapping, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc mappingDoc
	if err := r.col.FindOne(ctx, ownerFilter(id, ownerID)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMappingNotFound
		}
		return nil, fmt.Errorf("find mapping: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MappingRepository) List(ctx context.Context, f ports.MappingFilter) ([]*domain.Mapping, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"owner_id": f.OwnerID}
	if f.PatientID != "" {
		filter["patient_id"] = f.PatientID
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count mappings: %w", err)
	}

	cur, err := r.col.Find(ctx, filter, pageOptions("assigned_at", f.Page.Offset(), f.Page.Limit))
	if err != nil {
		return nil, 0, fmt.Errorf("find mappings: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mappingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode mappings: %w", err)
	}
	out := make([]*domain.Mapping, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, total, nil
}

func (r *MappingRepository) Delete(ctx context.Context, id, ownerID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, ownerFilter(id, ownerID))
	if err != nil {
		return fmt.Errorf("delete mapping: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrMappingNotFound
	}
	return nil
}

func (r *MappingRepository) DeleteByPatient(ctx context.Context, patientID string) (int64, error) {
	return r.deleteMany(ctx, bson.M{"patient_id": patientID})
}

func (r *MappingRepository) DeleteByDoctor(ctx context.Context, doctorID string) (int64, error) {
	return r.deleteMany(ctx, bson.M{"doctor_id": doctorID})
}

func (r *MappingRepository) deleteMany(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("delete mappings: %w", err)
	}
	return res.DeletedCount, nil
}
