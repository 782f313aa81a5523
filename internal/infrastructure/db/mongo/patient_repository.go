package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/carelink/healthcare-api/internal/core/domain"
	"github.com/carelink/healthcare-api/internal/core/ports"
)

type PatientRepository struct {
	col *mongo.Collection
}

func NewPatientRepository(db *mongo.Database) *PatientRepository {
	return &PatientRepository{col: db.Collection(collectionPatients)}
}

type patientDoc struct {
	ID             string    `bson:"_id"`
	OwnerID        string    `bson:"owner_id"`
	Name           string    `bson:"name"`
	Age            int       `bson:"age"`
	Gender         string    `bson:"gender"`
	Contact        string    `bson:"contact"`
	Address        string    `bson:"address"`
	MedicalHistory string    `bson:"medical_history"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func newPatientDoc(p *domain.Patient) patientDoc {
	return patientDoc{
		ID:             p.ID,
		OwnerID:        p.OwnerID,
		Name:           p.Name,
		Age:            p.Age,
		Gender:         p.Gender,
		Contact:        p.Contact,
		Address:        p.Address,
		MedicalHistory: p.MedicalHistory,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func (d patientDoc) toDomain() *domain.Patient {
	return &domain.Patient{
		ID:             d.ID,
		OwnerID:        d.OwnerID,
		Name:           d.Name,
		Age:            d.Age,
		Gender:         d.Gender,
		Contact:        d.Contact,
		Address:        d.Address,
		MedicalHistory: d.MedicalHistory,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

// ownerFilter always pairs the id with the owner so foreign records never match.
func ownerFilter(id, ownerID string) bson.M {
	return bson.M{"_id": id, "owner_id": ownerID}
}

func (r *PatientRepository) Create(ctx context.Context, p *domain.Patient) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, newPatientDoc(p)); err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *PatientRepository) FindByID(ctx context.Context, id, ownerID string) (*domain.Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc patientDoc
	if err := r.col.FindOne(ctx, ownerFilter(id, ownerID)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPatientNotFound
		}
		return nil, fmt.Errorf("find patient: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *PatientRepository) List(ctx context.Context, ownerID string, page ports.Page) ([]*domain.Patient, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"owner_id": ownerID}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	cur, err := r.col.Find(ctx, filter, pageOptions("created_at", page.Offset(), page.Limit))
	if err != nil {
		return nil, 0, fmt.Errorf("find patients: %w", err)
	}
	defer cur.Close(ctx)

	var docs []patientDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode patients: %w", err)
	}
	out := make([]*domain.Patient, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, total, nil
}

// Update rewrites the mutable fields. owner_id and created_at are never set here.
func (r *PatientRepository) Update(ctx context.Context, p *domain.Patient) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"name":            p.Name,
		"age":             p.Age,
		"gender":          p.Gender,
		"contact":         p.Contact,
		"address":         p.Address,
		"medical_history": p.MedicalHistory,
		"updated_at":      p.UpdatedAt,
	}}
	res, err := r.col.UpdateOne(ctx, ownerFilter(p.ID, p.OwnerID), update)
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrPatientNotFound
	}
	return nil
}

func (r *PatientRepository) Delete(ctx context.Context, id, ownerID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, ownerFilter(id, ownerID))
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrPatientNotFound
	}
	return nil
}
