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

type DoctorRepository struct {
	col *mongo.Collection
}

func NewDoctorRepository(db *mongo.Database) *DoctorRepository {
	return &DoctorRepository{col: db.Collection(collectionDoctors)}
}

type doctorDoc struct {
	ID             string    `bson:"_id"`
	Name           string    `bson:"name"`
	Specialization string    `bson:"specialization"`
	Contact        string    `bson:"contact"`
	Email          string    `bson:"email"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func (d doctorDoc) toDomain() *domain.Doctor {
	return &domain.Doctor{
		ID:             d.ID,
		Name:           d.Name,
		Specialization: d.Specialization,
		Contact:        d.Contact,
		Email:          d.Email,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

func (r *DoctorRepository) Create(ctx context.Context, d *domain.Doctor) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := doctorDoc{
		ID:             d.ID,
		Name:           d.Name,
		Specialization: d.Specialization,
		Contact:        d.Contact,
		Email:          d.Email,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert doctor: %w", err)
	}
	return nil
}

func (r *DoctorRepository) FindByID(ctx context.Context, id string) (*domain.Doctor, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc doctorDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrDoctorNotFound
		}
		return nil, fmt.Errorf("find doctor: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *DoctorRepository) List(ctx context.Context, page ports.Page) ([]*domain.Doctor, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count doctors: %w", err)
	}

	cur, err := r.col.Find(ctx, bson.M{}, pageOptions("created_at", page.Offset(), page.Limit))
	if err != nil {
		return nil, 0, fmt.Errorf("find doctors: %w", err)
	}
	defer cur.Close(ctx)

	var docs []doctorDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode doctors: %w", err)
	}
	out := make([]*domain.Doctor, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, total, nil
}

func (r *DoctorRepository) Update(ctx context.Context, d *domain.Doctor) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"name":           d.Name,
		"specialization": d.Specialization,
		"contact":        d.Contact,
		"email":          d.Email,
		"updated_at":     d.UpdatedAt,
	}}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": d.ID}, update)
	if err != nil {
		return fmt.Errorf("update doctor: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrDoctorNotFound
	}
	return nil
}

func (r *DoctorRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete doctor: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrDoctorNotFound
	}
	return nil
}
