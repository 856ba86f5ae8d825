package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/quicksign/quicksign/internal/document"
)

// MongoRepo is the MongoDB-backed document repository. Documents are keyed
// by their string id in _id.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Create(ctx context.Context, d *document.Document) error {
	if d.UploadedAt.IsZero() {
		d.UploadedAt = time.Now().UTC()
	}
	_, err := m.col.InsertOne(ctx, d)
	return err
}

func (m *MongoRepo) Get(ctx context.Context, id string) (*document.Document, error) {
	var d document.Document
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoRepo) List(ctx context.Context) ([]*document.Document, error) {
	return m.find(ctx, bson.M{})
}

func (m *MongoRepo) ListByUploader(ctx context.Context, userID string) ([]*document.Document, error) {
	return m.find(ctx, bson.M{"uploadedBy": userID})
}

func (m *MongoRepo) find(ctx context.Context, filter bson.M) ([]*document.Document, error) {
	cur, err := m.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*document.Document{}
	for cur.Next(ctx) {
		var d document.Document
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, cur.Err()
}

func (m *MongoRepo) SetStatus(ctx context.Context, id, status string, completedAt *time.Time) error {
	set := bson.M{"status": status}
	if completedAt != nil {
		set["completedAt"] = *completedAt
	}
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
