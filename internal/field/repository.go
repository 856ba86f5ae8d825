package field

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrFieldNotFound = errors.New("field not found")

type Repository interface {
	Create(ctx context.Context, f *Field) error
	Get(ctx context.Context, id string) (*Field, error)
	ListByDocument(ctx context.Context, documentID string) ([]*Field, error)
	SetValue(ctx context.Context, id, value string, at time.Time) error
	DeleteByDocument(ctx context.Context, documentID string) error
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, f *Field) error {
	_, err := r.col.InsertOne(ctx, f)
	return err
}

func (r *MongoRepository) Get(ctx context.Context, id string) (*Field, error) {
	var f Field
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&f)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrFieldNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *MongoRepository) ListByDocument(ctx context.Context, documentID string) ([]*Field, error) {
	cur, err := r.col.Find(ctx, bson.M{"documentId": documentID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*Field{}
	for cur.Next(ctx) {
		var f Field
		if err := cur.Decode(&f); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, cur.Err()
}

func (r *MongoRepository) SetValue(ctx context.Context, id, value string, at time.Time) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"value": value, "signedAt": at}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrFieldNotFound
	}
	return nil
}

func (r *MongoRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"documentId": documentID})
	return err
}
