package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quicksign/quicksign/internal/request"
)

type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (m *MongoRepository) Create(ctx context.Context, r *request.Request) error {
	_, err := m.col.InsertOne(ctx, r)
	return err
}

func (m *MongoRepository) Get(ctx context.Context, id string) (*request.Request, error) {
	var r request.Request
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (m *MongoRepository) Update(ctx context.Context, r *request.Request) error {
	res, err := m.col.ReplaceOne(ctx, bson.M{"_id": r.ID}, r)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepository) find(ctx context.Context, filter bson.M) ([]*request.Request, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := m.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*request.Request{}
	for cur.Next(ctx) {
		var r request.Request
		if err := cur.Decode(&r); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, cur.Err()
}

func (m *MongoRepository) ListByRequester(ctx context.Context, userID string) ([]*request.Request, error) {
	return m.find(ctx, bson.M{"requesterId": userID})
}

func (m *MongoRepository) ListBySignerEmail(ctx context.Context, email string) ([]*request.Request, error) {
	return m.find(ctx, bson.M{"signers.email": email})
}

func (m *MongoRepository) ListByDocument(ctx context.Context, documentID string) ([]*request.Request, error) {
	return m.find(ctx, bson.M{"documentId": documentID})
}

func (m *MongoRepository) List(ctx context.Context) ([]*request.Request, error) {
	return m.find(ctx, bson.M{})
}

func (m *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
