package completion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quicksign/quicksign/internal/database"
)

// Record marks that a signer finished the signing ceremony for a request.
// The signing page posts it so a reload can short-circuit to the signed view
// even when the request itself lives in another store.
type Record struct {
	ID          string    `bson:"_id" json:"id"`
	RequestID   string    `bson:"requestId" json:"requestId"`
	SignerEmail string    `bson:"signerEmail,omitempty" json:"signerEmail,omitempty"`
	SignerName  string    `bson:"signerName,omitempty" json:"signerName,omitempty"`
	CompletedAt time.Time `bson:"completedAt" json:"completedAt"`
	Status      string    `bson:"status" json:"status"`
}

// NewRecord stamps id, status and a completion time when none was supplied.
func NewRecord(requestID, signerEmail, signerName string, completedAt *time.Time) *Record {
	at := time.Now().UTC()
	if completedAt != nil {
		at = *completedAt
	}
	return &Record{
		ID:          uuid.NewString(),
		RequestID:   requestID,
		SignerEmail: signerEmail,
		SignerName:  signerName,
		CompletedAt: at,
		Status:      "completed",
	}
}

// Save upserts a completion record keyed by request id. No-op without a
// Mongo URI, matching how compile metadata persistence degrades elsewhere.
func Save(ctx context.Context, mongoURI, databaseName string, rec *Record) error {
	if mongoURI == "" {
		return nil
	}
	client, err := database.ConnectMongo(ctx, mongoURI, 5*time.Second)
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer client.Disconnect(ctx)

	col := client.Database(databaseName).Collection("completions")
	filter := bson.M{"requestId": rec.RequestID}
	opts := options.Update().SetUpsert(true)
	if _, err := col.UpdateOne(ctx, filter, bson.M{"$set": rec}, opts); err != nil {
		return fmt.Errorf("save completion: %w", err)
	}
	return nil
}

// Load fetches the completion record for a request. Returns nil when absent
// or when Mongo is not configured.
func Load(ctx context.Context, mongoURI, databaseName, requestID string) (*Record, error) {
	if mongoURI == "" {
		return nil, nil
	}
	client, err := database.ConnectMongo(ctx, mongoURI, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	defer client.Disconnect(ctx)

	col := client.Database(databaseName).Collection("completions")
	var rec Record
	if err := col.FindOne(ctx, bson.M{"requestId": requestID}).Decode(&rec); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}
