package repository

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ahmednasr/bug-triage/internal/models"
)

// DefaultHistoryCollection stores one document per historical bug.
const DefaultHistoryCollection = "history_embeddings"

// HistoryMongo provides Mongo-backed persistence for historical case
// embeddings.
//
// Expected schema:
//
//	history_embeddings
//	  { _id: "BUG-123", embedding: []float32 }
type HistoryMongo struct {
	col    *mongo.Collection
	logger *slog.Logger
}

// NewHistoryRepository returns a HistoryMongo on the named collection.
func NewHistoryRepository(db *mongo.Database, collection string, logger *slog.Logger) *HistoryMongo {
	if collection == "" {
		collection = DefaultHistoryCollection
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryMongo{col: db.Collection(collection), logger: logger}
}

// LoadAll returns every stored case ordered by id, so snapshots built from
// the same collection rank ties identically.
func (r *HistoryMongo) LoadAll(ctx context.Context) ([]models.HistoricalCase, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("history: find: %w", err)
	}
	defer cur.Close(ctx)

	var cases []models.HistoricalCase
	if err := cur.All(ctx, &cases); err != nil {
		return nil, fmt.Errorf("history: decode: %w", err)
	}
	r.logger.InfoContext(ctx, "loaded history snapshot",
		"collection", r.col.Name(), "cases", len(cases))
	return cases, nil
}

// Upsert inserts or replaces cases by id and returns how many documents
// were written.
func (r *HistoryMongo) Upsert(ctx context.Context, cases []models.HistoricalCase) (int, error) {
	if len(cases) == 0 {
		return 0, nil
	}
	writes := make([]mongo.WriteModel, len(cases))
	for i, c := range cases {
		writes[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": c.ID}).
			SetReplacement(c).
			SetUpsert(true)
	}

	res, err := r.col.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("history: bulk upsert: %w", err)
	}
	n := int(res.UpsertedCount + res.MatchedCount)
	r.logger.InfoContext(ctx, "upserted history cases", "collection", r.col.Name(), "written", n)
	return n, nil
}
