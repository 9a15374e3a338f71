package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/animalguardian/platform/internal/core/domain"
	"github.com/animalguardian/platform/internal/core/ports"
)

const caseEventsCollection = "case_events"

// CaseEventRepository implements ports.CaseEventRepository using MongoDB.
type CaseEventRepository struct {
	coll *mongo.Collection
}

// NewCaseEventRepository creates a CaseEventRepository on the case_events collection.
func NewCaseEventRepository(db *mongo.Database) ports.CaseEventRepository {
	return &CaseEventRepository{coll: db.Collection(caseEventsCollection)}
}

// EnsureIndexes creates the lookup index used by ListByCase.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(caseEventsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "case_pk", Value: 1}, {Key: "timestamp", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("case_events index: %w", err)
	}
	return nil
}

// Insert appends an event to the audit trail.
func (r *CaseEventRepository) Insert(ctx context.Context, e *domain.CaseEvent) error {
	ev := *e
	ev.Timestamp = ev.Timestamp.UTC()
	_, err := r.coll.InsertOne(ctx, ev)
	return err
}

// ListByCase returns the trail of one case, oldest first.
func (r *CaseEventRepository) ListByCase(ctx context.Context, caseDBID uint) ([]*domain.CaseEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"case_pk": caseDBID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*domain.CaseEvent
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode case events: %w", err)
	}
	return out, nil
}
