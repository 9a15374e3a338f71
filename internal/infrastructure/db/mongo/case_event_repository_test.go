package mongo

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/animalguardian/platform/internal/core/domain"
)

func TestCaseEventRepository_Insert(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := &CaseEventRepository{coll: mt.Coll}

		err := repo.Insert(context.Background(), &domain.CaseEvent{
			CaseID:    "CR20250101120000",
			CaseDBID:  7,
			Type:      domain.CaseEventCreated,
			ActorID:   3,
			ActorRole: domain.RoleFarmer,
			Timestamp: time.Now(),
		})
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
	})

	mt.Run("write error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "duplicate key error",
		}))
		repo := &CaseEventRepository{coll: mt.Coll}

		if err := repo.Insert(context.Background(), &domain.CaseEvent{CaseDBID: 7}); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestCaseEventRepository_ListByCase(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes events", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		first := mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
			bson.D{
				{Key: "case_id", Value: "CR1"},
				{Key: "case_pk", Value: 7},
				{Key: "type", Value: "created"},
				{Key: "actor_id", Value: 3},
				{Key: "actor_role", Value: "farmer"},
			},
			bson.D{
				{Key: "case_id", Value: "CR1"},
				{Key: "case_pk", Value: 7},
				{Key: "type", Value: "status_changed"},
				{Key: "from_status", Value: "pending"},
				{Key: "to_status", Value: "under_review"},
			},
		)
		end := mtest.CreateCursorResponse(0, ns, mtest.NextBatch)
		mt.AddMockResponses(first, end)

		repo := &CaseEventRepository{coll: mt.Coll}
		events, err := repo.ListByCase(context.Background(), 7)
		if err != nil {
			t.Fatalf("ListByCase: %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("len = %d", len(events))
		}
		if events[1].ToStatus != domain.CaseStatusUnderReview || events[0].ActorRole != domain.RoleFarmer {
			t.Fatalf("decoded wrong: %+v %+v", events[0], events[1])
		}
	})
}
