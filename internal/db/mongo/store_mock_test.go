package mongo

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/kailas-cloud/vpsearch/internal/db"
	"github.com/kailas-cloud/vpsearch/internal/domain/search/filter"
)

func knnQuery(t *testing.T) *db.KNNQuery {
	t.Helper()
	role, err := filter.NewMatch("normalizedRole", "VP")
	if err != nil {
		t.Fatal(err)
	}
	expr, err := filter.NewExpression(role)
	if err != nil {
		t.Fatal(err)
	}
	return &db.KNNQuery{
		IndexName:    "vector_index",
		VectorField:  "roleVector",
		Vector:       []float32{0.1, 0.2, 0.3},
		Filters:      expr,
		K:            2,
		ReturnFields: []string{"name", "role", "normalizedRole"},
	}
}

func TestStore_Insert(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	doc := &db.Document{
		Key:     "person:1",
		Fields:  map[string]string{"name": "Alice", "role": "VP of Sales"},
		Vectors: map[string][]float32{"roleVector": {0.1, 0.2}},
	}

	mt.Run("ok", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		if err := newStore(mt.Coll).Insert(context.Background(), doc); err != nil {
			mt.Fatalf("Insert: %v", err)
		}
	})

	mt.Run("duplicate key", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: people.persons index: _id_",
		}))

		err := newStore(mt.Coll).Insert(context.Background(), doc)
		if !errors.Is(err, db.ErrKeyExists) {
			mt.Fatalf("err = %v, want ErrKeyExists", err)
		}
	})

	mt.Run("server error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Name:    "Unauthorized",
			Message: "not authorized on people",
		}))

		err := newStore(mt.Coll).Insert(context.Background(), doc)
		var dbErr *db.Error
		if !errors.As(err, &dbErr) || dbErr.Op != db.OpInsertOne {
			mt.Fatalf("err = %v, want db.Error on %s", err, db.OpInsertOne)
		}
		if errors.Is(err, db.ErrKeyExists) {
			mt.Error("non-duplicate error reported as ErrKeyExists")
		}
	})
}

func TestStore_SearchKNN(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("cursor", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: "person:1"},
				{Key: "name", Value: "Alice"},
				{Key: "role", Value: "VP of Sales"},
				{Key: "normalizedRole", Value: "VP"},
				{Key: scoreField, Value: 0.95},
			},
			bson.D{
				{Key: "_id", Value: "person:2"},
				{Key: "name", Value: "Carol"},
				{Key: "role", Value: "VP Engineering"},
				{Key: "normalizedRole", Value: "VP"},
				{Key: scoreField, Value: 0.75},
			},
			// без score документ отбрасывается
			bson.D{{Key: "_id", Value: "person:3"}, {Key: "name", Value: "Bob"}},
		))

		res, err := newStore(mt.Coll).SearchKNN(context.Background(), knnQuery(mt.T))
		if err != nil {
			mt.Fatalf("SearchKNN: %v", err)
		}
		if res.Total != 2 || len(res.Entries) != 2 {
			mt.Fatalf("entries = %+v", res.Entries)
		}

		first := res.Entries[0]
		if first.Key != "person:1" || first.Fields["name"] != "Alice" || first.Fields["normalizedRole"] != "VP" {
			mt.Errorf("first = %+v", first)
		}
		if math.Abs(first.Score-0.9) > 1e-9 {
			mt.Errorf("score = %v, want 0.9", first.Score)
		}
		if res.Entries[1].Key != "person:2" || math.Abs(res.Entries[1].Score-0.5) > 1e-9 {
			mt.Errorf("second = %+v", res.Entries[1])
		}
	})

	mt.Run("empty", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		res, err := newStore(mt.Coll).SearchKNN(context.Background(), knnQuery(mt.T))
		if err != nil {
			mt.Fatalf("SearchKNN: %v", err)
		}
		if res.Total != 0 || len(res.Entries) != 0 {
			mt.Errorf("entries = %+v", res.Entries)
		}
	})

	mt.Run("command error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    8,
			Name:    "UnknownError",
			Message: "PlanExecutor error during aggregation :: caused by :: index not ready",
		}))

		_, err := newStore(mt.Coll).SearchKNN(context.Background(), knnQuery(mt.T))
		var dbErr *db.Error
		if !errors.As(err, &dbErr) || dbErr.Op != db.OpAggregate {
			mt.Fatalf("err = %v, want db.Error on %s", err, db.OpAggregate)
		}
	})

	mt.Run("invalid query skips the server", func(mt *mtest.T) {
		q := knnQuery(mt.T)
		q.K = 0

		if _, err := newStore(mt.Coll).SearchKNN(context.Background(), q); err == nil {
			mt.Fatal("expected error for zero k")
		}
	})
}
