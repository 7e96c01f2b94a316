package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kailas-cloud/vpsearch/internal/db"
)

// Insert writes a document with _id set to its key. Duplicate keys yield db.ErrKeyExists.
func (s *Store) Insert(ctx context.Context, doc *db.Document) error {
	record, err := toBSON(doc)
	if err != nil {
		return &db.Error{Op: db.OpInsertOne, Err: err}
	}
	if _, err := s.coll.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return db.ErrKeyExists
		}
		return &db.Error{Op: db.OpInsertOne, Err: err}
	}
	return nil
}

func toBSON(doc *db.Document) (bson.D, error) {
	if doc.Key == "" {
		return nil, errors.New("key is required")
	}
	if len(doc.Fields) == 0 && len(doc.Vectors) == 0 {
		return nil, errors.New("document has no fields")
	}

	out := make(bson.D, 0, 1+len(doc.Fields)+len(doc.Vectors))
	out = append(out, bson.E{Key: "_id", Value: doc.Key})
	for k, v := range doc.Fields {
		out = append(out, bson.E{Key: k, Value: v})
	}
	for k, v := range doc.Vectors {
		out = append(out, bson.E{Key: k, Value: toFloat64s(v)})
	}
	return out, nil
}

func toFloat64s(v []float32) bson.A {
	out := make(bson.A, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}
