package mongo

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kailas-cloud/vpsearch/internal/db"
)

const searchIndexType = "vectorSearch"

// CreateIndex creates an Atlas vector search index. Tag fields become filter paths.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	definition, err := buildSearchIndex(def)
	if err != nil {
		return err
	}

	model := mongo.SearchIndexModel{
		Definition: definition,
		Options:    options.SearchIndexes().SetName(def.Name).SetType(searchIndexType),
	}
	if _, err := s.coll.SearchIndexes().CreateOne(ctx, model); err != nil {
		if hasCode(err, codeIndexAlreadyExists) || strings.Contains(err.Error(), "already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateSearch, Err: err}
	}
	return nil
}

// DropIndex removes a search index by name. Documents are kept.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	if err := s.coll.SearchIndexes().DropOne(ctx, name); err != nil {
		if hasCode(err, codeIndexNotFound) {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpDropSearch, Err: err}
	}
	return nil
}

// IndexExists lists search indexes filtered by name.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cursor, err := s.coll.SearchIndexes().List(ctx, options.SearchIndexes().SetName(name))
	if err != nil {
		return false, &db.Error{Op: db.OpListSearch, Err: err}
	}
	defer cursor.Close(ctx)

	found := cursor.Next(ctx)
	if err := cursor.Err(); err != nil {
		return false, &db.Error{Op: db.OpListSearch, Err: err}
	}
	return found, nil
}

func buildSearchIndex(def *db.IndexDefinition) (bson.D, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	fields := make(bson.A, 0, len(def.Fields))
	for i := range def.Fields {
		f := &def.Fields[i]
		switch f.Type {
		case db.IndexFieldVector:
			fields = append(fields, bson.D{
				{Key: "type", Value: "vector"},
				{Key: "path", Value: f.Name},
				{Key: "numDimensions", Value: f.VectorDim},
				{Key: "similarity", Value: similarity(f.VectorDistance)},
			})
		case db.IndexFieldTag:
			fields = append(fields, bson.D{
				{Key: "type", Value: "filter"},
				{Key: "path", Value: f.Name},
			})
		default:
			return nil, errors.New("unknown field type")
		}
	}
	return bson.D{{Key: "fields", Value: fields}}, nil
}

func similarity(d db.DistanceMetric) string {
	switch d {
	case db.DistanceL2:
		return "euclidean"
	case db.DistanceIP:
		return "dotProduct"
	default:
		return "cosine"
	}
}
