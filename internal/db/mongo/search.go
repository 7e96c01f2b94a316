package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/kailas-cloud/vpsearch/internal/db"
	"github.com/kailas-cloud/vpsearch/internal/domain/search/filter"
)

const scoreField = "cosineScore"

// SearchKNN runs a $vectorSearch aggregation with an equality pre-filter.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	pipeline, err := buildPipeline(q)
	if err != nil {
		return nil, err
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}

	entries := make([]db.SearchEntry, 0, len(docs))
	for _, d := range docs {
		if e, ok := parseEntry(d); ok {
			entries = append(entries, e)
		}
	}
	return &db.SearchResult{Total: len(entries), Entries: entries}, nil
}

func buildPipeline(q *db.KNNQuery) (bson.A, error) {
	if q.IndexName == "" {
		return nil, errors.New("index name is required")
	}
	if q.VectorField == "" {
		return nil, errors.New("vector field is required")
	}
	if len(q.Vector) == 0 {
		return nil, errors.New("vector is required")
	}
	if q.K <= 0 {
		return nil, errors.New("k must be positive")
	}

	candidates := q.NumCandidates
	if candidates < q.K {
		candidates = q.K
	}

	search := bson.D{
		{Key: "index", Value: q.IndexName},
		{Key: "path", Value: q.VectorField},
	}
	if f := buildFilter(q.Filters); f != nil {
		search = append(search, bson.E{Key: "filter", Value: f})
	}
	search = append(search,
		bson.E{Key: "queryVector", Value: toFloat64s(q.Vector)},
		bson.E{Key: "numCandidates", Value: candidates},
		bson.E{Key: "limit", Value: q.K},
	)

	// _id несёт ключ документа, см. toBSON.
	project := bson.D{{Key: "_id", Value: 1}}
	for _, f := range q.ReturnFields {
		project = append(project, bson.E{Key: f, Value: 1})
	}
	project = append(project, bson.E{Key: scoreField, Value: 1})

	return bson.A{
		bson.D{{Key: "$vectorSearch", Value: search}},
		bson.D{{Key: "$addFields", Value: bson.D{
			{Key: scoreField, Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
		bson.D{{Key: "$project", Value: project}},
	}, nil
}

// buildFilter translates filter.Expression into a $vectorSearch filter document.
func buildFilter(expr filter.Expression) bson.D {
	if expr.IsEmpty() {
		return nil
	}
	conds := make(bson.A, 0, len(expr.Must()))
	for _, c := range expr.Must() {
		conds = append(conds, bson.D{{Key: c.Key(), Value: bson.D{{Key: "$eq", Value: c.Match()}}}})
	}
	if len(conds) == 1 {
		return conds[0].(bson.D)
	}
	return bson.D{{Key: "$and", Value: conds}}
}

// cosineFromAtlas maps the Atlas cosine score (1 + cos) / 2 back to cosine similarity.
func cosineFromAtlas(score float64) float64 {
	return 2*score - 1
}

func parseEntry(d bson.M) (db.SearchEntry, bool) {
	raw, ok := d[scoreField]
	if !ok {
		return db.SearchEntry{}, false
	}
	score, ok := toFloat(raw)
	if !ok {
		return db.SearchEntry{}, false
	}

	key, _ := d["_id"].(string)
	fields := make(map[string]string, len(d))
	for k, v := range d {
		if k == scoreField || k == "_id" {
			continue
		}
		if s, ok := v.(string); ok {
			fields[k] = s
		} else {
			fields[k] = fmt.Sprint(v)
		}
	}

	return db.SearchEntry{Key: key, Score: cosineFromAtlas(score), Fields: fields}, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
