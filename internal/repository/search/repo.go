package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/vpsearch/internal/db"
	"github.com/kailas-cloud/vpsearch/internal/domain"
	"github.com/kailas-cloud/vpsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/vpsearch/internal/domain/search/request"
	"github.com/kailas-cloud/vpsearch/internal/domain/search/result"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo implements usecase/search.Repository.
type Repo struct {
	store     store
	indexName string
	fields    domain.FieldNames
}

// New creates a search repository over one vector index.
func New(s store, indexName string, fields domain.FieldNames) *Repo {
	return &Repo{store: s, indexName: indexName, fields: fields.WithDefaults()}
}

// SearchKNN runs one filtered ANN query. Only documents whose normalized role equals
// the request's filter role (and, when model is set, whose embedding model equals model)
// are candidates.
func (r *Repo) SearchKNN(ctx context.Context, req request.Request, model string) ([]result.Hit, error) {
	filters, err := r.buildFilter(req.FilterRole(), model)
	if err != nil {
		return nil, fmt.Errorf("build filter: %w", err)
	}

	q := &db.KNNQuery{
		IndexName:     r.indexName,
		VectorField:   r.fields.RoleVector,
		Vector:        req.Vector(),
		Filters:       filters,
		K:             req.Limit(),
		NumCandidates: req.NumCandidates(),
		ReturnFields: []string{
			r.fields.Name,
			r.fields.Role,
			r.fields.NormalizedRole,
			r.fields.EmbeddingModel,
		},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", r.indexName, err)
	}

	return r.parseHits(sr), nil
}

func (r *Repo) buildFilter(role, model string) (filter.Expression, error) {
	roleCond, err := filter.NewMatch(r.fields.NormalizedRole, role)
	if err != nil {
		return filter.Expression{}, err
	}
	if model == "" {
		return filter.NewExpression(roleCond)
	}
	modelCond, err := filter.NewMatch(r.fields.EmbeddingModel, model)
	if err != nil {
		return filter.Expression{}, err
	}
	return filter.NewExpression(roleCond, modelCond)
}

// parseHits converts db.SearchResult into hits.
func (r *Repo) parseHits(sr *db.SearchResult) []result.Hit {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	hits := make([]result.Hit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		hits = append(hits, result.Hit{
			Key:            e.Key,
			Name:           e.Fields[r.fields.Name],
			Role:           e.Fields[r.fields.Role],
			NormalizedRole: e.Fields[r.fields.NormalizedRole],
			Model:          e.Fields[r.fields.EmbeddingModel],
			Score:          e.Score,
		})
	}
	return hits
}
