package person

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/vpsearch/internal/db"
	"github.com/kailas-cloud/vpsearch/internal/domain"
	"github.com/kailas-cloud/vpsearch/internal/domain/person"
)

// store is the consumer interface for person writes (ISP).
type store interface {
	Insert(ctx context.Context, doc *db.Document) error
}

// Repo implements usecase/ingest.Repository.
type Repo struct {
	store     store
	keyPrefix string
	fields    domain.FieldNames
	newID     func() string
}

// New creates a person repository. Keys are "<keyPrefix>person:<id>".
func New(s store, keyPrefix string, fields domain.FieldNames) *Repo {
	return &Repo{
		store:     s,
		keyPrefix: keyPrefix,
		fields:    fields.WithDefaults(),
		newID:     uuid.NewString,
	}
}

// KeyPrefix returns the prefix shared by all person keys; the index is created over it.
func (r *Repo) KeyPrefix() string {
	return r.keyPrefix + "person:"
}

// Insert stores the record under a fresh UUID unless it already carries an id.
func (r *Repo) Insert(ctx context.Context, rec person.Record) (person.Record, error) {
	if rec.ID() == "" {
		rec = rec.WithID(r.newID())
	}
	key := r.KeyPrefix() + rec.ID()

	if err := r.store.Insert(ctx, toDocument(key, rec, r.fields)); err != nil {
		return person.Record{}, fmt.Errorf("insert person %s: %w", rec.ID(), err)
	}
	return rec, nil
}
