package person

import (
	"github.com/kailas-cloud/vpsearch/internal/db"
	"github.com/kailas-cloud/vpsearch/internal/domain"
	"github.com/kailas-cloud/vpsearch/internal/domain/person"
)

func toDocument(key string, rec person.Record, f domain.FieldNames) *db.Document {
	fields := map[string]string{
		f.Name:           rec.Name(),
		f.Role:           rec.Role(),
		f.NormalizedRole: rec.NormalizedRole(),
	}
	if rec.Model() != "" {
		fields[f.EmbeddingModel] = rec.Model()
	}
	return &db.Document{
		Key:     key,
		Fields:  fields,
		Vectors: map[string][]float32{f.RoleVector: rec.Vector()},
	}
}
