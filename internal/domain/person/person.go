package person

import (
	"fmt"
	"math"
	"strings"

	"github.com/kailas-cloud/vpsearch/internal/domain"
)

// MaxFieldLength is the maximum length of name, role and normalized role.
const MaxFieldLength = 1024

// Record is a person stored in the vector index (immutable value object).
type Record struct {
	id             string
	name           string
	role           string
	normalizedRole string
	vector         []float32
	model          string
}

// New validates and creates a Record. The id is assigned by the ingestion path.
func New(name, role, normalizedRole string, vector []float32, model string) (Record, error) {
	if err := ValidateFields(name, role, normalizedRole); err != nil {
		return Record{}, err
	}
	if len(vector) == 0 {
		return Record{}, domain.InvalidArgument("roleVector is required")
	}
	for i, v := range vector {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return Record{}, domain.InvalidArgument("roleVector[%d] is not a finite number", i)
		}
	}

	vec := make([]float32, len(vector))
	copy(vec, vector)

	return Record{
		name:           name,
		role:           role,
		normalizedRole: normalizedRole,
		vector:         vec,
		model:          model,
	}, nil
}

// ValidateFields checks the text fields of a record before its vector exists.
func ValidateFields(name, role, normalizedRole string) error {
	if err := requireField("name", name); err != nil {
		return err
	}
	if err := requireField("role", role); err != nil {
		return err
	}
	return requireField("normalizedRole", normalizedRole)
}

func requireField(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.InvalidArgument("%s is required", field)
	}
	if len(value) > MaxFieldLength {
		return domain.InvalidArgument("%s too long (max %d)", field, MaxFieldLength)
	}
	return nil
}

// Reconstruct creates a Record without validation (storage hydration).
func Reconstruct(id, name, role, normalizedRole string, vector []float32, model string) Record {
	return Record{
		id: id, name: name, role: role, normalizedRole: normalizedRole,
		vector: vector, model: model,
	}
}

// WithID returns a copy of the record carrying id.
func (r Record) WithID(id string) Record {
	r.id = id
	return r
}

// ID returns the record identifier.
func (r Record) ID() string { return r.id }

// Name returns the person's display name.
func (r Record) Name() string { return r.name }

// Role returns the free-text job title.
func (r Record) Role() string { return r.role }

// NormalizedRole returns the canonical role category used for pre-filtering.
func (r Record) NormalizedRole() string { return r.normalizedRole }

// Vector returns the role embedding.
func (r Record) Vector() []float32 { return r.vector }

// Model returns the embedding model that produced the vector.
func (r Record) Model() string { return r.model }

// String is used in logs; the vector is omitted.
func (r Record) String() string {
	return fmt.Sprintf("person{id=%s name=%q role=%q normalizedRole=%q model=%s dims=%d}",
		r.id, r.name, r.role, r.normalizedRole, r.model, len(r.vector))
}
