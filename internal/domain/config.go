package domain

// Defaults of the VP role pipeline.
const (
	DefaultModel          = "text-embedding-ada-002"
	DefaultDimensions     = 1536
	DefaultRolePrefix     = "Vice President"
	DefaultFilterRole     = "VP"
	DefaultCandidateLimit = 100
	DefaultIndexName      = "vector_index"
	DefaultKeyPrefix      = "vpsearch:"
)

// Field names shared by every index backend.
const (
	FieldName           = "name"
	FieldRole           = "role"
	FieldNormalizedRole = "normalizedRole"
	FieldEmbeddingModel = "embeddingModel"
	FieldRoleVector     = "roleVector"
)

// FieldNames maps record attributes to document field names in the index.
// Collections created by other tools may use different names (e.g. personName).
type FieldNames struct {
	Name           string
	Role           string
	NormalizedRole string
	EmbeddingModel string
	RoleVector     string
}

// DefaultFieldNames returns the field names used when the index is created by vpsearch.
func DefaultFieldNames() FieldNames {
	return FieldNames{
		Name:           FieldName,
		Role:           FieldRole,
		NormalizedRole: FieldNormalizedRole,
		EmbeddingModel: FieldEmbeddingModel,
		RoleVector:     FieldRoleVector,
	}
}

// WithDefaults fills empty names from DefaultFieldNames.
func (f FieldNames) WithDefaults() FieldNames {
	d := DefaultFieldNames()
	if f.Name == "" {
		f.Name = d.Name
	}
	if f.Role == "" {
		f.Role = d.Role
	}
	if f.NormalizedRole == "" {
		f.NormalizedRole = d.NormalizedRole
	}
	if f.EmbeddingModel == "" {
		f.EmbeddingModel = d.EmbeddingModel
	}
	if f.RoleVector == "" {
		f.RoleVector = d.RoleVector
	}
	return f
}

// DefaultSpace returns the text-embedding-ada-002 embedding space.
func DefaultSpace() Space {
	return Space{Model: DefaultModel, Dimensions: DefaultDimensions}
}
