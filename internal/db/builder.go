package db

import (
	"fmt"
	"strings"
)

// VectorSpec describes the vector field of a person index.
// M, EFConstruct and EFRuntime apply to HNSW only; zero keeps the backend default.
type VectorSpec struct {
	Algorithm   VectorAlgorithm
	Dim         int
	Distance    DistanceMetric
	M           int
	EFConstruct int
	EFRuntime   int
}

// ParseVectorAlgorithm maps a config value to an algorithm. Empty means HNSW.
func ParseVectorAlgorithm(s string) (VectorAlgorithm, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(VectorHNSW):
		return VectorHNSW, nil
	case string(VectorFlat):
		return VectorFlat, nil
	default:
		return "", fmt.Errorf("unknown vector algorithm %q (want hnsw or flat)", s)
	}
}

// IndexBuilder assembles an index over hashes: exact-match filters plus one vector field.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts an index definition covering keys with the given prefixes.
func NewIndex(name string, prefixes ...string) *IndexBuilder {
	b := &IndexBuilder{def: IndexDefinition{Name: name, StorageType: StorageHash}}
	for _, p := range prefixes {
		if p != "" {
			b.def.Prefixes = append(b.def.Prefixes, p)
		}
	}
	return b
}

// Filters adds case-sensitive tag fields used as equality pre-filters.
func (b *IndexBuilder) Filters(names ...string) *IndexBuilder {
	for _, name := range names {
		b.def.Fields = append(b.def.Fields, IndexField{
			Name:             name,
			Type:             IndexFieldTag,
			TagCaseSensitive: true,
		})
	}
	return b
}

// Vector adds the vector field. HNSW tuning is dropped for FLAT.
func (b *IndexBuilder) Vector(name string, spec VectorSpec) *IndexBuilder {
	f := IndexField{
		Name:           name,
		Type:           IndexFieldVector,
		VectorAlgo:     spec.Algorithm,
		VectorDim:      spec.Dim,
		VectorDistance: spec.Distance,
	}
	if f.VectorAlgo == "" {
		f.VectorAlgo = VectorHNSW
	}
	if f.VectorDistance == "" {
		f.VectorDistance = DistanceCosine
	}
	if f.VectorAlgo == VectorHNSW {
		f.VectorM = spec.M
		f.VectorEFConstruct = spec.EFConstruct
		f.VectorEFRuntime = spec.EFRuntime
	}
	b.def.Fields = append(b.def.Fields, f)
	return b
}

// Build validates the definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	def := b.def
	return &def, nil
}

// String summarizes the definition for `vpsearch index info`, e.g.
//
//	vector_index on HASH [vpsearch:person:] filters=normalizedRole,embeddingModel vector=roleVector HNSW dim=1536 COSINE m=16 ef_construction=200
func (idx *IndexDefinition) String() string {
	var sb strings.Builder
	sb.WriteString(idx.Name)
	if idx.StorageType != "" {
		sb.WriteString(" on " + string(idx.StorageType))
	}
	if len(idx.Prefixes) > 0 {
		sb.WriteString(" [" + strings.Join(idx.Prefixes, " ") + "]")
	}

	var filters []string
	for i := range idx.Fields {
		if idx.Fields[i].Type == IndexFieldTag {
			filters = append(filters, idx.Fields[i].Name)
		}
	}
	if len(filters) > 0 {
		sb.WriteString(" filters=" + strings.Join(filters, ","))
	}

	if v := idx.VectorField(); v != nil {
		fmt.Fprintf(&sb, " vector=%s %s dim=%d %s", v.Name, v.VectorAlgo, v.VectorDim, v.VectorDistance)
		for _, p := range []struct {
			name string
			val  int
		}{{"m", v.VectorM}, {"ef_construction", v.VectorEFConstruct}, {"ef_runtime", v.VectorEFRuntime}} {
			if p.val > 0 {
				fmt.Fprintf(&sb, " %s=%d", p.name, p.val)
			}
		}
	}
	return sb.String()
}
