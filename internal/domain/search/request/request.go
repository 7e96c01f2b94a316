package request

import (
	"math"
	"strings"

	"github.com/kailas-cloud/vpsearch/internal/domain"
)

// Search parameter limits.
const (
	// MaxLimit is the largest candidate batch a single search may return.
	MaxLimit = 10000
	// MaxNumCandidates bounds the ANN candidate pool (Atlas allows up to 10000).
	MaxNumCandidates = 10000
)

// Request is a validated ANN search over one filter role.
type Request struct {
	filterRole    string
	vector        []float32
	limit         int
	numCandidates int
}

// New validates search parameters. numCandidates of 0 means "same as limit".
func New(filterRole string, vector []float32, limit, numCandidates int) (Request, error) {
	if strings.TrimSpace(filterRole) == "" {
		return Request{}, domain.InvalidArgument("filter role is required")
	}
	if len(vector) == 0 {
		return Request{}, domain.InvalidArgument("query vector is required")
	}
	for i, v := range vector {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return Request{}, domain.InvalidArgument("query vector[%d] is not a finite number", i)
		}
	}
	if limit <= 0 {
		return Request{}, domain.InvalidArgument("limit must be positive, got %d", limit)
	}
	if limit > MaxLimit {
		return Request{}, domain.InvalidArgument("limit too large (max %d)", MaxLimit)
	}
	if numCandidates < 0 {
		return Request{}, domain.InvalidArgument("num_candidates must not be negative, got %d", numCandidates)
	}
	if numCandidates == 0 {
		numCandidates = limit
	}
	if numCandidates < limit {
		return Request{}, domain.InvalidArgument("num_candidates (%d) must be >= limit (%d)", numCandidates, limit)
	}
	if numCandidates > MaxNumCandidates {
		return Request{}, domain.InvalidArgument("num_candidates too large (max %d)", MaxNumCandidates)
	}

	return Request{
		filterRole:    filterRole,
		vector:        vector,
		limit:         limit,
		numCandidates: numCandidates,
	}, nil
}

// FilterRole returns the normalized role every result must carry.
func (r Request) FilterRole() string { return r.filterRole }

// Vector returns the query embedding.
func (r Request) Vector() []float32 { return r.vector }

// Limit returns the maximum number of results.
func (r Request) Limit() int { return r.limit }

// NumCandidates returns the ANN candidate pool size.
func (r Request) NumCandidates() int { return r.numCandidates }
