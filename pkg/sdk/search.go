package vpsearch

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/vpsearch/internal/domain/search/request"
	"github.com/kailas-cloud/vpsearch/internal/domain/search/result"
)

// SearchVPRoles finds people whose normalized role is the client's filter role,
// ranked by closeness to "Vice President of <department>".
func (c *Client) SearchVPRoles(ctx context.Context, department string) (*SearchResponse, error) {
	return c.SearchDepartment(ctx, c.filterRole, department, c.candidateLimit)
}

// SearchDepartment is SearchVPRoles with an explicit filter role and limit.
func (c *Client) SearchDepartment(
	ctx context.Context, filterRole, department string, limit int,
) (resp *SearchResponse, err error) {
	start := time.Now()
	defer func() { c.obs.observeSearch("search_department", start, resp, err) }()

	out, err := c.searchSvc.SearchDepartment(ctx, filterRole, department, limit)
	if err != nil {
		return nil, fmt.Errorf("search department: %w", err)
	}
	return toSearchResponse(out), nil
}

// Search runs a raw vector query. The vector must belong to the client's embedding space.
func (c *Client) Search(ctx context.Context, q Query) (resp *SearchResponse, err error) {
	start := time.Now()
	defer func() { c.obs.observeSearch("search", start, resp, err) }()

	filterRole := q.FilterRole
	if filterRole == "" {
		filterRole = c.filterRole
	}
	limit := q.Limit
	if limit == 0 {
		limit = c.candidateLimit
	}
	numCandidates := q.NumCandidates
	if numCandidates == 0 && c.numCandidates > limit {
		numCandidates = c.numCandidates
	}

	req, err := request.New(filterRole, q.Vector, limit, numCandidates)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	out, err := c.searchSvc.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return toSearchResponse(out), nil
}

func toSearchResponse(out result.Outcome) *SearchResponse {
	resp := &SearchResponse{
		Status:       Status(out.Status),
		Results:      make([]Result, 0, len(out.Results)),
		AverageScore: out.AverageScore(),
		Err:          out.Err,
	}
	for _, r := range out.Results {
		resp.Results = append(resp.Results, Result{
			Name:  r.Name(),
			Role:  r.Role(),
			Score: r.Score(),
			Band:  Band(r.Band()),
		})
	}
	return resp
}
