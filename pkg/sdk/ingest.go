package vpsearch

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kailas-cloud/vpsearch/internal/domain/person"
)

// Ingest stores one person record and returns its id.
// A record without RoleVector has its Role embedded first.
func (c *Client) Ingest(ctx context.Context, p Person) (id string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ingest", start, err) }()

	if len(p.RoleVector) == 0 {
		id, err = c.ingestSvc.EmbedAndStore(ctx, p.Name, p.Role, p.NormalizedRole)
		if err != nil {
			return "", fmt.Errorf("ingest: %w", err)
		}
		return id, nil
	}

	rec, err := person.New(p.Name, p.Role, p.NormalizedRole, p.RoleVector, p.EmbeddingModel)
	if err != nil {
		return "", fmt.Errorf("ingest: %w", err)
	}
	id, err = c.ingestSvc.Store(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("ingest: %w", err)
	}
	return id, nil
}

// IngestJSONL loads newline-delimited JSON person records from r with the given concurrency.
// Per-line failures are reported in the results; the error is set only when r cannot be read.
func (c *Client) IngestJSONL(ctx context.Context, r io.Reader, workers int) (results []IngestResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ingest_jsonl", start, err) }()

	res, err := c.ingestSvc.IngestJSONL(ctx, r, workers)
	if err != nil {
		return nil, fmt.Errorf("ingest jsonl: %w", err)
	}
	results = make([]IngestResult, 0, len(res))
	for _, item := range res {
		results = append(results, IngestResult{Line: item.Line(), ID: item.ID(), Err: item.Err()})
	}
	return results, nil
}
