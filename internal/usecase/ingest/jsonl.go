package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/vpsearch/internal/domain"
	"github.com/kailas-cloud/vpsearch/internal/domain/batch"
	"github.com/kailas-cloud/vpsearch/internal/domain/person"
)

// DefaultWorkers is the bulk ingest concurrency when none is given.
const DefaultWorkers = 4

// maxLineBytes fits a 4096-dim vector written as JSON text.
const maxLineBytes = 1 << 20

// Line is one newline-delimited JSON person record.
type Line struct {
	Name           string    `json:"name"`
	Role           string    `json:"role"`
	NormalizedRole string    `json:"normalizedRole"`
	RoleVector     []float32 `json:"roleVector,omitempty"`
	EmbeddingModel string    `json:"embeddingModel,omitempty"`
}

// IngestJSONL loads person records from r, one JSON object per line.
// Records without roleVector are embedded first. Every non-blank line yields
// exactly one result, ordered by line number. The error is non-nil only when r
// itself could not be read.
func (s *Service) IngestJSONL(ctx context.Context, r io.Reader, workers int) ([]batch.Result, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	var (
		mu      sync.Mutex
		results []batch.Result
		g       errgroup.Group
	)
	g.SetLimit(workers)

	add := func(res batch.Result) {
		mu.Lock()
		results = append(results, res)
		mu.Unlock()
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		n := lineNo
		g.Go(func() error {
			add(s.ingestLine(ctx, n, raw))
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Line() < results[j].Line() })

	if err := sc.Err(); err != nil {
		return results, fmt.Errorf("read line %d: %w", lineNo+1, err)
	}
	return results, nil
}

func (s *Service) ingestLine(ctx context.Context, n int, raw string) batch.Result {
	if err := ctx.Err(); err != nil {
		return batch.NewError(n, fmt.Errorf("canceled: %w", err))
	}

	var ln Line
	if err := json.Unmarshal([]byte(raw), &ln); err != nil {
		return batch.NewError(n, domain.InvalidArgument("malformed record: %v", err))
	}

	var (
		id  string
		err error
	)
	if len(ln.RoleVector) == 0 {
		id, err = s.EmbedAndStore(ctx, ln.Name, ln.Role, ln.NormalizedRole)
	} else {
		var rec person.Record
		rec, err = person.New(ln.Name, ln.Role, ln.NormalizedRole, ln.RoleVector, ln.EmbeddingModel)
		if err == nil {
			id, err = s.Store(ctx, rec)
		}
	}
	if err != nil {
		return batch.NewError(n, err)
	}
	return batch.NewOK(n, id)
}
