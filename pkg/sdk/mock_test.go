package vpsearch

import (
	"context"
	"io"

	dombatch "github.com/kailas-cloud/vpsearch/internal/domain/batch"
	"github.com/kailas-cloud/vpsearch/internal/domain/person"
	"github.com/kailas-cloud/vpsearch/internal/domain/search/request"
	"github.com/kailas-cloud/vpsearch/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/vpsearch/internal/usecase/health"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	departmentFn func(ctx context.Context, filterRole, department string, limit int) (result.Outcome, error)
	searchFn     func(ctx context.Context, req request.Request) (result.Outcome, error)
}

func (m *mockSearchUC) SearchDepartment(
	ctx context.Context, filterRole, department string, limit int,
) (result.Outcome, error) {
	return m.departmentFn(ctx, filterRole, department, limit)
}

func (m *mockSearchUC) Search(ctx context.Context, req request.Request) (result.Outcome, error) {
	return m.searchFn(ctx, req)
}

// --- ingestUseCase mock ---

type mockIngestUC struct {
	storeFn         func(ctx context.Context, rec person.Record) (string, error)
	embedAndStoreFn func(ctx context.Context, name, role, normalizedRole string) (string, error)
	jsonlFn         func(ctx context.Context, r io.Reader, workers int) ([]dombatch.Result, error)
}

func (m *mockIngestUC) Store(ctx context.Context, rec person.Record) (string, error) {
	return m.storeFn(ctx, rec)
}

func (m *mockIngestUC) EmbedAndStore(ctx context.Context, name, role, normalizedRole string) (string, error) {
	return m.embedAndStoreFn(ctx, name, role, normalizedRole)
}

func (m *mockIngestUC) IngestJSONL(ctx context.Context, r io.Reader, workers int) ([]dombatch.Result, error) {
	return m.jsonlFn(ctx, r, workers)
}

// --- schemaUseCase mock ---

type mockSchema struct {
	ensureFn func(ctx context.Context) (bool, error)
	dropFn   func(ctx context.Context) error
}

func (m *mockSchema) Ensure(ctx context.Context) (bool, error) { return m.ensureFn(ctx) }

func (m *mockSchema) Drop(ctx context.Context) error { return m.dropFn(ctx) }

// --- healthUseCase mock ---

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

// --- Embedder mock ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

// --- helpers ---

func testClient(searchSvc searchUseCase, ingestSvc ingestUseCase) *Client {
	return &Client{
		searchSvc:      searchSvc,
		ingestSvc:      ingestSvc,
		filterRole:     "VP",
		candidateLimit: 100,
	}
}
