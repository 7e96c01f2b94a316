package vpsearch

// Status tells a completed search apart from one the index could not serve.
type Status string

// Search statuses.
const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Band is a coarse quality label for a similarity score.
type Band string

// Score bands: excellent >= 0.8, good >= 0.6, fair below.
const (
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandFair      Band = "fair"
)

// Result is a single search hit.
type Result struct {
	Name  string
	Role  string
	Score float64 // cosine similarity, higher is closer
	Band  Band
}

// SearchResponse is the outcome of one search.
// Results are ordered by descending score; Err is set only when Status is StatusFailed.
type SearchResponse struct {
	Status       Status
	Results      []Result
	AverageScore float64
	Err          error
}

// Query is a raw vector search.
// Zero FilterRole, Limit and NumCandidates fall back to the client defaults.
type Query struct {
	FilterRole    string
	Vector        []float32
	Limit         int
	NumCandidates int
}

// Person is a record to ingest. RoleVector may be empty: the role is embedded then.
type Person struct {
	Name           string
	Role           string
	NormalizedRole string
	RoleVector     []float32
	EmbeddingModel string
}

// IngestResult is the outcome of one line of a bulk ingest.
type IngestResult struct {
	Line int
	ID   string
	Err  error
}
