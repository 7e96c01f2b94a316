package chi

// ErrorCode is a machine-readable error code in API responses.
type ErrorCode string

// API error codes.
const (
	CodeBadRequest          ErrorCode = "bad_request"
	CodeInvalidArgument     ErrorCode = "invalid_argument"
	CodeSpaceMismatch       ErrorCode = "embedding_space_mismatch"
	CodeUnauthorized        ErrorCode = "unauthorized"
	CodeEmbeddingUnavailable ErrorCode = "embedding_unavailable"
	CodeIndexUnavailable    ErrorCode = "index_unavailable"
	CodeConfiguration       ErrorCode = "configuration_error"
	CodeInternal            ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchRequest is the body of POST /v1/search.
// Either Department or Vector must be set; Vector wins when both are.
type SearchRequest struct {
	FilterRole    string    `json:"filter_role,omitempty"`
	Department    string    `json:"department,omitempty"`
	Vector        []float32 `json:"vector,omitempty"`
	Limit         *int      `json:"limit,omitempty"`
	NumCandidates *int      `json:"num_candidates,omitempty"`
}

// ResultItem is one ranked match.
type ResultItem struct {
	Name  string  `json:"name"`
	Role  string  `json:"role"`
	Score float64 `json:"score"`
	Band  string  `json:"band"`
}

// SearchResponse distinguishes an index failure (status "failed") from zero matches.
type SearchResponse struct {
	Status       string       `json:"status"`
	Results      []ResultItem `json:"results"`
	Count        int          `json:"count"`
	AverageScore float64      `json:"average_score"`
	Error        string       `json:"error,omitempty"`
}

// PersonRequest is the body of POST /v1/people. Without role_vector the role is embedded.
type PersonRequest struct {
	Name           string    `json:"name"`
	Role           string    `json:"role"`
	NormalizedRole string    `json:"normalized_role"`
	RoleVector     []float32 `json:"role_vector,omitempty"`
	EmbeddingModel string    `json:"embedding_model,omitempty"`
}

// PersonResponse is returned after a successful ingest.
type PersonResponse struct {
	ID string `json:"id"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
