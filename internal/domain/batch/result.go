package batch

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of processing one item in a batch ingest.
// Line is 1-based; 0 means the item did not come from a line-oriented source.
type Result struct {
	line   int
	id     string
	status ItemStatus
	err    error
}

// NewOK creates a successful batch result.
func NewOK(line int, id string) Result { return Result{line: line, id: id, status: StatusOK} }

// NewError creates a failed batch result.
func NewError(line int, err error) Result { return Result{line: line, status: StatusError, err: err} }

// Line returns the source line number.
func (r Result) Line() int { return r.line }

// ID returns the stored record identifier.
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Summary counts outcomes.
type Summary struct {
	OK     int
	Failed int
}

// Summarize counts ok and failed items.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		if r.status == StatusOK {
			s.OK++
		} else {
			s.Failed++
		}
	}
	return s
}
