package result

// Status of a completed search.
type Status string

// Search statuses.
const (
	StatusOK     Status = "ok"
	StatusFailed Status = "failed"
)

// Outcome tells "no matches" apart from "index failed". A failed outcome carries
// no results and the cause.
type Outcome struct {
	Status  Status
	Results []Result
	Err     error
}

// Succeeded creates an ok outcome. A nil slice becomes empty.
func Succeeded(results []Result) Outcome {
	if results == nil {
		results = []Result{}
	}
	return Outcome{Status: StatusOK, Results: results}
}

// Failed creates a failed outcome.
func Failed(err error) Outcome {
	return Outcome{Status: StatusFailed, Results: []Result{}, Err: err}
}

// OK reports whether the search completed.
func (o Outcome) OK() bool { return o.Status == StatusOK }

// Empty reports whether the search completed without matches.
func (o Outcome) Empty() bool { return o.OK() && len(o.Results) == 0 }

// AverageScore returns the mean score of the results.
func (o Outcome) AverageScore() float64 { return AverageScore(o.Results) }
