package query

import (
	"strings"

	"github.com/kailas-cloud/vpsearch/internal/domain"
)

// MaxLength is the maximum derived text length.
const MaxLength = 4096

// Query is the caller's department and the text derived from it for embedding.
type Query struct {
	department string
	text       string
}

// New derives "<rolePrefix> <department>". Surrounding whitespace is trimmed.
func New(rolePrefix, department string) (Query, error) {
	department = strings.TrimSpace(department)
	if department == "" {
		return Query{}, domain.InvalidArgument("department is required")
	}
	text := department
	if p := strings.TrimSpace(rolePrefix); p != "" {
		text = p + " " + department
	}
	if len(text) > MaxLength {
		return Query{}, domain.InvalidArgument("query too long (max %d chars)", MaxLength)
	}
	return Query{department: department, text: text}, nil
}

// Department returns the trimmed department name.
func (q Query) Department() string { return q.department }

// Text returns the derived text sent to the embedding provider.
func (q Query) Text() string { return q.text }
