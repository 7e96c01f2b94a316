package result

// Hit is a raw index match before projection. It keeps the fields needed
// to verify the pre-filter; only Name, Role and Score reach the caller.
type Hit struct {
	Key            string
	Name           string
	Role           string
	NormalizedRole string
	Model          string
	Score          float64
}

// Result projects the hit to the caller-visible shape.
func (h Hit) Result() Result {
	return New(h.Name, h.Role, h.Score)
}
