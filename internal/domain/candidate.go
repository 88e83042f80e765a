package domain

// Candidate is one selectable entry on the board. Immutable once fetched;
// both players' views share the same catalog list for a region.
type Candidate struct {
	ID    int      `json:"id"`
	Name  string   `json:"name"`
	Types []string `json:"types"` // one or two type tags
	Image string   `json:"image"`
}

// HasType reports whether the candidate carries the given type tag.
func (c Candidate) HasType(t string) bool {
	for _, ct := range c.Types {
		if ct == t {
			return true
		}
	}
	return false
}
