package testutil

// FixedRunID is the run ID FixedRunIDGenerator uses when given none.
const FixedRunID = "00000000-0000-7000-8000-000000000001"

// FixedRunIDGenerator returns the same run ID every time.
//
// Persisted runs then carry a predictable ID, so stored output can be
// compared byte for byte across test runs.
//
// Thread-safety: FixedRunIDGenerator is stateless and safe for concurrent use.
type FixedRunIDGenerator struct {
	id string
}

// NewFixedRunIDGenerator creates a generator for id. An empty id selects
// FixedRunID.
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = FixedRunID
	}
	return &FixedRunIDGenerator{id: id}
}

// NewRunID returns the fixed ID.
func (g *FixedRunIDGenerator) NewRunID() string {
	return g.id
}
