package domain

// UnknownLocation is the location ID reported when a scan is inconclusive.
const UnknownLocation = ""

// Location is a named node in the building graph.
type Location struct {
	NodeID string
	Name   string
}

// LocationEmbedding is one reference view of a node.
type LocationEmbedding struct {
	NodeID    string
	Embedding []float32
}

// ScanSample is one embedded frame taken during a 360° scan.
type ScanSample struct {
	Embedding   []float32
	Heading     float64
	TargetAngle float64
}

// LocationVote is the tally for a single candidate node.
type LocationVote struct {
	NodeID        string
	Votes         int
	AvgSimilarity float64
}

// LocalizationResult is the outcome of voting over a scan.
// An unknown result has an empty NodeID and zero confidence.
type LocalizationResult struct {
	NodeID     string
	Confidence float64
	Votes      int
	Samples    int
	Tally      []LocationVote
}

// IsUnknown returns true if no location was accepted.
func (r LocalizationResult) IsUnknown() bool {
	return r.NodeID == UnknownLocation
}
