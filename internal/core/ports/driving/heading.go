package driving

// HeadingSource provides the latest compass reading.
type HeadingSource interface {
	// Heading returns the current heading in [0, 360) and false
	// if no reading has arrived yet.
	Heading() (float64, bool)
}
