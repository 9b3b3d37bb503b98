package types

// RetrievalStatus tells a caller whether a similarity search produced context.
// RetrievalNoMatch and RetrievalFailed both carry no results but are reported
// separately so provider outages stay visible.
type RetrievalStatus string

const (
	RetrievalMatched RetrievalStatus = "matched"
	RetrievalNoMatch RetrievalStatus = "no_match"
	RetrievalFailed  RetrievalStatus = "failed"
)

// IsValid checks if the status is valid
func (s RetrievalStatus) IsValid() bool {
	switch s {
	case RetrievalMatched,
		RetrievalNoMatch,
		RetrievalFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of the status
func (s RetrievalStatus) String() string {
	return string(s)
}
