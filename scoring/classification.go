package scoring

// Classification is a confidence bucket.
type Classification string

const (
	Confirmed Classification = "confirmed"
	Likely    Classification = "likely"
	Uncertain Classification = "uncertain"
	Unlikely  Classification = "unlikely"
	Rejected  Classification = "rejected"
)

// Bucket thresholds. A score belongs to the first bucket whose threshold it
// reaches.
const (
	ConfirmedThreshold = 0.85
	LikelyThreshold    = 0.70
	UncertainThreshold = 0.50
	UnlikelyThreshold  = 0.30

	// RejectThreshold is the score below which a finding is rejected outright
	// regardless of bucket.
	RejectThreshold = 0.15
)

// Classify maps a score to its bucket.
func Classify(score float64) Classification {
	switch {
	case score >= ConfirmedThreshold:
		return Confirmed
	case score >= LikelyThreshold:
		return Likely
	case score >= UncertainThreshold:
		return Uncertain
	case score >= UnlikelyThreshold:
		return Unlikely
	default:
		return Rejected
	}
}

func (c Classification) String() string { return string(c) }
