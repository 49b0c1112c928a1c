package scoring

// Label is a bucket for an averaged risk or impact score.
type Label string

const (
	LabelLow         Label = "LOW"
	LabelModerate    Label = "MODERATE"
	LabelMajor       Label = "MAJOR"
	LabelSignificant Label = "SIGNIFICANT"
	LabelCritical    Label = "CRITICAL"
)

const (
	thresholdLow      = 10.0
	thresholdModerate = 25.0
	thresholdHigh     = 50.0
)

func bucket(score float64, third Label) Label {
	switch {
	case score <= thresholdLow:
		return LabelLow
	case score <= thresholdModerate:
		return LabelModerate
	case score <= thresholdHigh:
		return third
	default:
		return LabelCritical
	}
}

// RiskLabel buckets averaged scores for the ticket risk report.
func RiskLabel(avg float64) Label { return bucket(avg, LabelMajor) }

// StabilityLabel buckets averaged risk for the app stability report.
func StabilityLabel(avg float64) Label { return bucket(avg, LabelSignificant) }

// Unstable reports whether a stability label marks the app as unstable.
func (l Label) Unstable() bool {
	return l == LabelSignificant || l == LabelCritical
}
