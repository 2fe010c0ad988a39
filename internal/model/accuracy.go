package model

// Outcome classifies a single claim against the ground truth.
type Outcome int

// Confusion-matrix outcomes.
const (
	TrueNegative Outcome = iota
	FalseNegative
	FalsePositive
	TruePositive
)

// outcomes is indexed by [claim][truth].
var outcomes = [2][2]Outcome{
	{TrueNegative, FalseNegative},
	{FalsePositive, TruePositive},
}

// Classify maps a claim and the ground truth to an Outcome.
func Classify(claim, truth bool) Outcome {
	return outcomes[boolIndex(claim)][boolIndex(truth)]
}

func boolIndex(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (o Outcome) String() string {
	switch o {
	case TruePositive:
		return "hit"
	case FalsePositive:
		return "false alarm"
	case FalseNegative:
		return "miss"
	case TrueNegative:
		return "correct rejection"
	default:
		return "unknown"
	}
}

// AccuracyStats is a per-modality confusion-matrix counter.
type AccuracyStats struct {
	TruePositives  uint32 `json:"true_positives"`
	TrueNegatives  uint32 `json:"true_negatives"`
	FalsePositives uint32 `json:"false_positives"`
	FalseNegatives uint32 `json:"false_negatives"`
}

// Record counts one claim and returns its outcome.
func (a *AccuracyStats) Record(claim, truth bool) Outcome {
	outcome := Classify(claim, truth)
	switch outcome {
	case TruePositive:
		a.TruePositives++
	case FalsePositive:
		a.FalsePositives++
	case FalseNegative:
		a.FalseNegatives++
	case TrueNegative:
		a.TrueNegatives++
	}
	return outcome
}

// Total returns the number of recorded claims.
func (a AccuracyStats) Total() int {
	return int(a.TruePositives) + int(a.TrueNegatives) + int(a.FalsePositives) + int(a.FalseNegatives)
}

// HitRate is TP / (TP + FN), or 1 when no match trials occurred.
func (a AccuracyStats) HitRate() float64 {
	den := a.TruePositives + a.FalseNegatives
	if den == 0 {
		return 1.0
	}
	return float64(a.TruePositives) / float64(den)
}

// FalseAlarmRate is FP / (FP + TN), or 0 when no non-match trials occurred.
func (a AccuracyStats) FalseAlarmRate() float64 {
	den := a.FalsePositives + a.TrueNegatives
	if den == 0 {
		return 0.0
	}
	return float64(a.FalsePositives) / float64(den)
}

// Specificity is TN / (TN + FP), or 1 when no non-match trials occurred.
func (a AccuracyStats) Specificity() float64 {
	den := a.TrueNegatives + a.FalsePositives
	if den == 0 {
		return 1.0
	}
	return float64(a.TrueNegatives) / float64(den)
}

// Accuracy is the mean of hit rate and specificity.
func (a AccuracyStats) Accuracy() float64 {
	return (a.HitRate() + a.Specificity()) / 2
}

// Add returns the element-wise sum of two counters.
func (a AccuracyStats) Add(b AccuracyStats) AccuracyStats {
	return AccuracyStats{
		TruePositives:  a.TruePositives + b.TruePositives,
		TrueNegatives:  a.TrueNegatives + b.TrueNegatives,
		FalsePositives: a.FalsePositives + b.FalsePositives,
		FalseNegatives: a.FalseNegatives + b.FalseNegatives,
	}
}
