package domain

// AnomalyLevel classifies how far current conditions deviate from the
// historical baseline, in population standard deviations.
type AnomalyLevel int

const (
	AnomalyNormal AnomalyLevel = iota
	AnomalyModerate
	AnomalyHigh
	AnomalyExtreme
)

// LevelForNormalizedAnomaly buckets a |anomaly|/stddev value using strict
// comparisons: exactly 1.0 is still normal, exactly 2.0 still moderate,
// exactly 3.0 still high.
func LevelForNormalizedAnomaly(normalized float64) AnomalyLevel {
	switch {
	case normalized > 3:
		return AnomalyExtreme
	case normalized > 2:
		return AnomalyHigh
	case normalized > 1:
		return AnomalyModerate
	default:
		return AnomalyNormal
	}
}

// MaxAnomalyLevel returns the most severe of the given levels.
func MaxAnomalyLevel(levels ...AnomalyLevel) AnomalyLevel {
	max := AnomalyNormal
	for _, l := range levels {
		if l > max {
			max = l
		}
	}
	return max
}

func (l AnomalyLevel) String() string {
	switch l {
	case AnomalyModerate:
		return "moderate"
	case AnomalyHigh:
		return "high"
	case AnomalyExtreme:
		return "extreme"
	default:
		return "normal"
	}
}

// MarshalJSON renders the level as its lowercase name.
func (l AnomalyLevel) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.String() + `"`), nil
}

// ConfidencePenalty is the adjustment fusion applies to the validator
// confidence for this anomaly level.
func (l AnomalyLevel) ConfidencePenalty() int {
	switch l {
	case AnomalyModerate:
		return -5
	case AnomalyHigh:
		return -10
	case AnomalyExtreme:
		return -15
	default:
		return 0
	}
}

// RiskFactor is the multiplier the scoring engine applies to the weighted
// factor sum for this anomaly level.
func (l AnomalyLevel) RiskFactor() float64 {
	switch l {
	case AnomalyModerate:
		return 1.05
	case AnomalyHigh:
		return 1.15
	case AnomalyExtreme:
		return 1.20
	default:
		return 1.00
	}
}

// WarningBonus is the score bonus the pattern matcher adds when deriving the
// effective risk score. A catalog match adds a further 5 on top.
func (l AnomalyLevel) WarningBonus() int {
	return int(l) * 5
}

// WarningLevel is the qualitative alert bucket derived from the effective
// risk score.
type WarningLevel string

const (
	WarningInfo     WarningLevel = "info"
	WarningWatch    WarningLevel = "watch"
	WarningAdvisory WarningLevel = "advisory"
	WarningAlert    WarningLevel = "warning"
)
