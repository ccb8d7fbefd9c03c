package jsa

import "fmt"

// RiskLevel is the qualitative band of a risk score.
type RiskLevel string

const (
	RiskLow     RiskLevel = "LOW"
	RiskMedium  RiskLevel = "MEDIUM"
	RiskHigh    RiskLevel = "HIGH"
	RiskExtreme RiskLevel = "EXTREME"
)

// RiskFactor names one of the two ordinal inputs of a RiskScore.
type RiskFactor string

const (
	FactorLikelihood RiskFactor = "likelihood"
	FactorSeverity   RiskFactor = "severity"
)

const (
	MinFactor = 1
	MaxFactor = 5
)

// RiskScore is likelihood x severity with its derived band. Values are only
// built through NewRiskScore and With, so Score and Level never go stale.
type RiskScore struct {
	Likelihood int       `json:"likelihood"`
	Severity   int       `json:"severity"`
	Score      int       `json:"score"`
	Level      RiskLevel `json:"level"`
}

// Classify maps any integer score onto a band. Boundaries belong to the higher band.
func Classify(score int) RiskLevel {
	switch {
	case score >= 15:
		return RiskExtreme
	case score >= 10:
		return RiskHigh
	case score >= 5:
		return RiskMedium
	default:
		return RiskLow
	}
}

func NewRiskScore(likelihood, severity int) (RiskScore, error) {
	if err := checkFactor(FactorLikelihood, likelihood); err != nil {
		return RiskScore{}, err
	}
	if err := checkFactor(FactorSeverity, severity); err != nil {
		return RiskScore{}, err
	}
	score := likelihood * severity
	return RiskScore{
		Likelihood: likelihood,
		Severity:   severity,
		Score:      score,
		Level:      Classify(score),
	}, nil
}

// With replaces one factor and recomputes score and level. The receiver is not modified.
func (r RiskScore) With(factor RiskFactor, value int) (RiskScore, error) {
	switch factor {
	case FactorLikelihood:
		return NewRiskScore(value, r.Severity)
	case FactorSeverity:
		return NewRiskScore(r.Likelihood, value)
	default:
		return RiskScore{}, fmt.Errorf("%w: unknown factor %q", ErrInvalidRiskInput, factor)
	}
}

// Consistent reports whether the factors are in range and score/level match them.
func (r RiskScore) Consistent() bool {
	expected, err := NewRiskScore(r.Likelihood, r.Severity)
	if err != nil {
		return false
	}
	return expected == r
}

func checkFactor(factor RiskFactor, value int) error {
	if value < MinFactor || value > MaxFactor {
		return fmt.Errorf("%w: %s must be between %d and %d, got %d", ErrInvalidRiskInput, factor, MinFactor, MaxFactor, value)
	}
	return nil
}
