package jsa

import (
	"errors"
	"testing"
)

func TestClassifyBands(t *testing.T) {
	tests := []struct {
		score int
		want  RiskLevel
	}{
		{-3, RiskLow},
		{0, RiskLow},
		{1, RiskLow},
		{4, RiskLow},
		{5, RiskMedium},
		{9, RiskMedium},
		{10, RiskHigh},
		{14, RiskHigh},
		{15, RiskExtreme},
		{25, RiskExtreme},
		{100, RiskExtreme},
	}
	for _, tt := range tests {
		if got := Classify(tt.score); got != tt.want {
			t.Errorf("Classify(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestClassifyPartitionsRange(t *testing.T) {
	for s := -50; s <= 50; s++ {
		matches := 0
		if s >= 15 {
			matches++
		}
		if s >= 10 && s < 15 {
			matches++
		}
		if s >= 5 && s < 10 {
			matches++
		}
		if s < 5 {
			matches++
		}
		if matches != 1 {
			t.Fatalf("score %d falls in %d bands", s, matches)
		}
	}
}

func TestWithRecomputesScoreAndLevel(t *testing.T) {
	for l := MinFactor; l <= MaxFactor; l++ {
		for s := MinFactor; s <= MaxFactor; s++ {
			base, err := NewRiskScore(l, s)
			if err != nil {
				t.Fatalf("NewRiskScore(%d, %d): %v", l, s, err)
			}
			for v := MinFactor; v <= MaxFactor; v++ {
				got, err := base.With(FactorLikelihood, v)
				if err != nil {
					t.Fatalf("With: %v", err)
				}
				if got.Score != v*base.Severity || got.Level != Classify(got.Score) {
					t.Fatalf("With(likelihood, %d) on %+v = %+v", v, base, got)
				}
				if base.Likelihood != l {
					t.Fatal("receiver was mutated")
				}
			}
		}
	}
}

func TestRiskScenarioExtremeToMedium(t *testing.T) {
	risk, err := NewRiskScore(3, 5)
	if err != nil {
		t.Fatalf("NewRiskScore: %v", err)
	}
	if risk.Score != 15 || risk.Level != RiskExtreme {
		t.Fatalf("expected 15/EXTREME, got %+v", risk)
	}
	risk, err = risk.With(FactorSeverity, 2)
	if err != nil {
		t.Fatalf("With: %v", err)
	}
	if risk.Score != 6 || risk.Level != RiskMedium {
		t.Fatalf("expected 6/MEDIUM, got %+v", risk)
	}
}

func TestWithRejectsOutOfRange(t *testing.T) {
	risk, _ := NewRiskScore(2, 2)
	for _, v := range []int{0, 6, -1} {
		if _, err := risk.With(FactorSeverity, v); !errors.Is(err, ErrInvalidRiskInput) {
			t.Errorf("With(severity, %d) err = %v, want ErrInvalidRiskInput", v, err)
		}
	}
	if _, err := risk.With("impact", 3); !errors.Is(err, ErrInvalidRiskInput) {
		t.Errorf("unknown factor err = %v", err)
	}
}

func TestConsistent(t *testing.T) {
	risk, _ := NewRiskScore(4, 4)
	if !risk.Consistent() {
		t.Fatal("fresh score should be consistent")
	}
	stale := risk
	stale.Score = 12
	if stale.Consistent() {
		t.Fatal("stale score reported consistent")
	}
	if (RiskScore{}).Consistent() {
		t.Fatal("zero score reported consistent")
	}
}
