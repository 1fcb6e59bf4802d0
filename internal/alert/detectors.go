package alert

import (
	"fmt"
	"math"
	"time"

	"homewatch/internal/rules"
)

const defaultEpsilon = 1e-9

const (
	statusOK        = "OK"
	statusViolation = "VIOLATION"
)

// DetectorResult is the outcome of running one detector against one
// channel for one cycle.
type DetectorResult struct {
	Hit       bool
	Status    string
	Severity  string
	Observed  string
	LimitExpr string
	Score     *float64
}

func statusFromHit(hit bool) string {
	if hit {
		return statusViolation
	}
	return statusOK
}

func EvaluateThreshold(spec rules.ThresholdSpec, value float64) DetectorResult {
	hit, observed, expr := evaluateCondition(spec, value)
	return DetectorResult{
		Hit:       hit,
		Status:    statusFromHit(hit),
		Severity:  "high",
		Observed:  observed,
		LimitExpr: expr,
	}
}

func evaluateCondition(spec rules.ThresholdSpec, value float64) (bool, string, string) {
	observed := fmt.Sprint(value)
	switch spec.Op {
	case ">":
		return value > spec.Value, observed, fmt.Sprintf("> %v", spec.Value)
	case ">=":
		return value >= spec.Value, observed, fmt.Sprintf(">= %v", spec.Value)
	case "<":
		return value < spec.Value, observed, fmt.Sprintf("< %v", spec.Value)
	case "<=":
		return value <= spec.Value, observed, fmt.Sprintf("<= %v", spec.Value)
	case "==":
		return value == spec.Value, observed, fmt.Sprintf("== %v", spec.Value)
	case "!=":
		return value != spec.Value, observed, fmt.Sprintf("!= %v", spec.Value)
	case "between":
		if spec.Min == nil || spec.Max == nil {
			return false, observed, "between"
		}
		hit := value < *spec.Min || value > *spec.Max
		return hit, observed, fmt.Sprintf("outside %v..%v", *spec.Min, *spec.Max)
	default:
		return false, observed, spec.Op
	}
}

// EvaluateRobustZ scores the latest sample against the window median
// using the MAD-based robust z-score.
func EvaluateRobustZ(samples []float64, latest float64, zWarn, zCrit float64) DetectorResult {
	median := Median(samples)
	mad := MAD(samples, median)
	result := DetectorResult{
		Hit:       false,
		Status:    statusOK,
		Observed:  fmt.Sprint(latest),
		LimitExpr: fmt.Sprintf("robust_zscore warn>=%.2f crit>=%.2f", zWarn, zCrit),
	}
	if mad == 0 {
		if math.Abs(latest-median) <= defaultEpsilon {
			return result
		}
		score := math.Inf(1)
		result.Score = &score
		result.Hit = true
		result.Status = statusViolation
		result.Severity = "high"
		return result
	}
	score := 0.6745 * (latest - median) / mad
	absScore := math.Abs(score)
	result.Score = &score
	if absScore >= zCrit {
		result.Hit = true
		result.Status = statusViolation
		result.Severity = "high"
	} else if absScore >= zWarn {
		result.Hit = true
		result.Status = statusViolation
		result.Severity = "medium"
	}
	return result
}

// EvaluateMissingData flags a channel whose last good sample is older
// than the configured gap.
func EvaluateMissingData(lastSeen time.Time, maxGapSeconds int, now time.Time) DetectorResult {
	gap := now.Sub(lastSeen)
	limit := time.Duration(maxGapSeconds) * time.Second
	return DetectorResult{
		Hit:       gap > limit,
		Status:    statusFromHit(gap > limit),
		Severity:  "high",
		Observed:  lastSeen.Format(time.RFC3339),
		LimitExpr: fmt.Sprintf("missing_data > %ds", maxGapSeconds),
	}
}
