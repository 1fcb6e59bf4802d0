package alert

import (
	"time"

	"github.com/google/uuid"

	"homewatch/internal/rules"
	"homewatch/internal/sensor"
)

// Alert is emitted when a rule's detector fires. Consumed exactly once
// by the reporter.
type Alert struct {
	ID        string         `json:"id"`
	RuleID    string         `json:"ruleId"`
	Channel   string         `json:"channel"`
	Severity  string         `json:"severity"`
	Status    string         `json:"status"`
	Observed  string         `json:"observed"`
	LimitExpr string         `json:"limitExpr"`
	Reading   sensor.Reading `json:"reading"`
	TS        time.Time      `json:"ts"`
}

// Evaluator runs the rule set against each cycle's readings. The
// detector math is pure; sample history and cooldown state live in
// Windows and Suppressor so identical inputs always evaluate the same
// way.
type Evaluator struct {
	rules      []rules.Rule
	windows    *Windows
	suppressor *Suppressor
}

func NewEvaluator(ruleSet []rules.Rule, windowSize int) *Evaluator {
	return &Evaluator{
		rules:      ruleSet,
		windows:    NewWindows(windowSize),
		suppressor: NewSuppressor(),
	}
}

func (e *Evaluator) Rules() []rules.Rule { return e.rules }

// Evaluate pushes the cycle's readings into the sample windows, runs
// every rule, and returns the alerts that survive cooldown.
func (e *Evaluator) Evaluate(readings []sensor.Reading, now time.Time) []Alert {
	byChannel := make(map[string]sensor.Reading, len(readings))
	for _, r := range readings {
		byChannel[r.Channel] = r
		e.windows.Push(r.Channel, r.Value, r.TS)
	}

	var alerts []Alert
	for _, rule := range e.rules {
		reading, present := byChannel[rule.Channel]
		result, evaluated := e.evaluateRule(rule, reading, present, now)
		if !evaluated || !result.Hit {
			continue
		}
		if !e.suppressor.Allow(rule.ID, rule.CooldownSeconds, now) {
			continue
		}
		severity := rule.Severity
		if severity == "" {
			severity = result.Severity
		}
		alerts = append(alerts, Alert{
			ID:        uuid.NewString(),
			RuleID:    rule.ID,
			Channel:   rule.Channel,
			Severity:  severity,
			Status:    result.Status,
			Observed:  result.Observed,
			LimitExpr: result.LimitExpr,
			Reading:   reading,
			TS:        now,
		})
	}
	return alerts
}

func (e *Evaluator) evaluateRule(rule rules.Rule, reading sensor.Reading, present bool, now time.Time) (DetectorResult, bool) {
	switch rule.Detector.Type {
	case "missing_data":
		if rule.Detector.MissingData == nil {
			return DetectorResult{}, false
		}
		lastSeen := e.windows.LastSeen(rule.Channel)
		if lastSeen.IsZero() {
			// Channel has never reported; treat startup as the baseline.
			return DetectorResult{}, false
		}
		return EvaluateMissingData(lastSeen, rule.Detector.MissingData.MaxGapSeconds, now), true
	case "robust_zscore":
		if !present || rule.Detector.RobustZ == nil {
			return DetectorResult{}, false
		}
		samples := e.windows.Samples(rule.Channel)
		if len(samples) < rule.Detector.RobustZ.MinSamples {
			return DetectorResult{}, false
		}
		return EvaluateRobustZ(samples, reading.Value, rule.Detector.RobustZ.ZWarn, rule.Detector.RobustZ.ZCrit), true
	default:
		if !present || rule.Detector.Threshold == nil {
			return DetectorResult{}, false
		}
		return EvaluateThreshold(*rule.Detector.Threshold, reading.Value), true
	}
}
