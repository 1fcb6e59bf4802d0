package rules

import (
	"fmt"
	"regexp"
)

var identRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

var validOps = map[string]bool{
	">": true, ">=": true, "<": true, "<=": true,
	"==": true, "!=": true, "between": true,
}

var validSeverities = map[string]bool{"low": true, "medium": true, "high": true}

// ValidateSet validates every rule and checks channel references
// against the configured channel names.
func ValidateSet(ruleSet []Rule, channels map[string]bool) *ValidationError {
	var details []ErrorDetail
	seen := map[string]bool{}
	for i, rule := range ruleSet {
		prefix := fmt.Sprintf("rules[%d]", i)
		if rule.ID == "" || !identRegex.MatchString(rule.ID) {
			details = append(details, ErrorDetail{Field: prefix + ".id", Problem: "invalid", Hint: "Use alphanumeric identifiers"})
		} else if seen[rule.ID] {
			details = append(details, ErrorDetail{Field: prefix + ".id", Problem: "duplicate", Hint: "Rule IDs must be unique"})
		}
		seen[rule.ID] = true
		if !channels[rule.Channel] {
			details = append(details, ErrorDetail{Field: prefix + ".channel", Problem: "unknown channel", Hint: "Reference a configured channel"})
		}
		if rule.Severity != "" && !validSeverities[rule.Severity] {
			details = append(details, ErrorDetail{Field: prefix + ".severity", Problem: "invalid", Hint: "Use low, medium or high"})
		}
		if rule.CooldownSeconds < 0 {
			details = append(details, ErrorDetail{Field: prefix + ".cooldownSeconds", Problem: "negative", Hint: "Cooldown must be >= 0"})
		}
		if detail := validateDetector(rule.Detector, prefix); detail != nil {
			details = append(details, *detail)
		}
	}
	if len(details) > 0 {
		return &ValidationError{Code: "RULE_SCHEMA_INVALID", Message: "rule set failed validation", Details: details}
	}
	return nil
}

func validateDetector(detector DetectorSpec, prefix string) *ErrorDetail {
	switch detector.Type {
	case "", "threshold":
		if detector.Threshold == nil {
			return &ErrorDetail{Field: prefix + ".detector.threshold", Problem: "missing", Hint: "Provide threshold"}
		}
		if !validOps[detector.Threshold.Op] {
			return &ErrorDetail{Field: prefix + ".detector.threshold.op", Problem: "invalid", Hint: "Use a comparison operator or between"}
		}
		if detector.Threshold.Op == "between" {
			if detector.Threshold.Min == nil || detector.Threshold.Max == nil || *detector.Threshold.Min >= *detector.Threshold.Max {
				return &ErrorDetail{Field: prefix + ".detector.threshold", Problem: "invalid range", Hint: "Provide min < max"}
			}
		}
	case "robust_zscore":
		if detector.RobustZ == nil {
			return &ErrorDetail{Field: prefix + ".detector.robustZscore", Problem: "missing", Hint: "Provide robust_zscore config"}
		}
		if detector.RobustZ.MinSamples < 3 {
			return &ErrorDetail{Field: prefix + ".detector.robustZscore.minSamples", Problem: "too small", Hint: "At least 3 samples required"}
		}
		if detector.RobustZ.ZWarn <= 0 || detector.RobustZ.ZCrit < detector.RobustZ.ZWarn {
			return &ErrorDetail{Field: prefix + ".detector.robustZscore", Problem: "invalid limits", Hint: "Require 0 < zWarn <= zCrit"}
		}
	case "missing_data":
		if detector.MissingData == nil || detector.MissingData.MaxGapSeconds <= 0 {
			return &ErrorDetail{Field: prefix + ".detector.missingData.maxGapSeconds", Problem: "missing", Hint: "Provide a positive max gap"}
		}
	default:
		return &ErrorDetail{Field: prefix + ".detector.type", Problem: "unsupported", Hint: "Use threshold, robust_zscore or missing_data"}
	}
	return nil
}
