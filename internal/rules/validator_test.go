package rules

import "testing"

func channelSet() map[string]bool {
	return map[string]bool{"temperature": true, "gas": true}
}

func TestValidateSetAccepts(t *testing.T) {
	rules := []Rule{
		{ID: "gas_high", Channel: "gas", Severity: "high", Detector: DetectorSpec{
			Type:      "threshold",
			Threshold: &ThresholdSpec{Op: ">", Value: 600},
		}},
		{ID: "temp_band", Channel: "temperature", Severity: "medium", Detector: DetectorSpec{
			Type:      "threshold",
			Threshold: &ThresholdSpec{Op: "between", Min: floatPtr(10), Max: floatPtr(35)},
		}},
	}
	if err := ValidateSet(rules, channelSet()); err != nil {
		t.Fatalf("expected valid set, got %v", err.Details)
	}
}

func TestValidateSetUnknownChannel(t *testing.T) {
	rules := []Rule{{ID: "r1", Channel: "pressure", Detector: DetectorSpec{
		Threshold: &ThresholdSpec{Op: ">", Value: 1},
	}}}
	err := ValidateSet(rules, channelSet())
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if err.Details[0].Field != "rules[0].channel" {
		t.Fatalf("unexpected detail %+v", err.Details[0])
	}
}

func TestValidateSetDuplicateID(t *testing.T) {
	spec := DetectorSpec{Threshold: &ThresholdSpec{Op: ">", Value: 1}}
	rules := []Rule{
		{ID: "r1", Channel: "gas", Detector: spec},
		{ID: "r1", Channel: "gas", Detector: spec},
	}
	if err := ValidateSet(rules, channelSet()); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestValidateSetBadBetween(t *testing.T) {
	rules := []Rule{{ID: "r1", Channel: "gas", Detector: DetectorSpec{
		Threshold: &ThresholdSpec{Op: "between", Min: floatPtr(5), Max: floatPtr(5)},
	}}}
	if err := ValidateSet(rules, channelSet()); err == nil {
		t.Fatalf("expected range error")
	}
}

func TestValidateSetRobustZ(t *testing.T) {
	rules := []Rule{{ID: "gas_spike", Channel: "gas", Detector: DetectorSpec{
		Type:    "robust_zscore",
		RobustZ: &RobustZSpec{MinSamples: 2, ZWarn: 3, ZCrit: 5},
	}}}
	if err := ValidateSet(rules, channelSet()); err == nil {
		t.Fatalf("expected minSamples error")
	}
}

func floatPtr(v float64) *float64 { return &v }
