package rules

// Rule binds one channel to a detector plus alert metadata. Rules are
// loaded once at startup and never mutated afterwards.
type Rule struct {
	ID              string       `yaml:"id" json:"id"`
	Channel         string       `yaml:"channel" json:"channel"`
	Severity        string       `yaml:"severity" json:"severity"`
	CooldownSeconds int          `yaml:"cooldownSeconds" json:"cooldownSeconds"`
	Detector        DetectorSpec `yaml:"detector" json:"detector"`
}

type DetectorSpec struct {
	Type        string           `yaml:"type" json:"type"`
	Threshold   *ThresholdSpec   `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	RobustZ     *RobustZSpec     `yaml:"robustZscore,omitempty" json:"robustZscore,omitempty"`
	MissingData *MissingDataSpec `yaml:"missingData,omitempty" json:"missingData,omitempty"`
}

type ThresholdSpec struct {
	Op    string   `yaml:"op" json:"op"`
	Value float64  `yaml:"value" json:"value"`
	Min   *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max   *float64 `yaml:"max,omitempty" json:"max,omitempty"`
}

type RobustZSpec struct {
	MinSamples int     `yaml:"minSamples" json:"minSamples"`
	ZWarn      float64 `yaml:"zWarn" json:"zWarn"`
	ZCrit      float64 `yaml:"zCrit" json:"zCrit"`
}

type MissingDataSpec struct {
	MaxGapSeconds int `yaml:"maxGapSeconds" json:"maxGapSeconds"`
}

type ErrorDetail struct {
	Field   string `json:"field"`
	Problem string `json:"problem"`
	Hint    string `json:"hint"`
}

type ValidationError struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details"`
}

func (e *ValidationError) Error() string {
	return e.Message
}
