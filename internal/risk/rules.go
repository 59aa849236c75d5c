package risk

import (
	"fmt"

	"phishsim/internal/models"
)

// Rule is a fixed threshold over one metric.
type Rule struct {
	Type          models.ViolationType
	Severity      models.Severity
	Threshold     float64
	MinSampleSize int
	// Above reports a breach when the observed value reaches Threshold;
	// otherwise a breach is a value strictly below it.
	Above   bool
	observe func(Metrics) float64
}

// Rules are evaluated in this order; the order is also the order of created
// violations.
var Rules = []Rule{
	{
		Type:          models.ViolationHighCredentialSubmitRate,
		Severity:      models.SeverityHigh,
		Threshold:     0.30,
		MinSampleSize: 5,
		Above:         true,
		observe:       func(m Metrics) float64 { return m.CredentialSubmitRate },
	},
	{
		Type:          models.ViolationHighClickRate,
		Severity:      models.SeverityMedium,
		Threshold:     0.40,
		MinSampleSize: 5,
		Above:         true,
		observe:       func(m Metrics) float64 { return m.ClickRate },
	},
	{
		Type:          models.ViolationLowReportRate,
		Severity:      models.SeverityMedium,
		Threshold:     0.10,
		MinSampleSize: 10,
		observe:       func(m Metrics) float64 { return m.ReportRate },
	},
}

// Breach is a rule that fired.
type Breach struct {
	Type       models.ViolationType `json:"type"`
	Severity   models.Severity      `json:"severity"`
	Threshold  float64              `json:"threshold"`
	Observed   float64              `json:"observed"`
	SampleSize int                  `json:"sampleSize"`
}

// Summary is the human-readable line stored on the violation.
func (b Breach) Summary() string {
	switch b.Type {
	case models.ViolationLowReportRate:
		return fmt.Sprintf("report rate %.0f%% is below %.0f%% over %d recipients", b.Observed*100, b.Threshold*100, b.SampleSize)
	case models.ViolationHighClickRate:
		return fmt.Sprintf("click rate %.0f%% reached %.0f%% over %d recipients", b.Observed*100, b.Threshold*100, b.SampleSize)
	default:
		return fmt.Sprintf("credential submit rate %.0f%% reached %.0f%% over %d recipients", b.Observed*100, b.Threshold*100, b.SampleSize)
	}
}

// Detect returns the breaches of m, skipping rules whose minimum sample size
// is not met.
func Detect(m Metrics) []Breach {
	var out []Breach
	for _, r := range Rules {
		if m.SampleSize < r.MinSampleSize {
			continue
		}
		observed := r.observe(m)
		breached := observed < r.Threshold
		if r.Above {
			breached = observed >= r.Threshold
		}
		if !breached {
			continue
		}
		out = append(out, Breach{
			Type:       r.Type,
			Severity:   r.Severity,
			Threshold:  r.Threshold,
			Observed:   observed,
			SampleSize: m.SampleSize,
		})
	}
	return out
}
