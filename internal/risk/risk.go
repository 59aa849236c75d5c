// Package risk derives explainable campaign risk from recipient outcomes and
// flags threshold breaches for human review.
//
// Everything here is pure: callers gather RecipientFacts from the store and
// decide what to persist.
package risk

import (
	"math"
	"slices"
	"time"
)

// RecipientFacts is what scoring needs to know about one sent recipient.
type RecipientFacts struct {
	Opened               bool
	Clicked              bool
	SubmittedCredentials bool
	Reported             bool
	// ClickedBefore is set when the same employee clicked in an earlier
	// campaign of the tenant.
	ClickedBefore     bool
	TrainingEnrolled  bool
	TrainingCompleted bool
	// TimeToReport is the delay between send and the first report.
	TimeToReport *time.Duration
}

// Metrics are rates over the sent recipients of one campaign or tenant.
type Metrics struct {
	SampleSize                int      `json:"sampleSize"`
	ClickRate                 float64  `json:"clickRate"`
	CredentialSubmitRate      float64  `json:"credentialSubmitRate"`
	ReportRate                float64  `json:"reportRate"`
	TrainingCompletionRate    float64  `json:"trainingCompletionRate"`
	RepeatSusceptibilityRate  float64  `json:"repeatSusceptibilityRate"`
	MedianTimeToReportSeconds *float64 `json:"medianTimeToReportSeconds"`
	OpenRate                  float64  `json:"openRate"`

	trainingEnrolled int
}

// Compute aggregates facts into rates. An empty input yields zero rates.
func Compute(facts []RecipientFacts) Metrics {
	m := Metrics{SampleSize: len(facts)}
	if len(facts) == 0 {
		return m
	}

	var opened, clicked, submitted, reported, repeat, completed int
	var reportDelays []float64
	for _, f := range facts {
		if f.Opened {
			opened++
		}
		if f.Clicked {
			clicked++
			if f.ClickedBefore {
				repeat++
			}
		}
		if f.SubmittedCredentials {
			submitted++
		}
		if f.Reported {
			reported++
			if f.TimeToReport != nil {
				reportDelays = append(reportDelays, f.TimeToReport.Seconds())
			}
		}
		if f.TrainingEnrolled {
			m.trainingEnrolled++
			if f.TrainingCompleted {
				completed++
			}
		}
	}

	n := float64(len(facts))
	m.OpenRate = rate(opened, n)
	m.ClickRate = rate(clicked, n)
	m.CredentialSubmitRate = rate(submitted, n)
	m.ReportRate = rate(reported, n)
	m.RepeatSusceptibilityRate = rate(repeat, n)
	if m.trainingEnrolled > 0 {
		m.TrainingCompletionRate = rate(completed, float64(m.trainingEnrolled))
	}
	m.MedianTimeToReportSeconds = median(reportDelays)
	return m
}

func rate(count int, n float64) float64 {
	return round(float64(count)/n, 4)
}

func median(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	slices.Sort(values)
	mid := len(values) / 2
	v := values[mid]
	if len(values)%2 == 0 {
		v = (values[mid-1] + values[mid]) / 2
	}
	v = round(v, 1)
	return &v
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Level buckets a score.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Score weights. They sum to 1 so a score stays within 0..100.
const (
	WeightClick        = 0.30
	WeightCredential   = 0.35
	WeightReportGap    = 0.15
	WeightTrainingGap  = 0.10
	WeightRepeatClicks = 0.10
)

// Contribution explains how much one signal added to the score.
type Contribution struct {
	Metric       string  `json:"metric"`
	Weight       float64 `json:"weight"`
	Signal       float64 `json:"signal"`
	Contribution float64 `json:"contribution"`
}

// Assessment is a score with its breakdown.
type Assessment struct {
	Score            float64        `json:"score"`
	Level            Level          `json:"level"`
	InsufficientData bool           `json:"insufficientData"`
	Contributions    []Contribution `json:"contributions"`
}

// Score weighs the metrics into a 0..100 score. A zero sample size scores 0
// and is marked as insufficient data.
func Score(m Metrics) Assessment {
	if m.SampleSize == 0 {
		return Assessment{Score: 0, Level: LevelLow, InsufficientData: true, Contributions: []Contribution{}}
	}

	trainingGap := 0.0
	if m.trainingEnrolled > 0 {
		trainingGap = 1 - m.TrainingCompletionRate
	}
	parts := []Contribution{
		{Metric: "clickRate", Weight: WeightClick, Signal: m.ClickRate},
		{Metric: "credentialSubmitRate", Weight: WeightCredential, Signal: m.CredentialSubmitRate},
		{Metric: "reportGap", Weight: WeightReportGap, Signal: 1 - m.ReportRate},
		{Metric: "trainingGap", Weight: WeightTrainingGap, Signal: trainingGap},
		{Metric: "repeatSusceptibilityRate", Weight: WeightRepeatClicks, Signal: m.RepeatSusceptibilityRate},
	}
	var total float64
	for i := range parts {
		parts[i].Signal = round(parts[i].Signal, 4)
		raw := 100 * parts[i].Weight * parts[i].Signal
		total += raw
		parts[i].Contribution = round(raw, 1)
	}
	score := round(total, 1)
	return Assessment{Score: score, Level: LevelFor(score), Contributions: parts}
}

// LevelFor maps a score to its level: below 30 low, below 60 medium.
func LevelFor(score float64) Level {
	switch {
	case score < 30:
		return LevelLow
	case score < 60:
		return LevelMedium
	default:
		return LevelHigh
	}
}
