// Package training holds the training curriculum and the enrollment rule
// shared by every path that starts a session.
package training

import (
	"math"

	"phishsim/internal/models"
)

// PassThreshold is the minimum score that passes a quiz.
const PassThreshold = 70

// Question is one multiple-choice quiz item. Correct is the index of the
// right option and is never serialized to recipients.
type Question struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"question"`
	Options []string `json:"options"`
	Correct int      `json:"-"`
}

// Module is a training lesson with its own quiz and answer key.
type Module struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Summary   string     `json:"summary"`
	Points    []string   `json:"points"`
	Questions []Question `json:"-"`
}

// AnswerKey returns the correct option index per question, in order.
func (m Module) AnswerKey() []int {
	key := make([]int, len(m.Questions))
	for i, q := range m.Questions {
		key[i] = q.Correct
	}
	return key
}

// Grade returns the rounded percentage of answers matching the key by
// position. No answers at all grades as 100.
func (m Module) Grade(answers []int) int {
	if len(answers) == 0 {
		return 100
	}
	key := m.AnswerKey()
	if len(key) == 0 {
		return 100
	}
	correct := 0
	for i, a := range answers {
		if i < len(key) && a == key[i] {
			correct++
		}
	}
	return int(math.Round(float64(correct) / float64(len(key)) * 100))
}

// Passed reports whether score meets PassThreshold.
func Passed(score int) bool {
	return score >= PassThreshold
}

// Catalog is the set of modules campaigns may reference.
type Catalog struct {
	modules   map[string]Module
	defaultID string
}

// NewCatalog builds a catalog whose first module is the default.
func NewCatalog(modules ...Module) *Catalog {
	c := &Catalog{modules: make(map[string]Module, len(modules))}
	for _, m := range modules {
		if _, dup := c.modules[m.ID]; dup {
			continue
		}
		if len(c.modules) == 0 {
			c.defaultID = m.ID
		}
		c.modules[m.ID] = m
	}
	return c
}

// DefaultCatalog is the built-in curriculum.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		Module{
			ID:      models.DefaultTrainingModuleID,
			Title:   "Spot suspicious urgency",
			Summary: "Pause and verify before acting on urgent requests.",
			Points: []string{
				"Check sender domain carefully",
				"Never submit credentials from email links",
				"Report suspicious emails quickly",
			},
			Questions: []Question{
				{
					ID:      "q1",
					Prompt:  "What is the safest first step after clicking a suspicious link?",
					Options: []string{"Report it", "Ignore it", "Reply with credentials"},
					Correct: 0,
				},
				{
					ID:      "q2",
					Prompt:  "A misspelled domain usually indicates:",
					Options: []string{"A trusted sender", "Potential phishing", "Normal behavior"},
					Correct: 1,
				},
			},
		},
		Module{
			ID:      "credential-safety",
			Title:   "Protect your credentials",
			Summary: "Sign-in pages reached from email links deserve extra suspicion.",
			Points: []string{
				"Navigate to sign-in pages directly instead of following links",
				"Check the address bar before typing a password",
				"Use the report button when a page asks for credentials unexpectedly",
			},
			Questions: []Question{
				{
					ID:      "q1",
					Prompt:  "An email link opens a login page for a service you use. What should you do?",
					Options: []string{"Sign in quickly", "Open the service from a bookmark instead", "Forward the link to a colleague"},
					Correct: 1,
				},
				{
					ID:      "q2",
					Prompt:  "Which detail best reveals a fake login page?",
					Options: []string{"The page logo", "The domain in the address bar", "The page colors"},
					Correct: 1,
				},
				{
					ID:      "q3",
					Prompt:  "You already typed your password into a suspicious page. First step?",
					Options: []string{"Report it and change the password", "Wait and see", "Clear browser history"},
					Correct: 0,
				},
			},
		},
	)
}

func (c *Catalog) Get(moduleID string) (Module, bool) {
	m, ok := c.modules[moduleID]
	return m, ok
}

// Resolve returns the module for moduleID, falling back to the default for
// unknown or empty ids.
func (c *Catalog) Resolve(moduleID string) Module {
	if m, ok := c.modules[moduleID]; ok {
		return m
	}
	return c.modules[c.defaultID]
}

func (c *Catalog) DefaultID() string {
	return c.defaultID
}
