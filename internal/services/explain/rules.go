package explain

import (
	"github.com/samber/lo"

	"CreditScore/internal/domain/models"
)

const (
	Method          = "Rule-based risk factor analysis"
	NoMajorFactors  = "No major risk factors identified"
	MaxFactors      = 3
	highFactorCount = 3
)

// Rule is one threshold check over an encoded application.
type Rule struct {
	Label string
	Fires func(*models.EncodedApplication) bool
}

var (
	poorHistoryCodes    = []string{"A33", "A34"}
	shortEmploymentCode = []string{"A71", "A72"}
	lowSavingsCodes     = []string{"A61", "A62"}
)

// DefaultRules are evaluated in this order and truncated in this order.
func DefaultRules() []Rule {
	return []Rule{
		{"High credit amount", func(e *models.EncodedApplication) bool { return e.CreditAmount > 10000 }},
		{"Long repayment duration", func(e *models.EncodedApplication) bool { return e.Duration > 36 }},
		{"Poor credit history", func(e *models.EncodedApplication) bool { return lo.Contains(poorHistoryCodes, e.CreditHistory) }},
		{"Short employment duration", func(e *models.EncodedApplication) bool { return lo.Contains(shortEmploymentCode, e.Employment) }},
		{"Low savings", func(e *models.EncodedApplication) bool { return lo.Contains(lowSavingsCodes, e.Savings) }},
		{"Young applicant", func(e *models.EncodedApplication) bool { return e.Age < 25 }},
	}
}

// Engine produces the rule-based risk view. It never consults the classifier.
type Engine struct {
	rules []Rule
}

func NewEngine(rules ...Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Engine{rules: rules}
}

// Explain returns at most MaxFactors labels and a level computed from every
// rule that fired, not only the kept ones.
func (e *Engine) Explain(enc *models.EncodedApplication) (factors []string, level string, fired int) {
	all := lo.FilterMap(e.rules, func(r Rule, _ int) (string, bool) {
		return r.Label, r.Fires(enc)
	})
	fired = len(all)

	switch {
	case fired >= highFactorCount:
		level = models.RiskHigh
	case fired > 0:
		level = models.RiskMedium
	default:
		level = models.RiskLow
	}

	if fired == 0 {
		return []string{NoMajorFactors}, level, 0
	}
	return lo.Subset(all, 0, MaxFactors), level, fired
}
