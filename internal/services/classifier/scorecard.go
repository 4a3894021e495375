package classifier

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"CreditScore/internal/domain/models"
	domsvc "CreditScore/internal/domain/service"
	"CreditScore/internal/services/encoding"
)

// ScorecardArtifact is a logistic scorecard exported from training. Every
// categorical code the encoding table can emit must carry a weight, zero for
// the reference level.
type ScorecardArtifact struct {
	Version     string                        `yaml:"version"`
	Columns     []string                      `yaml:"columns"`
	Intercept   float64                       `yaml:"intercept"`
	Threshold   float64                       `yaml:"threshold"`
	Numeric     map[string]float64            `yaml:"numeric"`
	Categorical map[string]map[string]float64 `yaml:"categorical"`
}

// Scorecard is an in-process classifier over a ScorecardArtifact.
type Scorecard struct {
	art     ScorecardArtifact
	numeric map[string]bool
}

// LoadScorecard reads a YAML artifact.
func LoadScorecard(path string) (*Scorecard, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scorecard: %w", err)
	}
	var art ScorecardArtifact
	if err := yaml.Unmarshal(b, &art); err != nil {
		return nil, fmt.Errorf("parse scorecard: %w", err)
	}
	return NewScorecard(art)
}

// NewScorecard checks that every column is weighted exactly once.
func NewScorecard(art ScorecardArtifact) (*Scorecard, error) {
	if len(art.Columns) == 0 {
		return nil, fmt.Errorf("scorecard: no columns")
	}
	if art.Threshold <= 0 || art.Threshold >= 1 {
		art.Threshold = 0.5
	}
	numeric := make(map[string]bool, len(art.Numeric))
	seen := make(map[string]bool, len(art.Columns))
	for _, col := range art.Columns {
		if seen[col] {
			return nil, fmt.Errorf("scorecard: column %q listed twice", col)
		}
		seen[col] = true
		_, isNum := art.Numeric[col]
		_, isCat := art.Categorical[col]
		switch {
		case isNum && isCat:
			return nil, fmt.Errorf("scorecard: column %q is both numeric and categorical", col)
		case !isNum && !isCat:
			return nil, fmt.Errorf("scorecard: column %q has no weights", col)
		}
		numeric[col] = isNum
	}
	for col := range art.Numeric {
		if !seen[col] {
			return nil, fmt.Errorf("scorecard: weights for unknown column %q", col)
		}
	}
	for col := range art.Categorical {
		if !seen[col] {
			return nil, fmt.Errorf("scorecard: weights for unknown column %q", col)
		}
	}
	return &Scorecard{art: art, numeric: numeric}, nil
}

// CheckTable verifies that every code the table can produce for a categorical
// column is weighted. Columns are matched to table fields by lowercased name.
func (s *Scorecard) CheckTable(t *encoding.Table) error {
	for _, col := range s.art.Columns {
		if s.numeric[col] {
			continue
		}
		m, ok := t.Mapping(strings.ToLower(col))
		if !ok {
			return fmt.Errorf("scorecard: column %q has no mapping in encoding table %s", col, t.Version())
		}
		for _, code := range lo.Uniq(lo.Map(m.Entries(), func(e encoding.Entry, _ int) string { return e.Code })) {
			if _, ok := s.art.Categorical[col][code]; !ok {
				return fmt.Errorf("scorecard: column %q: code %q from encoding table %s has no weight", col, code, t.Version())
			}
		}
	}
	return nil
}

// Version is the artifact's own version tag.
func (s *Scorecard) Version() string { return s.art.Version }

func (s *Scorecard) Predict(_ context.Context, row models.FeatureRow) (int, error) {
	p, err := s.probabilityBad(row)
	if err != nil {
		return 0, err
	}
	if p >= s.art.Threshold {
		return 1, nil
	}
	return 0, nil
}

func (s *Scorecard) PredictProba(_ context.Context, row models.FeatureRow) ([]float64, error) {
	p, err := s.probabilityBad(row)
	if err != nil {
		return nil, err
	}
	return []float64{1 - p, p}, nil
}

func (s *Scorecard) probabilityBad(row models.FeatureRow) (float64, error) {
	if err := s.checkSchema(row); err != nil {
		return 0, &models.SchemaError{Err: err}
	}

	logit := s.art.Intercept
	for i, col := range row.Columns {
		if s.numeric[col] {
			logit += s.art.Numeric[col] * row.Values[i].(float64)
			continue
		}
		code := row.Values[i].(string)
		w, ok := s.art.Categorical[col][code]
		if !ok {
			return 0, &models.SchemaError{Err: fmt.Errorf("column %q: code %q has no weight", col, code)}
		}
		logit += w
	}
	return 1.0 / (1.0 + math.Exp(-logit)), nil
}

func (s *Scorecard) checkSchema(row models.FeatureRow) error {
	if len(row.Columns) != len(s.art.Columns) || len(row.Values) != len(row.Columns) {
		return fmt.Errorf("expected %d columns, got %d columns and %d values",
			len(s.art.Columns), len(row.Columns), len(row.Values))
	}
	for i, col := range s.art.Columns {
		if row.Columns[i] != col {
			return fmt.Errorf("column %d: expected %q, got %q", i, col, row.Columns[i])
		}
		if s.numeric[col] {
			if _, ok := row.Values[i].(float64); !ok {
				return fmt.Errorf("column %q: expected float64, got %T", col, row.Values[i])
			}
		} else if _, ok := row.Values[i].(string); !ok {
			return fmt.Errorf("column %q: expected code string, got %T", col, row.Values[i])
		}
	}
	return nil
}

var _ domsvc.Classifier = (*Scorecard)(nil)
