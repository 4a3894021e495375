package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"CreditScore/internal/domain/models"
	"CreditScore/internal/domain/service"
)

// Score band.
const (
	MaxScore = 850
	MinScore = 300
)

// ScoreFromProbability maps P(bad) onto the 300..850 band.
func ScoreFromProbability(probabilityBad float64) int {
	return int(math.Round(MaxScore - probabilityBad*(MaxScore-MinScore)))
}

// RiskFromPrediction labels the discrete class. It deliberately ignores the
// probability, so a borderline row can score low and still be "Good".
func RiskFromPrediction(prediction int) string {
	if prediction == 0 {
		return models.RiskGood
	}
	return models.RiskBad
}

// Engine turns a feature row into a ScoringResult using a classifier.
type Engine struct {
	classifier service.Classifier
}

func NewEngine(classifier service.Classifier) *Engine {
	return &Engine{classifier: classifier}
}

// Score runs both classifier capabilities once. Failures are returned as
// *models.SchemaError or *models.ClassifierError tagged with requestID.
func (e *Engine) Score(ctx context.Context, requestID string, ts time.Time, row models.FeatureRow) (*models.ScoringResult, error) {
	prediction, err := e.classifier.Predict(ctx, row)
	if err != nil {
		return nil, wrap(requestID, fmt.Errorf("predict: %w", err))
	}
	if prediction != 0 && prediction != 1 {
		return nil, wrap(requestID, fmt.Errorf("predict: class %d outside {0,1}", prediction))
	}

	proba, err := e.classifier.PredictProba(ctx, row)
	if err != nil {
		return nil, wrap(requestID, fmt.Errorf("predict_proba: %w", err))
	}
	if len(proba) != 2 {
		return nil, wrap(requestID, fmt.Errorf("predict_proba: expected 2 probabilities, got %d", len(proba)))
	}
	pBad := proba[1]
	if math.IsNaN(pBad) || pBad < 0 || pBad > 1 {
		return nil, wrap(requestID, fmt.Errorf("predict_proba: P(bad)=%v outside [0,1]", pBad))
	}

	return &models.ScoringResult{
		RequestID:      requestID,
		Timestamp:      ts,
		Prediction:     prediction,
		ProbabilityBad: pBad,
		Score:          ScoreFromProbability(pBad),
		RiskLevel:      RiskFromPrediction(prediction),
	}, nil
}

func wrap(requestID string, err error) error {
	var schemaErr *models.SchemaError
	if errors.As(err, &schemaErr) {
		return &models.SchemaError{RequestID: requestID, Err: schemaErr.Err}
	}
	return &models.ClassifierError{RequestID: requestID, Err: err}
}
