package service

import (
	"context"

	"CreditScore/internal/domain/models"
)

// Classifier is a trained good/bad model. Predict returns 0 (good) or 1 (bad);
// PredictProba returns probabilities ordered [good, bad].
type Classifier interface {
	Predict(ctx context.Context, row models.FeatureRow) (int, error)
	PredictProba(ctx context.Context, row models.FeatureRow) ([]float64, error)
}

// FallbackRecorder observes unknown categorical labels.
type FallbackRecorder interface {
	RecordFallback(field string)
}
