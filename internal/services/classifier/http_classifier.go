package classifier

import (
	"context"
	"fmt"
	"time"

	"CreditScore/internal/domain/models"
	domsvc "CreditScore/internal/domain/service"
	xhttp "CreditScore/pkg/http"
)

// HTTPClassifier calls a model server exposing /predict and /predict_proba.
// Both endpoints take a split-orient row and answer with one entry per row.
type HTTPClassifier struct{ base *httpBase }

func NewHTTPClassifier(baseURL string, timeout time.Duration, opts ...xhttp.ClientOption) *HTTPClassifier {
	return &HTTPClassifier{base: newHTTPBase(baseURL, timeout, opts...)}
}

type predictResp struct {
	Predictions []int `json:"predictions"`
}

type probaResp struct {
	Probabilities [][]float64 `json:"probabilities"`
}

func (c *HTTPClassifier) Predict(ctx context.Context, row models.FeatureRow) (int, error) {
	var pr predictResp
	if err := c.base.postJSON(ctx, "/predict", row, &pr); err != nil {
		return 0, err
	}
	if len(pr.Predictions) != 1 {
		return 0, fmt.Errorf("predict: expected 1 prediction, got %d", len(pr.Predictions))
	}
	return pr.Predictions[0], nil
}

func (c *HTTPClassifier) PredictProba(ctx context.Context, row models.FeatureRow) ([]float64, error) {
	var pr probaResp
	if err := c.base.postJSON(ctx, "/predict_proba", row, &pr); err != nil {
		return nil, err
	}
	if len(pr.Probabilities) != 1 {
		return nil, fmt.Errorf("predict_proba: expected 1 row, got %d", len(pr.Probabilities))
	}
	return pr.Probabilities[0], nil
}

var _ domsvc.Classifier = (*HTTPClassifier)(nil)
