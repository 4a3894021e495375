package models

import "time"

// Risk labels.
const (
	RiskGood = "Good"
	RiskBad  = "Bad"

	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// ScoringResult is the classifier-backed view of an application.
type ScoringResult struct {
	RequestID      string    `json:"request_id"`
	Timestamp      time.Time `json:"timestamp"`
	Prediction     int       `json:"prediction"`
	ProbabilityBad float64   `json:"probability_bad"`
	Score          int       `json:"score"`
	RiskLevel      string    `json:"risk_level"`
}

// ExplanationResult is the rule-based view of an application. It is computed
// without the classifier and may disagree with ScoringResult.
type ExplanationResult struct {
	RequestID         string   `json:"request_id"`
	TopRiskFactors    []string `json:"top_risk_factors"`
	RiskLevel         string   `json:"risk_level"`
	ExplanationMethod string   `json:"explanation_method"`
}

// ModelInfo describes the deployed classifier.
type ModelInfo struct {
	ModelType          string  `json:"model_type"`
	ScoreMethod        string  `json:"score_method"`
	TrainingDataset    string  `json:"training_dataset"`
	ValidationStrategy string  `json:"validation_strategy"`
	RecallBad          float64 `json:"recall_bad"`
	BiasAwareness      string  `json:"bias_awareness"`
	Governance         string  `json:"governance"`
	ModelVersion       string  `json:"model_version,omitempty"`
	EncodingVersion    string  `json:"encoding_version,omitempty"`
}

// AuditRecord is the persisted trace of one successful score.
type AuditRecord struct {
	RequestID       string    `json:"request_id"`
	Timestamp       time.Time `json:"timestamp"`
	ModelVersion    string    `json:"model_version"`
	EncodingVersion string    `json:"encoding_version"`
	Prediction      int       `json:"prediction"`
	ProbabilityBad  float64   `json:"probability_bad"`
	Score           int       `json:"score"`
	RiskLevel       string    `json:"risk_level"`
	Features        string    `json:"features"`
}

// ErrorResponse is the flat failure body shared by HTTP and Kafka replies.
type ErrorResponse struct {
	RequestID string     `json:"request_id"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Error     string     `json:"error"`
	Field     string     `json:"field,omitempty"`
}
