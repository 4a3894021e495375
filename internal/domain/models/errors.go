package models

import "fmt"

// ValidationError reports the first field that violates a business rule.
type ValidationError struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
	Message    string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

// SchemaError means a feature row does not match what the classifier was fit on.
type SchemaError struct {
	RequestID string
	Err       error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema mismatch: %v", e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// ClassifierError wraps a failed inference call.
type ClassifierError struct {
	RequestID string
	Err       error
}

func (e *ClassifierError) Error() string {
	return fmt.Sprintf("classifier: %v", e.Err)
}

func (e *ClassifierError) Unwrap() error { return e.Err }
