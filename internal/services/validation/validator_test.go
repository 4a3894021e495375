package validation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CreditScore/internal/domain/models"
)

func validApplication() *models.RawApplication {
	return &models.RawApplication{
		CheckingStatus: "no_account",
		Duration:       24,
		CreditAmount:   5000,
		Age:            30,
		Savings:        "anything goes",
	}
}

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	var ve *models.ValidationError
	require.True(t, errors.As(err, &ve), "expected *models.ValidationError, got %v", err)
	return ve.Field
}

func TestDurationBounds(t *testing.T) {
	v := New()
	for _, tc := range []struct {
		duration int
		ok       bool
	}{
		{-5, false}, {0, false}, {1, false}, {3, false},
		{4, true}, {5, true}, {36, true}, {120, true},
		{121, false}, {500, false},
	} {
		raw := validApplication()
		raw.Duration = tc.duration
		err := v.Validate(raw)
		if tc.ok {
			assert.NoError(t, err, "duration=%d", tc.duration)
			continue
		}
		require.Error(t, err, "duration=%d", tc.duration)
		assert.Equal(t, models.FieldDuration, fieldOf(t, err))
	}
}

func TestShortLoanMessage(t *testing.T) {
	raw := validApplication()
	raw.Duration = 3

	err := New().Validate(raw)
	require.Error(t, err)
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "duration", ve.Field)
	assert.Equal(t, "loanterm", ve.Constraint)
	assert.Equal(t, "Duration too short (min 4 months)", ve.Message)
}

func TestShortLoanReportedRegardlessOfOtherFields(t *testing.T) {
	raw := validApplication()
	raw.Duration = 3
	raw.CreditAmount = -1
	raw.Age = 7

	err := New().Validate(raw)
	assert.Equal(t, models.FieldDuration, fieldOf(t, err))
}

func TestCreditAmountBounds(t *testing.T) {
	v := New()
	for _, tc := range []struct {
		amount float64
		ok     bool
	}{
		{-1, false}, {0, false}, {0.01, true}, {1, true},
		{100000, true}, {100000.01, false}, {250000, false},
	} {
		raw := validApplication()
		raw.CreditAmount = tc.amount
		err := v.Validate(raw)
		if tc.ok {
			assert.NoError(t, err, "amount=%v", tc.amount)
			continue
		}
		assert.Equal(t, models.FieldCreditAmount, fieldOf(t, err), "amount=%v", tc.amount)
	}
}

func TestAgeBounds(t *testing.T) {
	v := New()
	for _, tc := range []struct {
		age int
		ok  bool
	}{
		{0, false}, {18, false}, {19, true}, {65, true}, {100, true}, {101, false},
	} {
		raw := validApplication()
		raw.Age = tc.age
		err := v.Validate(raw)
		if tc.ok {
			assert.NoError(t, err, "age=%d", tc.age)
			continue
		}
		assert.Equal(t, models.FieldAge, fieldOf(t, err), "age=%d", tc.age)
	}
}

func TestFirstViolationWins(t *testing.T) {
	raw := validApplication()
	raw.CreditAmount = 0
	raw.Age = 10

	err := New().Validate(raw)
	assert.Equal(t, models.FieldCreditAmount, fieldOf(t, err))
}

func TestNilApplication(t *testing.T) {
	err := New().Validate(nil)
	assert.Error(t, err)
}

func TestMissingFieldReportedFirst(t *testing.T) {
	var raw models.RawApplication
	require.NoError(t, json.Unmarshal([]byte(`{"duration":2,"credit_amount":5000,"age":30}`), &raw))

	err := New().Validate(&raw)
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, models.FieldCheckingStatus, ve.Field)
	assert.Equal(t, "required", ve.Constraint)
	assert.Equal(t, "checking_status is required", ve.Message)
}
