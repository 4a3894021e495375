package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Field names of a loan application as they appear on the wire.
const (
	FieldCheckingStatus   = "checking_status"
	FieldDuration         = "duration"
	FieldCreditHistory    = "credit_history"
	FieldPurpose          = "purpose"
	FieldCreditAmount     = "credit_amount"
	FieldSavings          = "savings"
	FieldEmployment       = "employment"
	FieldInstallmentRate  = "installment_rate"
	FieldPersonalStatus   = "personal_status"
	FieldOtherDebtors     = "other_debtors"
	FieldResidenceSince   = "residence_since"
	FieldProperty         = "property"
	FieldAge              = "age"
	FieldOtherInstallment = "other_installment"
	FieldHousing          = "housing"
	FieldExistingCredits  = "existing_credits"
	FieldJob              = "job"
	FieldPeopleLiable     = "people_liable"
	FieldTelephone        = "telephone"
	FieldForeignWorker    = "foreign_worker"
)

// ApplicationFields lists the wire fields of a RawApplication in order.
var ApplicationFields = []string{
	FieldCheckingStatus, FieldDuration, FieldCreditHistory, FieldPurpose,
	FieldCreditAmount, FieldSavings, FieldEmployment, FieldInstallmentRate,
	FieldPersonalStatus, FieldOtherDebtors, FieldResidenceSince, FieldProperty,
	FieldAge, FieldOtherInstallment, FieldHousing, FieldExistingCredits,
	FieldJob, FieldPeopleLiable, FieldTelephone, FieldForeignWorker,
}

// Label is a categorical value as sent by the client. Numbers and booleans keep
// their literal JSON text, so 0 and "0" resolve to the same lookup key.
type Label string

func (l *Label) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || isNull(b) {
		return errors.New("label must not be null")
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = Label(s)
		return nil
	case '{', '[':
		return fmt.Errorf("label must be a string, number or boolean, got %s", b)
	default:
		*l = Label(b)
		return nil
	}
}

// RawApplication is a loan application using human-readable category labels.
type RawApplication struct {
	CheckingStatus   Label   `json:"checking_status"`
	Duration         int     `json:"duration" validate:"gt=0,lte=120,loanterm"`
	CreditHistory    Label   `json:"credit_history"`
	Purpose          Label   `json:"purpose"`
	CreditAmount     float64 `json:"credit_amount" validate:"gt=0,lte=100000"`
	Savings          Label   `json:"savings"`
	Employment       Label   `json:"employment"`
	InstallmentRate  int     `json:"installment_rate"`
	PersonalStatus   Label   `json:"personal_status"`
	OtherDebtors     Label   `json:"other_debtors"`
	ResidenceSince   int     `json:"residence_since"`
	Property         Label   `json:"property"`
	Age              int     `json:"age" validate:"gt=18,lte=100"`
	OtherInstallment Label   `json:"other_installment"`
	Housing          Label   `json:"housing"`
	ExistingCredits  int     `json:"existing_credits"`
	Job              Label   `json:"job"`
	PeopleLiable     int     `json:"people_liable"`
	Telephone        Label   `json:"telephone"`
	ForeignWorker    Label   `json:"foreign_worker"`

	missing string
}

// UnmarshalJSON decodes an application strictly: unknown keys are rejected,
// and the first field in wire order that is absent or null is remembered
// for MissingField.
func (a *RawApplication) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}

	missing := ""
	for _, name := range ApplicationFields {
		v, ok := fields[name]
		if ok && !isNull(v) {
			continue
		}
		if missing == "" {
			missing = name
		}
		delete(fields, name)
	}

	present, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	type plain RawApplication
	var p plain
	dec := json.NewDecoder(bytes.NewReader(present))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return err
	}
	*a = RawApplication(p)
	a.missing = missing
	return nil
}

// MissingField returns the first required field the decoded JSON lacked or
// set to null, or "". Applications built in code report "".
func (a *RawApplication) MissingField() string { return a.missing }

func isNull(b []byte) bool { return bytes.Equal(bytes.TrimSpace(b), []byte("null")) }

// EncodedApplication carries canonical codes for every categorical field and
// float64 values for every numeric one.
type EncodedApplication struct {
	CheckingStatus   string  `json:"checking_status"`
	Duration         float64 `json:"duration"`
	CreditHistory    string  `json:"credit_history"`
	Purpose          string  `json:"purpose"`
	CreditAmount     float64 `json:"credit_amount"`
	Savings          string  `json:"savings"`
	Employment       string  `json:"employment"`
	InstallmentRate  float64 `json:"installment_rate"`
	PersonalStatus   string  `json:"personal_status"`
	OtherDebtors     string  `json:"other_debtors"`
	ResidenceSince   float64 `json:"residence_since"`
	Property         string  `json:"property"`
	Age              float64 `json:"age"`
	OtherInstallment string  `json:"other_installment"`
	Housing          string  `json:"housing"`
	ExistingCredits  float64 `json:"existing_credits"`
	Job              string  `json:"job"`
	PeopleLiable     float64 `json:"people_liable"`
	Telephone        string  `json:"telephone"`
	ForeignWorker    string  `json:"foreign_worker"`
}
