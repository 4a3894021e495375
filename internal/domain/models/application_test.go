package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullApplication = `{"checking_status":"no_account","duration":24,"credit_history":"existing_paid_back",
 "purpose":"car_new","credit_amount":5000,"savings":4,"employment":"4","installment_rate":2,
 "personal_status":"male_single","other_debtors":"none","residence_since":3,"property":"real_estate",
 "age":30,"other_installment":"none","housing":"own","existing_credits":1,"job":"skilled_employee",
 "people_liable":1,"telephone":"yes_registered","foreign_worker":"no"}`

func TestRawApplicationComplete(t *testing.T) {
	var raw RawApplication
	require.NoError(t, json.Unmarshal([]byte(fullApplication), &raw))
	assert.Empty(t, raw.MissingField())
	assert.Equal(t, Label("4"), raw.Savings)
	assert.Equal(t, 1, raw.PeopleLiable)
}

func TestRawApplicationMissingField(t *testing.T) {
	tests := map[string]struct {
		body string
		want string
	}{
		"absent numeric": {strings.Replace(fullApplication, `"installment_rate":2,`, "", 1), FieldInstallmentRate},
		"null label":     {strings.Replace(fullApplication, `"savings":4`, `"savings":null`, 1), FieldSavings},
		"first in order": {`{"duration":24,"credit_amount":5000,"age":30}`, FieldCheckingStatus},
		"null body":      {`null`, FieldCheckingStatus},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var raw RawApplication
			require.NoError(t, json.Unmarshal([]byte(tt.body), &raw))
			assert.Equal(t, tt.want, raw.MissingField())
		})
	}
}

func TestRawApplicationRejectsUnknownAndMistyped(t *testing.T) {
	var raw RawApplication
	err := json.Unmarshal([]byte(`{"duration":24,"colour":"red"}`), &raw)
	assert.ErrorContains(t, err, `unknown field "colour"`)

	err = json.Unmarshal([]byte(`{"duration":"long"}`), &raw)
	var typeErr *json.UnmarshalTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, FieldDuration, typeErr.Field)

	err = json.Unmarshal([]byte(`{"purpose":["car"]}`), &raw)
	assert.Error(t, err)
}

func TestLabelRejectsNull(t *testing.T) {
	var l Label
	assert.Error(t, json.Unmarshal([]byte(`null`), &l))
	require.NoError(t, json.Unmarshal([]byte(`true`), &l))
	assert.Equal(t, Label("true"), l)
}
