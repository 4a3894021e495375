package encoding

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CreditScore/internal/domain/models"
	"CreditScore/pkg/logger"
)

type fallbackCounter map[string]int

func (c fallbackCounter) RecordFallback(field string) { c[field]++ }

func lowRiskApplication() *models.RawApplication {
	return &models.RawApplication{
		CheckingStatus:   "no_account",
		Duration:         24,
		CreditHistory:    "existing_paid_back",
		Purpose:          "car_new",
		CreditAmount:     5000,
		Savings:          "4",
		Employment:       "4",
		InstallmentRate:  2,
		PersonalStatus:   "male_single",
		OtherDebtors:     "none",
		ResidenceSince:   3,
		Property:         "real_estate",
		Age:              30,
		OtherInstallment: "none",
		Housing:          "own",
		ExistingCredits:  1,
		Job:              "skilled_employee",
		PeopleLiable:     1,
		Telephone:        "yes_registered",
		ForeignWorker:    "no",
	}
}

func setLabel(t *testing.T, raw *models.RawApplication, field string, label models.Label) {
	t.Helper()
	spec, ok := lookupField(field)
	require.True(t, ok, field)
	require.Equal(t, KindCategorical, spec.Kind, field)

	// round-trip through JSON so the test exercises the same path as a request
	data, err := json.Marshal(raw)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	fields[field] = string(label)
	data, err = json.Marshal(fields)
	require.NoError(t, err)
	*raw = models.RawApplication{}
	require.NoError(t, json.Unmarshal(data, raw))
}

func encodedCode(enc *models.EncodedApplication, field string) string {
	data, _ := json.Marshal(enc)
	var fields map[string]any
	_ = json.Unmarshal(data, &fields)
	s, _ := fields[field].(string)
	return s
}

func TestNormalizeEveryDefaultLabel(t *testing.T) {
	table, err := DefaultTable()
	require.NoError(t, err)
	n := NewNormalizer(table, logger.Nop(), nil)

	for _, fm := range DefaultMappings() {
		for _, e := range fm.Entries {
			t.Run(fm.Name+"/"+e.Label, func(t *testing.T) {
				raw := lowRiskApplication()
				setLabel(t, raw, fm.Name, models.Label(e.Label))

				enc, err := n.Normalize(raw)
				require.NoError(t, err)
				assert.Equal(t, e.Code, encodedCode(enc, fm.Name))
			})
		}
	}
}

func TestNormalizeIsCaseInsensitive(t *testing.T) {
	table, err := DefaultTable()
	require.NoError(t, err)
	raw := lowRiskApplication()
	raw.Housing = "OWN"
	raw.CheckingStatus = "Less_Than_0_DM"

	enc, err := NewNormalizer(table, logger.Nop(), nil).Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "A152", enc.Housing)
	assert.Equal(t, "A11", enc.CheckingStatus)
}

func TestNormalizeUnknownLabelUsesLastEntry(t *testing.T) {
	table, err := DefaultTable()
	require.NoError(t, err)

	for _, fm := range DefaultMappings() {
		t.Run(fm.Name, func(t *testing.T) {
			var buf bytes.Buffer
			counter := fallbackCounter{}
			n := NewNormalizer(table, logger.NewWithWriter(&buf), counter)

			raw := lowRiskApplication()
			setLabel(t, raw, fm.Name, "definitely-not-a-label")

			enc, err := n.Normalize(raw)
			require.NoError(t, err)
			assert.Equal(t, fm.Entries[len(fm.Entries)-1].Code, encodedCode(enc, fm.Name))
			assert.Equal(t, 1, counter[fm.Name])
			assert.Contains(t, buf.String(), `"level":"warn"`)
			assert.Contains(t, buf.String(), `"field":"`+fm.Name+`"`)
			assert.Contains(t, buf.String(), `"value":"definitely-not-a-label"`)
		})
	}
}

func TestNormalizeConfiguredFallback(t *testing.T) {
	table, err := DefaultTable(WithFallbacks(map[string]string{"savings": "A61"}))
	require.NoError(t, err)
	raw := lowRiskApplication()
	raw.Savings = "lots"

	enc, err := NewNormalizer(table, logger.Nop(), nil).Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "A61", enc.Savings)
}

func TestNormalizeNumericLabelMatchesStringLabel(t *testing.T) {
	table, err := DefaultTable()
	require.NoError(t, err)
	n := NewNormalizer(table, logger.Nop(), nil)

	payload := func(employment string) *models.RawApplication {
		data, err := json.Marshal(lowRiskApplication())
		require.NoError(t, err)
		var fields map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &fields))
		fields["employment"] = json.RawMessage(employment)
		data, err = json.Marshal(fields)
		require.NoError(t, err)
		var raw models.RawApplication
		require.NoError(t, json.Unmarshal(data, &raw))
		return &raw
	}

	fromNumber, err := n.Normalize(payload(`0`))
	require.NoError(t, err)
	fromString, err := n.Normalize(payload(`"0"`))
	require.NoError(t, err)

	assert.Equal(t, "A71", fromNumber.Employment)
	assert.Equal(t, fromString.Employment, fromNumber.Employment)
}

func TestNormalizeCoercesNumerics(t *testing.T) {
	table, err := DefaultTable()
	require.NoError(t, err)
	raw := lowRiskApplication()

	enc, err := NewNormalizer(table, logger.Nop(), nil).Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, 24.0, enc.Duration)
	assert.Equal(t, 5000.0, enc.CreditAmount)
	assert.Equal(t, 2.0, enc.InstallmentRate)
	assert.Equal(t, 3.0, enc.ResidenceSince)
	assert.Equal(t, 30.0, enc.Age)
	assert.Equal(t, 1.0, enc.ExistingCredits)
	assert.Equal(t, 1.0, enc.PeopleLiable)
}

func TestNormalizeNilApplication(t *testing.T) {
	table, err := DefaultTable()
	require.NoError(t, err)
	_, err = NewNormalizer(table, nil, nil).Normalize(nil)
	assert.Error(t, err)
}
