package features

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CreditScore/internal/domain/models"
)

func encoded() *models.EncodedApplication {
	return &models.EncodedApplication{
		CheckingStatus: "A14", Duration: 24, CreditHistory: "A32", Purpose: "A40",
		CreditAmount: 5000, Savings: "A65", Employment: "A75", InstallmentRate: 2,
		PersonalStatus: "A93", OtherDebtors: "A101", ResidenceSince: 3, Property: "A121",
		Age: 30, OtherInstallment: "A143", Housing: "A152", ExistingCredits: 1,
		Job: "A173", PeopleLiable: 1, Telephone: "A192", ForeignWorker: "A202",
	}
}

func TestColumnsOrder(t *testing.T) {
	assert.Equal(t, []string{
		"Checking_Status", "Duration", "Credit_History", "Purpose", "Credit_Amount",
		"Savings", "Employment", "Installment_Rate", "Personal_Status", "Other_Debtors",
		"Residence_Since", "Property", "Age", "Other_Installment", "Housing",
		"Existing_Credits", "Job", "People_Liable", "Telephone", "Foreign_Worker",
	}, Columns())
}

func TestBuildTypesAndValues(t *testing.T) {
	row := Build(encoded())
	require.Equal(t, 20, row.Len())

	numeric := map[string]bool{}
	for _, c := range NumericColumns() {
		numeric[c] = true
	}
	assert.Len(t, numeric, 7)

	for i, col := range row.Columns {
		if numeric[col] {
			assert.IsType(t, float64(0), row.Values[i], col)
		} else {
			assert.IsType(t, "", row.Values[i], col)
		}
	}

	v, ok := row.Value(ColCreditAmount)
	require.True(t, ok)
	assert.Equal(t, 5000.0, v)
	v, _ = row.Value(ColForeignWorker)
	assert.Equal(t, "A202", v)
}

func TestBuildSplitJSON(t *testing.T) {
	data, err := json.Marshal(Build(encoded()))
	require.NoError(t, err)

	var decoded models.FeatureRow
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, Columns(), decoded.Columns)
	assert.Contains(t, string(data), `"columns":["Checking_Status","Duration"`)
	assert.Contains(t, string(data), `"data":[["A14",24,"A32"`)
}

func TestCheckColumns(t *testing.T) {
	assert.NoError(t, CheckColumns(Columns()))
	assert.Error(t, CheckColumns(Columns()[:19]))

	swapped := Columns()
	swapped[0], swapped[1] = swapped[1], swapped[0]
	assert.Error(t, CheckColumns(swapped))
}
