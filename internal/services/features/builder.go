package features

import (
	"fmt"

	"github.com/samber/lo"

	"CreditScore/internal/domain/models"
)

// Column names in the order the classifier was fit on.
const (
	ColCheckingStatus   = "Checking_Status"
	ColDuration         = "Duration"
	ColCreditHistory    = "Credit_History"
	ColPurpose          = "Purpose"
	ColCreditAmount     = "Credit_Amount"
	ColSavings          = "Savings"
	ColEmployment       = "Employment"
	ColInstallmentRate  = "Installment_Rate"
	ColPersonalStatus   = "Personal_Status"
	ColOtherDebtors     = "Other_Debtors"
	ColResidenceSince   = "Residence_Since"
	ColProperty         = "Property"
	ColAge              = "Age"
	ColOtherInstallment = "Other_Installment"
	ColHousing          = "Housing"
	ColExistingCredits  = "Existing_Credits"
	ColJob              = "Job"
	ColPeopleLiable     = "People_Liable"
	ColTelephone        = "Telephone"
	ColForeignWorker    = "Foreign_Worker"
)

type column struct {
	name    string
	numeric bool
	value   func(*models.EncodedApplication) any
}

func code(get func(*models.EncodedApplication) string) func(*models.EncodedApplication) any {
	return func(e *models.EncodedApplication) any { return get(e) }
}

func number(get func(*models.EncodedApplication) float64) func(*models.EncodedApplication) any {
	return func(e *models.EncodedApplication) any { return get(e) }
}

var layout = []column{
	{ColCheckingStatus, false, code(func(e *models.EncodedApplication) string { return e.CheckingStatus })},
	{ColDuration, true, number(func(e *models.EncodedApplication) float64 { return e.Duration })},
	{ColCreditHistory, false, code(func(e *models.EncodedApplication) string { return e.CreditHistory })},
	{ColPurpose, false, code(func(e *models.EncodedApplication) string { return e.Purpose })},
	{ColCreditAmount, true, number(func(e *models.EncodedApplication) float64 { return e.CreditAmount })},
	{ColSavings, false, code(func(e *models.EncodedApplication) string { return e.Savings })},
	{ColEmployment, false, code(func(e *models.EncodedApplication) string { return e.Employment })},
	{ColInstallmentRate, true, number(func(e *models.EncodedApplication) float64 { return e.InstallmentRate })},
	{ColPersonalStatus, false, code(func(e *models.EncodedApplication) string { return e.PersonalStatus })},
	{ColOtherDebtors, false, code(func(e *models.EncodedApplication) string { return e.OtherDebtors })},
	{ColResidenceSince, true, number(func(e *models.EncodedApplication) float64 { return e.ResidenceSince })},
	{ColProperty, false, code(func(e *models.EncodedApplication) string { return e.Property })},
	{ColAge, true, number(func(e *models.EncodedApplication) float64 { return e.Age })},
	{ColOtherInstallment, false, code(func(e *models.EncodedApplication) string { return e.OtherInstallment })},
	{ColHousing, false, code(func(e *models.EncodedApplication) string { return e.Housing })},
	{ColExistingCredits, true, number(func(e *models.EncodedApplication) float64 { return e.ExistingCredits })},
	{ColJob, false, code(func(e *models.EncodedApplication) string { return e.Job })},
	{ColPeopleLiable, true, number(func(e *models.EncodedApplication) float64 { return e.PeopleLiable })},
	{ColTelephone, false, code(func(e *models.EncodedApplication) string { return e.Telephone })},
	{ColForeignWorker, false, code(func(e *models.EncodedApplication) string { return e.ForeignWorker })},
}

// Columns returns the fixed column order.
func Columns() []string {
	return lo.Map(layout, func(c column, _ int) string { return c.name })
}

// NumericColumns returns the columns carried as float64.
func NumericColumns() []string {
	return lo.FilterMap(layout, func(c column, _ int) (string, bool) { return c.name, c.numeric })
}

// Build lays an encoded application out as a classifier row.
func Build(enc *models.EncodedApplication) models.FeatureRow {
	return models.FeatureRow{
		Columns: Columns(),
		Values:  lo.Map(layout, func(c column, _ int) any { return c.value(enc) }),
	}
}

// CheckColumns reports the first difference between got and the fixed layout.
func CheckColumns(got []string) error {
	want := Columns()
	if len(got) != len(want) {
		return fmt.Errorf("expected %d columns, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("column %d: expected %q, got %q", i, want[i], got[i])
		}
	}
	return nil
}
