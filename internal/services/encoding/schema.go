package encoding

import (
	"github.com/samber/lo"

	"CreditScore/internal/domain/models"
)

// Kind says how a field of the application is handled during encoding.
type Kind int

const (
	KindCategorical Kind = iota
	KindNumeric
)

func (k Kind) String() string {
	if k == KindCategorical {
		return "categorical"
	}
	return "numeric"
}

// FieldSpec binds one application field to its accessors. Categorical fields
// use label/setCode, numeric fields use number/setNumber.
type FieldSpec struct {
	Name string
	Kind Kind

	label     func(*models.RawApplication) models.Label
	setCode   func(*models.EncodedApplication, string)
	number    func(*models.RawApplication) float64
	setNumber func(*models.EncodedApplication, float64)
}

func categorical(name string, get func(*models.RawApplication) models.Label, set func(*models.EncodedApplication, string)) FieldSpec {
	return FieldSpec{Name: name, Kind: KindCategorical, label: get, setCode: set}
}

func numeric(name string, get func(*models.RawApplication) float64, set func(*models.EncodedApplication, float64)) FieldSpec {
	return FieldSpec{Name: name, Kind: KindNumeric, number: get, setNumber: set}
}

// schema lists every application field in wire order.
var schema = []FieldSpec{
	categorical(models.FieldCheckingStatus,
		func(r *models.RawApplication) models.Label { return r.CheckingStatus },
		func(e *models.EncodedApplication, c string) { e.CheckingStatus = c }),
	numeric(models.FieldDuration,
		func(r *models.RawApplication) float64 { return float64(r.Duration) },
		func(e *models.EncodedApplication, v float64) { e.Duration = v }),
	categorical(models.FieldCreditHistory,
		func(r *models.RawApplication) models.Label { return r.CreditHistory },
		func(e *models.EncodedApplication, c string) { e.CreditHistory = c }),
	categorical(models.FieldPurpose,
		func(r *models.RawApplication) models.Label { return r.Purpose },
		func(e *models.EncodedApplication, c string) { e.Purpose = c }),
	numeric(models.FieldCreditAmount,
		func(r *models.RawApplication) float64 { return r.CreditAmount },
		func(e *models.EncodedApplication, v float64) { e.CreditAmount = v }),
	categorical(models.FieldSavings,
		func(r *models.RawApplication) models.Label { return r.Savings },
		func(e *models.EncodedApplication, c string) { e.Savings = c }),
	categorical(models.FieldEmployment,
		func(r *models.RawApplication) models.Label { return r.Employment },
		func(e *models.EncodedApplication, c string) { e.Employment = c }),
	numeric(models.FieldInstallmentRate,
		func(r *models.RawApplication) float64 { return float64(r.InstallmentRate) },
		func(e *models.EncodedApplication, v float64) { e.InstallmentRate = v }),
	categorical(models.FieldPersonalStatus,
		func(r *models.RawApplication) models.Label { return r.PersonalStatus },
		func(e *models.EncodedApplication, c string) { e.PersonalStatus = c }),
	categorical(models.FieldOtherDebtors,
		func(r *models.RawApplication) models.Label { return r.OtherDebtors },
		func(e *models.EncodedApplication, c string) { e.OtherDebtors = c }),
	numeric(models.FieldResidenceSince,
		func(r *models.RawApplication) float64 { return float64(r.ResidenceSince) },
		func(e *models.EncodedApplication, v float64) { e.ResidenceSince = v }),
	categorical(models.FieldProperty,
		func(r *models.RawApplication) models.Label { return r.Property },
		func(e *models.EncodedApplication, c string) { e.Property = c }),
	numeric(models.FieldAge,
		func(r *models.RawApplication) float64 { return float64(r.Age) },
		func(e *models.EncodedApplication, v float64) { e.Age = v }),
	categorical(models.FieldOtherInstallment,
		func(r *models.RawApplication) models.Label { return r.OtherInstallment },
		func(e *models.EncodedApplication, c string) { e.OtherInstallment = c }),
	categorical(models.FieldHousing,
		func(r *models.RawApplication) models.Label { return r.Housing },
		func(e *models.EncodedApplication, c string) { e.Housing = c }),
	numeric(models.FieldExistingCredits,
		func(r *models.RawApplication) float64 { return float64(r.ExistingCredits) },
		func(e *models.EncodedApplication, v float64) { e.ExistingCredits = v }),
	categorical(models.FieldJob,
		func(r *models.RawApplication) models.Label { return r.Job },
		func(e *models.EncodedApplication, c string) { e.Job = c }),
	numeric(models.FieldPeopleLiable,
		func(r *models.RawApplication) float64 { return float64(r.PeopleLiable) },
		func(e *models.EncodedApplication, v float64) { e.PeopleLiable = v }),
	categorical(models.FieldTelephone,
		func(r *models.RawApplication) models.Label { return r.Telephone },
		func(e *models.EncodedApplication, c string) { e.Telephone = c }),
	categorical(models.FieldForeignWorker,
		func(r *models.RawApplication) models.Label { return r.ForeignWorker },
		func(e *models.EncodedApplication, c string) { e.ForeignWorker = c }),
}

// Schema returns the field handlers in wire order.
func Schema() []FieldSpec {
	out := make([]FieldSpec, len(schema))
	copy(out, schema)
	return out
}

// CategoricalFields returns the names of fields that must have a mapping.
func CategoricalFields() []string {
	return lo.FilterMap(schema, func(f FieldSpec, _ int) (string, bool) {
		return f.Name, f.Kind == KindCategorical
	})
}

func lookupField(name string) (FieldSpec, bool) {
	return lo.Find(schema, func(f FieldSpec) bool { return f.Name == name })
}
