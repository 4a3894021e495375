package encoding

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// DefaultVersion identifies the built-in table. Bump it together with the
// classifier artifact whenever a code changes.
const DefaultVersion = "german-credit-v1"

// Entry maps one client label to a canonical code.
type Entry struct {
	Label string `yaml:"label"`
	Code  string `yaml:"code"`
}

// FieldMapping is the declarative form of one field's sub-mapping.
type FieldMapping struct {
	Name     string  `yaml:"name"`
	Fallback string  `yaml:"fallback,omitempty"`
	Entries  []Entry `yaml:"entries"`
}

// Mapping is the compiled, read-only sub-mapping of one categorical field.
type Mapping struct {
	field    string
	entries  []Entry
	index    map[string]string
	fallback string
}

// Lookup resolves an already lowercased label.
func (m *Mapping) Lookup(label string) (string, bool) {
	code, ok := m.index[label]
	return code, ok
}

// Fallback is the code substituted for labels the mapping does not know.
func (m *Mapping) Fallback() string { return m.fallback }

// Entries returns the mapping in definition order.
func (m *Mapping) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m *Mapping) hasCode(code string) bool {
	return lo.ContainsBy(m.entries, func(e Entry) bool { return e.Code == code })
}

// Table is the immutable label→code table shared by all requests.
type Table struct {
	version string
	fields  map[string]*Mapping
}

// Option adjusts a table while it is being built.
type Option func(*tableOptions)

type tableOptions struct {
	fallbacks map[string]string
}

// WithFallbacks overrides the fallback code per field. Each code must belong
// to that field's mapping.
func WithFallbacks(fallbacks map[string]string) Option {
	return func(o *tableOptions) {
		for field, code := range fallbacks {
			o.fallbacks[field] = code
		}
	}
}

// NewTable compiles and validates a table.
func NewTable(version string, mappings []FieldMapping, opts ...Option) (*Table, error) {
	if version == "" {
		return nil, errors.New("encoding table: version is required")
	}
	options := &tableOptions{fallbacks: map[string]string{}}
	for _, opt := range opts {
		opt(options)
	}

	t := &Table{version: version, fields: make(map[string]*Mapping, len(mappings))}
	for _, fm := range mappings {
		spec, ok := lookupField(fm.Name)
		if !ok {
			return nil, fmt.Errorf("encoding table: unknown field %q", fm.Name)
		}
		if spec.Kind != KindCategorical {
			return nil, fmt.Errorf("encoding table: field %q is numeric", fm.Name)
		}
		if _, dup := t.fields[fm.Name]; dup {
			return nil, fmt.Errorf("encoding table: field %q defined twice", fm.Name)
		}
		m, err := compileMapping(fm)
		if err != nil {
			return nil, err
		}
		t.fields[fm.Name] = m
	}

	for _, name := range CategoricalFields() {
		if _, ok := t.fields[name]; !ok {
			return nil, fmt.Errorf("encoding table: missing mapping for %q", name)
		}
	}

	for field, code := range options.fallbacks {
		m, ok := t.fields[field]
		if !ok {
			return nil, fmt.Errorf("encoding table: fallback for unknown field %q", field)
		}
		if !m.hasCode(code) {
			return nil, fmt.Errorf("encoding table: fallback %q is not a code of %q", code, field)
		}
		m.fallback = code
	}

	return t, nil
}

func compileMapping(fm FieldMapping) (*Mapping, error) {
	if len(fm.Entries) == 0 {
		return nil, fmt.Errorf("encoding table: field %q has no entries", fm.Name)
	}
	m := &Mapping{
		field:   fm.Name,
		entries: make([]Entry, 0, len(fm.Entries)),
		index:   make(map[string]string, len(fm.Entries)),
	}
	for _, e := range fm.Entries {
		label := strings.ToLower(e.Label)
		if label == "" || e.Code == "" {
			return nil, fmt.Errorf("encoding table: field %q has an empty label or code", fm.Name)
		}
		if _, dup := m.index[label]; dup {
			return nil, fmt.Errorf("encoding table: field %q repeats label %q", fm.Name, label)
		}
		m.index[label] = e.Code
		m.entries = append(m.entries, Entry{Label: label, Code: e.Code})
	}

	m.fallback = m.entries[len(m.entries)-1].Code
	if fm.Fallback != "" {
		if !m.hasCode(fm.Fallback) {
			return nil, fmt.Errorf("encoding table: fallback %q is not a code of %q", fm.Fallback, fm.Name)
		}
		m.fallback = fm.Fallback
	}
	return m, nil
}

// Version identifies the vocabulary this table produces.
func (t *Table) Version() string { return t.version }

// Mapping returns the sub-mapping of a categorical field.
func (t *Table) Mapping(field string) (*Mapping, bool) {
	m, ok := t.fields[field]
	return m, ok
}

type tableFile struct {
	Version string         `yaml:"version"`
	Fields  []FieldMapping `yaml:"fields"`
}

// ParseTable builds a table from its YAML form.
func ParseTable(data []byte, opts ...Option) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("encoding table: parse: %w", err)
	}
	return NewTable(f.Version, f.Fields, opts...)
}

// LoadTable reads a YAML table file.
func LoadTable(path string, opts ...Option) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("encoding table: read %s: %w", path, err)
	}
	return ParseTable(data, opts...)
}

// DefaultTable returns the German Credit vocabulary the bundled classifier
// was trained on.
func DefaultTable(opts ...Option) (*Table, error) {
	return NewTable(DefaultVersion, DefaultMappings(), opts...)
}

// DefaultMappings returns the built-in table in definition order.
func DefaultMappings() []FieldMapping {
	return []FieldMapping{
		{Name: "checking_status", Entries: []Entry{
			{"less_than_0_dm", "A11"},
			{"0_to_200_dm", "A12"},
			{"more_than_200_dm", "A13"},
			{"no_account", "A14"},
		}},
		{Name: "credit_history", Entries: []Entry{
			{"no_credits_taken", "A30"},
			{"all_paid_back", "A31"},
			{"existing_paid_back", "A32"},
			{"delay_in_payment", "A33"},
			{"critical_account", "A34"},
		}},
		{Name: "purpose", Entries: []Entry{
			{"car_new", "A40"},
			{"car_used", "A41"},
			{"furniture_equipment", "A42"},
			{"radio_tv", "A43"},
			{"domestic_appliances", "A44"},
			{"repairs", "A45"},
			{"education", "A46"},
			{"retraining", "A48"},
			{"business", "A49"},
			{"other", "A410"},
		}},
		{Name: "savings", Entries: []Entry{
			{"0", "A61"},
			{"1", "A62"},
			{"2", "A63"},
			{"3", "A64"},
			{"4", "A65"},
			{"unknown", "A65"},
		}},
		{Name: "employment", Entries: []Entry{
			{"0", "A71"},
			{"1", "A72"},
			{"2", "A73"},
			{"3", "A74"},
			{"4", "A75"},
		}},
		{Name: "personal_status", Entries: []Entry{
			{"male_divorced_separated", "A91"},
			{"female_divorced_separated_married", "A92"},
			{"male_single", "A93"},
			{"male_married_widowed", "A94"},
			{"female_single", "A95"},
		}},
		{Name: "other_debtors", Entries: []Entry{
			{"none", "A101"},
			{"co_applicant", "A102"},
			{"guarantor", "A103"},
		}},
		{Name: "property", Entries: []Entry{
			{"real_estate", "A121"},
			{"building_society_savings", "A122"},
			{"car_or_other", "A123"},
			{"unknown_none", "A124"},
		}},
		{Name: "other_installment", Entries: []Entry{
			{"bank", "A141"},
			{"stores", "A142"},
			{"none", "A143"},
		}},
		{Name: "housing", Entries: []Entry{
			{"rent", "A151"},
			{"own", "A152"},
			{"for_free", "A153"},
		}},
		{Name: "job", Entries: []Entry{
			{"unemployed_unskilled_non_resident", "A171"},
			{"unskilled_resident", "A172"},
			{"skilled_employee", "A173"},
			{"management_self_employed_highly_qualified", "A174"},
		}},
		{Name: "telephone", Entries: []Entry{
			{"none", "A191"},
			{"yes_registered", "A192"},
		}},
		{Name: "foreign_worker", Entries: []Entry{
			{"yes", "A201"},
			{"no", "A202"},
		}},
	}
}
