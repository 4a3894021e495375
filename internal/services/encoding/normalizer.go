package encoding

import (
	"errors"
	"fmt"
	"strings"

	"CreditScore/internal/domain/models"
	"CreditScore/internal/domain/service"
	"CreditScore/pkg/logger"
)

// Normalizer replaces client labels with canonical codes.
type Normalizer struct {
	table     *Table
	log       *logger.Logger
	fallbacks service.FallbackRecorder
}

// NewNormalizer wires a normalizer to a table. fallbacks may be nil.
func NewNormalizer(table *Table, log *logger.Logger, fallbacks service.FallbackRecorder) *Normalizer {
	if log == nil {
		log = logger.Nop()
	}
	return &Normalizer{table: table, log: log, fallbacks: fallbacks}
}

// Table returns the table the normalizer encodes with.
func (n *Normalizer) Table() *Table { return n.table }

// Normalize encodes every categorical field and coerces every numeric one.
// Unknown labels never fail: the field's fallback code is used and a warning
// is logged.
func (n *Normalizer) Normalize(raw *models.RawApplication) (*models.EncodedApplication, error) {
	if raw == nil {
		return nil, errors.New("normalize: nil application")
	}

	out := &models.EncodedApplication{}
	for _, f := range schema {
		switch f.Kind {
		case KindNumeric:
			f.setNumber(out, f.number(raw))
		case KindCategorical:
			m, ok := n.table.Mapping(f.Name)
			if !ok {
				return nil, fmt.Errorf("normalize: no mapping for %s", f.Name)
			}
			f.setCode(out, n.encode(m, f.Name, f.label(raw)))
		}
	}
	return out, nil
}

func (n *Normalizer) encode(m *Mapping, field string, label models.Label) string {
	key := strings.ToLower(string(label))
	if code, ok := m.Lookup(key); ok {
		return code
	}

	n.log.Warn("Unknown category, using fallback code",
		logger.String("field", field),
		logger.String("value", key),
		logger.String("fallback", m.Fallback()),
	)
	if n.fallbacks != nil {
		n.fallbacks.RecordFallback(field)
	}
	return m.Fallback()
}
