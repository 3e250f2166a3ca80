package repository

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/nimasrn/backoffice-ledger/internal/model"
	"github.com/nimasrn/backoffice-ledger/pkg/logger"
	"github.com/shopspring/decimal"
)

// legacyAmount reads amounts written by older clients, which stored strings
// with currency symbols and thousands separators, or bare floats. A value
// that cannot be coerced reads as zero so one bad row cannot fail a whole
// party's aggregation.
type legacyAmount struct {
	decimal.Decimal
}

func newLegacyAmount(d decimal.Decimal) legacyAmount {
	return legacyAmount{Decimal: d}
}

func (a *legacyAmount) Scan(value any) error {
	d, err := model.ParseAmount(value)
	if err != nil {
		logger.Warn("unreadable stored amount treated as zero", "value", fmt.Sprintf("%v", value), "error", err)
		a.Decimal = decimal.Zero
		return nil
	}
	a.Decimal = d
	return nil
}

func (a legacyAmount) Value() (driver.Value, error) {
	return a.Decimal.String(), nil
}

// jsonList stores embedded line items as a JSON array.
type jsonList[T any] []T

func (l *jsonList[T]) Scan(value any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into json list", value)
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

func (l jsonList[T]) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]T(l))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}
