package repo

import (
	"fmt"

	"github.com/shopspring/decimal"
)

func parseDecimal(column, v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode %s: %w", column, err)
	}
	return d, nil
}

func parseNullDecimal(column string, v *string) (*decimal.Decimal, error) {
	if v == nil {
		return nil, nil
	}
	d, err := parseDecimal(column, *v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func decimalArg(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
