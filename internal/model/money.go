package model

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatAmount renders amount with the symbol and separators of currency.
func FormatAmount(amount decimal.Decimal, currency string) string {
	cur := *money.New(0, currency).Currency()
	minor := amount.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(minor.IntPart())
}
