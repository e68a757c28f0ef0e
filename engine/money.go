package engine

import (
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits kept for currency amounts.
const MoneyScale = 2

// MustParseDecimal parses s and returns zero on malformed input.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatMoney renders an amount in its canonical stored form. The ledger
// uniqueness key compares this text, so every writer must go through it.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyScale)
}

// FormatHours renders hours without trailing zeros.
func FormatHours(d decimal.Decimal) string {
	return d.String()
}

// HasMoneyPrecision reports whether d fits in MoneyScale fractional digits.
func HasMoneyPrecision(d decimal.Decimal) bool {
	return d.Round(MoneyScale).Equal(d)
}

// SignedAmount applies the ledger sign convention: revenue is stored >= 0 and
// expense <= 0, whatever sign the producer supplied.
func SignedAmount(txType TransactionType, amount decimal.Decimal) decimal.Decimal {
	if txType == TxExpense {
		return amount.Abs().Neg()
	}
	return amount.Abs()
}

// Sum adds a slice of decimals.
func Sum(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
