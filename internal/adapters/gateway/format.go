package gateway

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// AmountFixed renders two decimal places, "100.25".
func AmountFixed(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// AmountMinor renders integer minor units, 100.25 -> 10025.
func AmountMinor(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// AmountMinorString is AmountMinor as text.
func AmountMinorString(d decimal.Decimal) string {
	return strconv.FormatInt(AmountMinor(d), 10)
}

// ParseMinor turns integer minor units back into an amount.
func ParseMinor(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Shift(-2), nil
}

// The installment helpers collapse counts of one or less to each gateway's "single payment"
// representation.

func InstallmentEmpty(n int) string {
	if n <= 1 {
		return ""
	}
	return strconv.Itoa(n)
}

func InstallmentZero(n int) int {
	if n <= 1 {
		return 0
	}
	return n
}

func InstallmentZeroString(n int) string {
	return strconv.Itoa(InstallmentZero(n))
}

func InstallmentPadded(n int) string {
	if n <= 1 {
		return "00"
	}
	return fmt.Sprintf("%02d", n)
}

func InstallmentOne(n int) int {
	if n <= 1 {
		return 1
	}
	return n
}
