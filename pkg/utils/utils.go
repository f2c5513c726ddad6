package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GenerateStatementNumber builds a statement number such as FS-2026-1a2b3c4d
func GenerateStatementNumber(prefix string, issuedAt time.Time) string {
	return fmt.Sprintf("%s-%d-%s", prefix, issuedAt.Year(), shortID())
}

// GeneratePaymentReference builds a payment reference such as PAY-20261016-1a2b3c4d
func GeneratePaymentReference(createdAt time.Time) string {
	return fmt.Sprintf("PAY-%s-%s", createdAt.Format("20060102"), shortID())
}

func shortID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// IsPastDue reports whether dueDate lies strictly before now.
// A statement checked exactly at its due date is not past due.
func IsPastDue(dueDate, now time.Time) bool {
	return dueDate.Before(now)
}

// MoneyScale is the number of decimal places amounts are stored with
const MoneyScale = 2

// HasMoneyScale reports whether amount needs no more than MoneyScale decimal places.
// Trailing zeros are fine: 1.500 passes, 0.004 does not.
func HasMoneyScale(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(MoneyScale))
}

// FormatMoney renders an amount with two decimals and a currency code
func FormatMoney(amount decimal.Decimal, currency string) string {
	return fmt.Sprintf("%s %s", amount.StringFixed(2), currency)
}
