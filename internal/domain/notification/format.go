// Package notification builds customer-facing SMS alert messages and the
// payloads that carry them to the delivery worker. Message construction is
// pure; delivery happens elsewhere and is best-effort.
package notification

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MaskAccountNumber hides the middle of an account number, leaving the
// first two and last two characters visible. Numbers of four characters or
// fewer are returned unchanged.
func MaskAccountNumber(accountNumber string) string {
	if len(accountNumber) <= 4 {
		return accountNumber
	}
	var b strings.Builder
	b.WriteString(accountNumber[:2])
	for i := 0; i < len(accountNumber)-4; i++ {
		b.WriteByte('*')
	}
	b.WriteString(accountNumber[len(accountNumber)-2:])
	return b.String()
}

// FormatAmount renders a monetary amount with two decimal places and
// comma thousands separators, e.g. 1234567.5 -> "1,234,567.50".
func FormatAmount(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)

	negative := strings.HasPrefix(fixed, "-")
	if negative {
		fixed = fixed[1:]
	}

	dot := strings.IndexByte(fixed, '.')
	whole, frac := fixed[:dot], fixed[dot:]

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	b.WriteString(frac)
	return b.String()
}

// FormatTimestamp renders a transaction time as DD/MM/YYYY HH:mm in
// 24-hour notation.
func FormatTimestamp(t time.Time) string {
	return t.Format("02/01/2006 15:04")
}

// FormatLongDate renders a date with a long month name, e.g.
// "March 2, 2026".
func FormatLongDate(t time.Time) string {
	return t.Format("January 2, 2006")
}
