// Package sequence allocates document numbers in year-scoped, prefix-scoped
// series (for example INV/2025/0042). Serials are derived from the documents
// that already exist, never from a stored counter, so every process instance
// agrees on the next value.
package sequence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// ErrConflict signals that a concurrently allocated serial collided on the
// unique document-number index. The enclosing transaction has been rolled
// back; re-submitting the operation is the caller's decision.
var ErrConflict = errors.New("document_number_conflict")

// Series names the table column that carries a document-number series.
type Series struct {
	Table  string
	Column string
}

var (
	InvoiceSeries = Series{Table: "invoices", Column: "invoice_number"}
	ReceiptSeries = Series{Table: "payments", Column: "payment_number"}
)

// Format renders a document number. Serials wider than padWidth are not
// truncated; the numeric suffix simply grows.
func Format(prefix string, year int, serial int64, padWidth int) string {
	return fmt.Sprintf("%s/%d/%0*d", prefix, year, padWidth, serial)
}

// ParseSerial extracts the numeric serial suffix of a document number.
// Malformed numbers yield 0 so a stray row cannot poison the series.
func ParseSerial(number string) int64 {
	idx := strings.LastIndex(number, "/")
	if idx < 0 || idx == len(number)-1 {
		return 0
	}
	serial, err := strconv.ParseInt(number[idx+1:], 10, 64)
	if err != nil {
		return 0
	}
	return serial
}

// MaxSerial returns the highest existing serial for prefix/year, 0 when the
// series is empty. It must run on the same transaction that inserts the
// document consuming the next serial.
func MaxSerial(tx *gorm.DB, series Series, prefix string, year int) (int64, error) {
	var numbers []string
	err := tx.Table(series.Table).
		Where(series.Column+" LIKE ?", fmt.Sprintf("%s/%d/%%", prefix, year)).
		Pluck(series.Column, &numbers).Error
	if err != nil {
		return 0, err
	}

	var max int64
	for _, number := range numbers {
		if serial := ParseSerial(number); serial > max {
			max = serial
		}
	}
	return max, nil
}

// Next computes the next document number for prefix/year on tx. The returned
// number is only unique if the caller inserts the consuming row on the same
// transaction; the unique index on the column backs it up, surfacing
// concurrent collisions as ErrConflict at insert time.
func Next(tx *gorm.DB, series Series, prefix string, year, padWidth int) (string, error) {
	max, err := MaxSerial(tx, series, prefix, year)
	if err != nil {
		return "", err
	}
	return Format(prefix, year, max+1, padWidth), nil
}
