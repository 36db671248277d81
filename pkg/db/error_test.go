package db_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shulepay/shulepay/pkg/db"
	"gorm.io/gorm"
)

type uniqueRow struct {
	ID   int64  `gorm:"primaryKey"`
	Code string `gorm:"uniqueIndex;size:32"`
}

func TestIsDuplicateKeyErr(t *testing.T) {
	dsn := fmt.Sprintf("file:memdb_dberr_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&uniqueRow{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if err := conn.Create(&uniqueRow{ID: 1, Code: "INV/2025/0001"}).Error; err != nil {
		t.Fatalf("first insert: %v", err)
	}

	err = conn.Create(&uniqueRow{ID: 2, Code: "INV/2025/0001"}).Error
	if err == nil {
		t.Fatal("expected unique violation")
	}
	if !db.IsDuplicateKeyErr(err) {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}

func TestIsDuplicateKeyErrStrings(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{gorm.ErrDuplicatedKey, true},
		{errors.New(`ERROR: duplicate key value violates unique constraint "idx_invoices_invoice_number" (SQLSTATE 23505)`), true},
		{errors.New("Error 1062 (23000): Duplicate entry 'RCP/2025/0001' for key 'payments.idx_payments_payment_number'"), true},
		{errors.New("constraint failed: UNIQUE constraint failed: invoices.invoice_number (2067)"), true},
		{gorm.ErrRecordNotFound, false},
		{errors.New("connection refused"), false},
	}

	for _, tc := range cases {
		if got := db.IsDuplicateKeyErr(tc.err); got != tc.want {
			t.Fatalf("IsDuplicateKeyErr(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
