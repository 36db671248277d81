package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type CreateInvoiceLine struct {
	FeeItemID snowflake.ID `json:"fee_item_id"`
	Amount    int64        `json:"amount"`
}

type CreateInvoiceRequest struct {
	StudentID    snowflake.ID        `json:"student_id"`
	Term         int                 `json:"term"`
	AcademicYear int                 `json:"academic_year"`
	DueDate      time.Time           `json:"due_date"`
	Lines        []CreateInvoiceLine `json:"lines"`
}

type ListInvoiceRequest struct {
	StudentID *snowflake.ID
	Status    *InvoiceStatus
	OpenOnly  bool
}

type ListInvoiceResponse struct {
	Invoices []Invoice `json:"invoices"`
}

// LineBalance is the derived payment position of one invoice line.
type LineBalance struct {
	InvoiceLineID    snowflake.ID `json:"invoice_line_id"`
	FeeItem          string       `json:"fee_item"`
	OriginalAmount   int64        `json:"original_amount"`
	PaidAmount       int64        `json:"paid_amount"`
	RemainingBalance int64        `json:"remaining_balance"`
}

type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (Invoice, error)
	GetByID(ctx context.Context, id snowflake.ID) (Invoice, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	// LineBalances returns the lines of an invoice that still carry a
	// remaining balance, ordered by fee item name.
	LineBalances(ctx context.Context, invoiceID snowflake.ID) ([]LineBalance, error)
}

var (
	ErrNotFound            = errors.New("invoice_not_found")
	ErrInvalidStudent      = errors.New("invalid_student")
	ErrStudentNotActive    = errors.New("student_not_active")
	ErrInvalidTerm         = errors.New("invalid_term")
	ErrInvalidAcademicYear = errors.New("invalid_academic_year")
	ErrInvalidDueDate      = errors.New("invalid_due_date")
	ErrEmptyLines          = errors.New("invalid_lines")
	ErrInvalidLineAmount   = errors.New("invalid_line_amount")
	ErrUnknownFeeItem      = errors.New("invalid_fee_item")
)
