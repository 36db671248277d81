package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/shulepay/shulepay/internal/invoice/domain"
	studentdomain "github.com/shulepay/shulepay/internal/student/domain"
)

type Allocation struct {
	InvoiceLineID snowflake.ID `json:"invoice_line_id"`
	Amount        int64        `json:"amount"`
}

type RecordPaymentRequest struct {
	InvoiceID       snowflake.ID `json:"invoice_id"`
	PaymentMode     string       `json:"payment_mode"`
	ReferenceNumber string       `json:"reference_number"`
	Remarks         string       `json:"remarks"`
	Allocations     []Allocation `json:"allocations"`
}

type ListPaymentRequest struct {
	InvoiceID *snowflake.ID
}

type ListPaymentResponse struct {
	Payments []Payment `json:"payments"`
}

// ReceiptLine is one allocation of a receipt with its fee label.
type ReceiptLine struct {
	InvoiceLineID snowflake.ID `json:"invoice_line_id"`
	FeeItem       string       `json:"fee_item"`
	Amount        int64        `json:"amount"`
}

// Receipt is the full context a receipt view renders for one payment.
type Receipt struct {
	Payment Payment               `json:"payment"`
	Lines   []ReceiptLine         `json:"lines"`
	Invoice invoicedomain.Invoice `json:"invoice"`
	Student studentdomain.Student `json:"student"`
}

type Service interface {
	Record(ctx context.Context, req RecordPaymentRequest) (Payment, error)
	GetReceipt(ctx context.Context, paymentID snowflake.ID) (Receipt, error)
	List(ctx context.Context, req ListPaymentRequest) (ListPaymentResponse, error)
}

var (
	ErrNotFound            = errors.New("payment_not_found")
	ErrInvalidInvoice      = errors.New("invalid_invoice")
	ErrInvalidPaymentMode  = errors.New("invalid_payment_mode")
	ErrEmptyAllocations    = errors.New("invalid_allocations")
	ErrInvalidAllocation   = errors.New("invalid_allocation_amount")
	ErrZeroTotal           = errors.New("invalid_total_amount")
	ErrUnknownInvoiceLine  = errors.New("invalid_invoice_line")
	ErrOverAllocation      = errors.New("allocation_exceeds_balance")
	ErrDuplicateAllocation = errors.New("duplicate_allocation_line")
)
