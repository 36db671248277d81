// Package domain contains persistence models for fee invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// InvoiceStatus represents invoice payment states.
type InvoiceStatus string

const (
	InvoiceStatusDue           InvoiceStatus = "due"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusFullyPaid     InvoiceStatus = "fully_paid"
)

// StatusFor derives the invoice status from its amounts. Status is never
// stored independently of the amounts that define it.
func StatusFor(totalAmount, paidAmount int64) InvoiceStatus {
	balance := totalAmount - paidAmount
	switch {
	case balance <= 0:
		return InvoiceStatusFullyPaid
	case paidAmount > 0:
		return InvoiceStatusPartiallyPaid
	default:
		return InvoiceStatusDue
	}
}

// Invoice bills a student's fee obligations for a term.
// Invariant: PaidAmount + Balance == TotalAmount.
type Invoice struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	StudentID     snowflake.ID  `gorm:"not null;index" json:"student_id"`
	InvoiceNumber string        `gorm:"type:text;not null;uniqueIndex:ux_invoices_invoice_number" json:"invoice_number"`
	TotalAmount   int64         `gorm:"not null" json:"total_amount"`
	PaidAmount    int64         `gorm:"not null;default:0" json:"paid_amount"`
	Balance       int64         `gorm:"not null" json:"balance"`
	Term          int           `gorm:"not null" json:"term"`
	AcademicYear  int           `gorm:"not null" json:"academic_year"`
	DueDate       time.Time     `gorm:"not null" json:"due_date"`
	Status        InvoiceStatus `gorm:"type:text;not null;default:'due';index" json:"status"`
	CreatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Lines []InvoiceLine `gorm:"-" json:"lines,omitempty"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceLine is one fee obligation within an invoice. The amount is the
// original obligation, fixed at creation; the remaining balance is always
// derived from payment lines.
type InvoiceLine struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	InvoiceID snowflake.ID `gorm:"not null;index" json:"invoice_id"`
	FeeItemID snowflake.ID `gorm:"not null;index" json:"fee_item_id"`
	Amount    int64        `gorm:"not null" json:"amount"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceLine) TableName() string { return "invoice_lines" }
