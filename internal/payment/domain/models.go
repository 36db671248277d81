// Package domain contains persistence models for fee payments.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Payment records money received against one invoice. Payments are
// immutable once created; corrections are new documents.
type Payment struct {
	ID              snowflake.ID      `gorm:"primaryKey" json:"id"`
	InvoiceID       snowflake.ID      `gorm:"not null;index" json:"invoice_id"`
	PaymentNumber   string            `gorm:"type:text;not null;uniqueIndex:ux_payments_payment_number" json:"payment_number"`
	Amount          int64             `gorm:"not null" json:"amount"`
	PaymentMode     string            `gorm:"type:text;not null" json:"payment_mode"`
	ReferenceNumber string            `gorm:"type:text" json:"reference_number,omitempty"`
	Remarks         string            `gorm:"type:text" json:"remarks,omitempty"`
	Metadata        datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	Lines []PaymentLine `gorm:"-" json:"lines,omitempty"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// PaymentLine allocates part of a payment to one invoice line.
// Payment.Amount == sum of its lines.
type PaymentLine struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	PaymentID     snowflake.ID `gorm:"not null;index" json:"payment_id"`
	InvoiceLineID snowflake.ID `gorm:"not null;index" json:"invoice_line_id"`
	Amount        int64        `gorm:"not null" json:"amount"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (PaymentLine) TableName() string { return "payment_lines" }
