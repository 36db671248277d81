// Package domain contains persistence models for the fee item catalog.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// FeeItem is a named fee obligation offered by the school, referenced by
// invoice lines (tuition, transport, boarding, ...).
type FeeItem struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"type:text;not null;uniqueIndex:ux_fee_items_name" json:"name"`
	Description string       `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (FeeItem) TableName() string { return "fee_items" }
