package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	feeitemdomain "github.com/shulepay/shulepay/internal/feeitem/domain"
	"gorm.io/gorm"
)

var defaultFeeItems = []string{
	"Tuition",
	"Transport",
	"Boarding",
	"Lunch",
	"Activity",
}

// EnsureDefaultFeeItems seeds the fee catalog so a fresh install can raise
// invoices immediately.
func EnsureDefaultFeeItems(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range defaultFeeItems {
			var existing feeitemdomain.FeeItem
			err := tx.Where("name = ?", name).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			item := feeitemdomain.FeeItem{
				ID:   node.Generate(),
				Name: name,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
