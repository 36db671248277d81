package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateFeeItemRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ListFeeItemResponse struct {
	FeeItems []FeeItem `json:"fee_items"`
}

type Service interface {
	Create(ctx context.Context, req CreateFeeItemRequest) (FeeItem, error)
	List(ctx context.Context) (ListFeeItemResponse, error)
	GetByID(ctx context.Context, id snowflake.ID) (FeeItem, error)
}

var (
	ErrNotFound     = errors.New("fee_item_not_found")
	ErrInvalidName  = errors.New("invalid_fee_item_name")
	ErrNameConflict = errors.New("fee_item_name_conflict")
)
