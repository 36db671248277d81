package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shulepay/shulepay/internal/feeitem/domain"
	"github.com/shulepay/shulepay/pkg/db"
	"github.com/shulepay/shulepay/pkg/db/option"
	"github.com/shulepay/shulepay/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  repository.Repository[domain.FeeItem]
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("feeitem.service"),
		genID: p.GenID,
		repo:  repository.ProvideStore[domain.FeeItem](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateFeeItemRequest) (domain.FeeItem, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.FeeItem{}, domain.ErrInvalidName
	}

	item := domain.FeeItem{
		ID:          s.genID.Generate(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
	}

	if err := s.repo.Create(ctx, &item); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.FeeItem{}, domain.ErrNameConflict
		}
		s.log.Error("create fee item", zap.Error(err))
		return domain.FeeItem{}, err
	}

	return item, nil
}

func (s *Service) List(ctx context.Context) (domain.ListFeeItemResponse, error) {
	items, err := s.repo.Find(ctx, &domain.FeeItem{},
		option.WithSortBy(option.QuerySortBy{Field: "name", Allow: map[string]bool{"name": true}}),
	)
	if err != nil {
		return domain.ListFeeItemResponse{}, err
	}

	feeItems := make([]domain.FeeItem, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		feeItems = append(feeItems, *item)
	}

	return domain.ListFeeItemResponse{FeeItems: feeItems}, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (domain.FeeItem, error) {
	item, err := s.repo.FindOne(ctx, &domain.FeeItem{ID: id})
	if err != nil {
		return domain.FeeItem{}, err
	}
	if item == nil {
		return domain.FeeItem{}, domain.ErrNotFound
	}
	return *item, nil
}
