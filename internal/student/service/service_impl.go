package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shulepay/shulepay/internal/student/domain"
	"github.com/shulepay/shulepay/pkg/db"
	"github.com/shulepay/shulepay/pkg/db/option"
	"github.com/shulepay/shulepay/pkg/db/pagination"
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
	repo  repository.Repository[domain.Student]
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("student.service"),
		genID: p.GenID,
		repo:  repository.ProvideStore[domain.Student](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateStudentRequest) (domain.Student, error) {
	admission := strings.TrimSpace(req.AdmissionNumber)
	if admission == "" {
		return domain.Student{}, domain.ErrInvalidAdmissionNumber
	}
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	if firstName == "" || lastName == "" {
		return domain.Student{}, domain.ErrInvalidName
	}

	student := domain.Student{
		ID:              s.genID.Generate(),
		AdmissionNumber: admission,
		FirstName:       firstName,
		LastName:        lastName,
		GuardianName:    strings.TrimSpace(req.GuardianName),
		PhoneNumber:     strings.TrimSpace(req.PhoneNumber),
		EducationLevel:  strings.TrimSpace(req.EducationLevel),
		Class:           strings.TrimSpace(req.Class),
		Status:          domain.StudentStatusActive,
	}

	if err := s.repo.Create(ctx, &student); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Student{}, domain.ErrAdmissionNumberConflict
		}
		s.log.Error("create student", zap.Error(err))
		return domain.Student{}, err
	}

	return student, nil
}

func (s *Service) List(ctx context.Context, req domain.ListStudentRequest) (domain.ListStudentResponse, error) {
	filter := &domain.Student{}
	if req.Status != nil {
		filter.Status = *req.Status
	}

	pageSize := req.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	if pageSize > 250 {
		pageSize = 250
	}

	// snowflake IDs are time-ordered, so the cursor is the last seen id
	options := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{Field: "id", Allow: map[string]bool{"id": true}}),
		option.WithLimit(pageSize),
	}
	if req.Pagination.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.Pagination.PageToken)
		if err != nil {
			return domain.ListStudentResponse{}, domain.ErrInvalidPageToken
		}
		afterID, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return domain.ListStudentResponse{}, domain.ErrInvalidPageToken
		}
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "id",
			Operator: option.GT,
			Value:    afterID,
		}))
	}

	items, err := s.repo.Find(ctx, filter, options...)
	if err != nil {
		return domain.ListStudentResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(item *domain.Student) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{ID: item.ID.String()})
		if err != nil {
			return ""
		}
		return token
	})

	students := make([]domain.Student, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		students = append(students, *item)
	}

	return domain.ListStudentResponse{Students: students, PageInfo: pageInfo}, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (domain.Student, error) {
	item, err := s.repo.FindOne(ctx, &domain.Student{ID: id})
	if err != nil {
		return domain.Student{}, err
	}
	if item == nil {
		return domain.Student{}, domain.ErrNotFound
	}
	return *item, nil
}
