package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shulepay/shulepay/internal/clock"
	"github.com/shulepay/shulepay/internal/config"
	feeitemdomain "github.com/shulepay/shulepay/internal/feeitem/domain"
	invoicedomain "github.com/shulepay/shulepay/internal/invoice/domain"
	"github.com/shulepay/shulepay/internal/sequence"
	studentdomain "github.com/shulepay/shulepay/internal/student/domain"
	"github.com/shulepay/shulepay/pkg/db"
	"github.com/shulepay/shulepay/pkg/db/option"
	"github.com/shulepay/shulepay/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Billing    *config.BillingConfigHolder
	StudentSvc studentdomain.Service
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	billing    *config.BillingConfigHolder
	studentSvc studentdomain.Service

	invoicerepo repository.Repository[invoicedomain.Invoice]
	linerepo    repository.Repository[invoicedomain.InvoiceLine]
	feeitemrepo repository.Repository[feeitemdomain.FeeItem]
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("invoice.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		billing:    p.Billing,
		studentSvc: p.StudentSvc,

		invoicerepo: repository.ProvideStore[invoicedomain.Invoice](p.DB),
		linerepo:    repository.ProvideStore[invoicedomain.InvoiceLine](p.DB),
		feeitemrepo: repository.ProvideStore[feeitemdomain.FeeItem](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.Invoice, error) {
	if err := s.validateCreate(ctx, req); err != nil {
		return invoicedomain.Invoice{}, err
	}

	var total int64
	for _, line := range req.Lines {
		total += line.Amount
	}

	cfg := s.billing.Get()
	invoice := invoicedomain.Invoice{
		ID:           s.genID.Generate(),
		StudentID:    req.StudentID,
		TotalAmount:  total,
		PaidAmount:   0,
		Balance:      total,
		Term:         req.Term,
		AcademicYear: req.AcademicYear,
		DueDate:      req.DueDate,
		Status:       invoicedomain.StatusFor(total, 0),
	}

	// Invoice numbers are scoped to the issuing calendar year, not the
	// academic year on the invoice.
	year := s.clock.Now().Year()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := sequence.Next(tx, sequence.InvoiceSeries, cfg.InvoicePrefix, year, cfg.SerialPadWidth)
		if err != nil {
			return err
		}
		invoice.InvoiceNumber = number

		if err := s.invoicerepo.WithTrx(tx).Create(ctx, &invoice); err != nil {
			return err
		}

		lines := make([]*invoicedomain.InvoiceLine, 0, len(req.Lines))
		for _, line := range req.Lines {
			lines = append(lines, &invoicedomain.InvoiceLine{
				ID:        s.genID.Generate(),
				InvoiceID: invoice.ID,
				FeeItemID: line.FeeItemID,
				Amount:    line.Amount,
			})
		}
		if err := s.linerepo.WithTrx(tx).BatchCreate(ctx, lines); err != nil {
			return err
		}

		invoice.Lines = make([]invoicedomain.InvoiceLine, 0, len(lines))
		for _, line := range lines {
			invoice.Lines = append(invoice.Lines, *line)
		}
		return nil
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return invoicedomain.Invoice{}, sequence.ErrConflict
		}
		s.log.Error("create invoice", zap.Error(err))
		return invoicedomain.Invoice{}, err
	}

	s.log.Info("invoice created",
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.Int64("total_amount", invoice.TotalAmount),
	)

	// The invoice is committed at this point; a readback failure only
	// degrades the returned view, so fall back to the in-memory copy.
	created, err := s.GetByID(ctx, invoice.ID)
	if err != nil {
		s.log.Warn("invoice readback after commit", zap.Error(err))
		return invoice, nil
	}
	return created, nil
}

func (s *Service) validateCreate(ctx context.Context, req invoicedomain.CreateInvoiceRequest) error {
	if req.StudentID == 0 {
		return invoicedomain.ErrInvalidStudent
	}
	if req.Term < 1 || req.Term > 3 {
		return invoicedomain.ErrInvalidTerm
	}
	if req.AcademicYear < 2000 || req.AcademicYear > 2099 {
		return invoicedomain.ErrInvalidAcademicYear
	}
	if req.DueDate.IsZero() {
		return invoicedomain.ErrInvalidDueDate
	}
	if len(req.Lines) == 0 {
		return invoicedomain.ErrEmptyLines
	}
	for _, line := range req.Lines {
		if line.Amount <= 0 {
			return invoicedomain.ErrInvalidLineAmount
		}
		if line.FeeItemID == 0 {
			return invoicedomain.ErrUnknownFeeItem
		}
	}

	student, err := s.studentSvc.GetByID(ctx, req.StudentID)
	if err != nil {
		if err == studentdomain.ErrNotFound {
			return invoicedomain.ErrInvalidStudent
		}
		return err
	}
	if student.Status != studentdomain.StudentStatusActive {
		return invoicedomain.ErrStudentNotActive
	}

	for _, line := range req.Lines {
		item, err := s.feeitemrepo.FindOne(ctx, &feeitemdomain.FeeItem{ID: line.FeeItemID})
		if err != nil {
			return err
		}
		if item == nil {
			return invoicedomain.ErrUnknownFeeItem
		}
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (invoicedomain.Invoice, error) {
	item, err := s.invoicerepo.FindOne(ctx, &invoicedomain.Invoice{ID: id})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if item == nil {
		return invoicedomain.Invoice{}, invoicedomain.ErrNotFound
	}

	lines, err := s.linerepo.Find(ctx, &invoicedomain.InvoiceLine{InvoiceID: id})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	item.Lines = make([]invoicedomain.InvoiceLine, 0, len(lines))
	for _, line := range lines {
		if line == nil {
			continue
		}
		item.Lines = append(item.Lines, *line)
	}

	return *item, nil
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	filter := &invoicedomain.Invoice{}
	if req.StudentID != nil {
		filter.StudentID = *req.StudentID
	}
	if req.Status != nil {
		filter.Status = *req.Status
	}

	options := []option.QueryOption{
		option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"created_at": true}}),
	}
	if req.OpenOnly {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "status",
			Operator: option.NEQ,
			Value:    invoicedomain.InvoiceStatusFullyPaid,
		}))
	}

	items, err := s.invoicerepo.Find(ctx, filter, options...)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	invoices := make([]invoicedomain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}

	return invoicedomain.ListInvoiceResponse{Invoices: invoices}, nil
}

func (s *Service) LineBalances(ctx context.Context, invoiceID snowflake.ID) ([]invoicedomain.LineBalance, error) {
	existing, err := s.invoicerepo.FindOne(ctx, &invoicedomain.Invoice{ID: invoiceID})
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, invoicedomain.ErrNotFound
	}

	var balances []invoicedomain.LineBalance
	err = s.db.WithContext(ctx).Raw(`
		SELECT
			il.id AS invoice_line_id,
			fi.name AS fee_item,
			il.amount AS original_amount,
			COALESCE(SUM(pl.amount), 0) AS paid_amount,
			il.amount - COALESCE(SUM(pl.amount), 0) AS remaining_balance
		FROM invoice_lines il
		JOIN fee_items fi ON fi.id = il.fee_item_id
		LEFT JOIN payment_lines pl ON pl.invoice_line_id = il.id
		WHERE il.invoice_id = ?
		GROUP BY il.id, fi.name, il.amount
		HAVING il.amount - COALESCE(SUM(pl.amount), 0) > 0
		ORDER BY fi.name`, invoiceID).
		Scan(&balances).Error
	if err != nil {
		return nil, err
	}

	return balances, nil
}
