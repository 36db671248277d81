package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shulepay/shulepay/internal/clock"
	"github.com/shulepay/shulepay/internal/config"
	invoicedomain "github.com/shulepay/shulepay/internal/invoice/domain"
	paymentdomain "github.com/shulepay/shulepay/internal/payment/domain"
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

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Billing *config.BillingConfigHolder
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	billing *config.BillingConfigHolder

	paymentrepo repository.Repository[paymentdomain.Payment]
	linerepo    repository.Repository[paymentdomain.PaymentLine]
	invoicerepo repository.Repository[invoicedomain.Invoice]
	invlinerepo repository.Repository[invoicedomain.InvoiceLine]
	studentrepo repository.Repository[studentdomain.Student]
}

func NewService(p ServiceParam) paymentdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("payment.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		billing: p.Billing,

		paymentrepo: repository.ProvideStore[paymentdomain.Payment](p.DB),
		linerepo:    repository.ProvideStore[paymentdomain.PaymentLine](p.DB),
		invoicerepo: repository.ProvideStore[invoicedomain.Invoice](p.DB),
		invlinerepo: repository.ProvideStore[invoicedomain.InvoiceLine](p.DB),
		studentrepo: repository.ProvideStore[studentdomain.Student](p.DB),
	}
}

func (s *Service) Record(ctx context.Context, req paymentdomain.RecordPaymentRequest) (paymentdomain.Payment, error) {
	cfg := s.billing.Get()

	if req.InvoiceID == 0 {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidInvoice
	}
	if !allowedMode(cfg.PaymentModes, req.PaymentMode) {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidPaymentMode
	}
	if len(req.Allocations) == 0 {
		return paymentdomain.Payment{}, paymentdomain.ErrEmptyAllocations
	}

	var total int64
	seen := make(map[snowflake.ID]bool, len(req.Allocations))
	for _, alloc := range req.Allocations {
		if alloc.Amount < 0 {
			return paymentdomain.Payment{}, paymentdomain.ErrInvalidAllocation
		}
		if seen[alloc.InvoiceLineID] {
			return paymentdomain.Payment{}, paymentdomain.ErrDuplicateAllocation
		}
		seen[alloc.InvoiceLineID] = true
		total += alloc.Amount
	}
	if total <= 0 {
		return paymentdomain.Payment{}, paymentdomain.ErrZeroTotal
	}

	payment := paymentdomain.Payment{
		ID:              s.genID.Generate(),
		InvoiceID:       req.InvoiceID,
		Amount:          total,
		PaymentMode:     req.PaymentMode,
		ReferenceNumber: req.ReferenceNumber,
		Remarks:         req.Remarks,
	}

	year := s.clock.Now().Year()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.invoicerepo.WithTrx(tx).FindOne(ctx, &invoicedomain.Invoice{ID: req.InvoiceID})
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrNotFound
		}

		if err := s.checkAllocations(ctx, tx, invoice.ID, req.Allocations); err != nil {
			return err
		}

		number, err := sequence.Next(tx, sequence.ReceiptSeries, cfg.ReceiptPrefix, year, cfg.SerialPadWidth)
		if err != nil {
			return err
		}
		payment.PaymentNumber = number

		if err := s.paymentrepo.WithTrx(tx).Create(ctx, &payment); err != nil {
			return err
		}

		lines := make([]*paymentdomain.PaymentLine, 0, len(req.Allocations))
		for _, alloc := range req.Allocations {
			if alloc.Amount == 0 {
				continue
			}
			lines = append(lines, &paymentdomain.PaymentLine{
				ID:            s.genID.Generate(),
				PaymentID:     payment.ID,
				InvoiceLineID: alloc.InvoiceLineID,
				Amount:        alloc.Amount,
			})
		}
		if err := s.linerepo.WithTrx(tx).BatchCreate(ctx, lines); err != nil {
			return err
		}

		paid := invoice.PaidAmount + total
		return s.invoicerepo.WithTrx(tx).Update(ctx, invoice.ID.String(), map[string]any{
			"paid_amount": paid,
			"balance":     invoice.TotalAmount - paid,
			"status":      invoicedomain.StatusFor(invoice.TotalAmount, paid),
		})
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return paymentdomain.Payment{}, sequence.ErrConflict
		}
		return paymentdomain.Payment{}, err
	}

	s.log.Info("payment recorded",
		zap.String("payment_number", payment.PaymentNumber),
		zap.Int64("amount", payment.Amount),
	)

	return payment, nil
}

// checkAllocations verifies every allocation targets a line of the invoice
// and stays within that line's remaining balance, computed on the same
// transaction that will consume it.
func (s *Service) checkAllocations(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID, allocations []paymentdomain.Allocation) error {
	invoiceLines, err := s.invlinerepo.WithTrx(tx).Find(ctx, &invoicedomain.InvoiceLine{InvoiceID: invoiceID})
	if err != nil {
		return err
	}

	original := make(map[snowflake.ID]int64, len(invoiceLines))
	for _, line := range invoiceLines {
		if line == nil {
			continue
		}
		original[line.ID] = line.Amount
	}

	for _, alloc := range allocations {
		lineAmount, ok := original[alloc.InvoiceLineID]
		if !ok {
			return paymentdomain.ErrUnknownInvoiceLine
		}

		var paid int64
		err := tx.Model(&paymentdomain.PaymentLine{}).
			Where("invoice_line_id = ?", alloc.InvoiceLineID).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&paid).Error
		if err != nil {
			return err
		}

		if alloc.Amount > lineAmount-paid {
			return paymentdomain.ErrOverAllocation
		}
	}
	return nil
}

func (s *Service) GetReceipt(ctx context.Context, paymentID snowflake.ID) (paymentdomain.Receipt, error) {
	payment, err := s.paymentrepo.FindOne(ctx, &paymentdomain.Payment{ID: paymentID})
	if err != nil {
		return paymentdomain.Receipt{}, err
	}
	if payment == nil {
		return paymentdomain.Receipt{}, paymentdomain.ErrNotFound
	}

	var lines []paymentdomain.ReceiptLine
	err = s.db.WithContext(ctx).Raw(`
		SELECT pl.invoice_line_id, fi.name AS fee_item, pl.amount
		FROM payment_lines pl
		JOIN invoice_lines il ON il.id = pl.invoice_line_id
		JOIN fee_items fi ON fi.id = il.fee_item_id
		WHERE pl.payment_id = ?
		ORDER BY fi.name`, paymentID).
		Scan(&lines).Error
	if err != nil {
		return paymentdomain.Receipt{}, err
	}

	invoice, err := s.invoicerepo.FindOne(ctx, &invoicedomain.Invoice{ID: payment.InvoiceID})
	if err != nil {
		return paymentdomain.Receipt{}, err
	}
	if invoice == nil {
		return paymentdomain.Receipt{}, invoicedomain.ErrNotFound
	}

	student, err := s.studentrepo.FindOne(ctx, &studentdomain.Student{ID: invoice.StudentID})
	if err != nil {
		return paymentdomain.Receipt{}, err
	}
	if student == nil {
		return paymentdomain.Receipt{}, studentdomain.ErrNotFound
	}

	return paymentdomain.Receipt{
		Payment: *payment,
		Lines:   lines,
		Invoice: *invoice,
		Student: *student,
	}, nil
}

func (s *Service) List(ctx context.Context, req paymentdomain.ListPaymentRequest) (paymentdomain.ListPaymentResponse, error) {
	filter := &paymentdomain.Payment{}
	if req.InvoiceID != nil {
		filter.InvoiceID = *req.InvoiceID
	}

	items, err := s.paymentrepo.Find(ctx, filter,
		option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"created_at": true}}),
	)
	if err != nil {
		return paymentdomain.ListPaymentResponse{}, err
	}

	payments := make([]paymentdomain.Payment, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		payments = append(payments, *item)
	}

	return paymentdomain.ListPaymentResponse{Payments: payments}, nil
}

func allowedMode(modes []string, mode string) bool {
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}
