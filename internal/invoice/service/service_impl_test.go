package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shulepay/shulepay/internal/clock"
	"github.com/shulepay/shulepay/internal/config"
	feeitemdomain "github.com/shulepay/shulepay/internal/feeitem/domain"
	feeitemservice "github.com/shulepay/shulepay/internal/feeitem/service"
	invoicedomain "github.com/shulepay/shulepay/internal/invoice/domain"
	invoiceservice "github.com/shulepay/shulepay/internal/invoice/service"
	paymentdomain "github.com/shulepay/shulepay/internal/payment/domain"
	"github.com/shulepay/shulepay/internal/sequence"
	studentdomain "github.com/shulepay/shulepay/internal/student/domain"
	studentservice "github.com/shulepay/shulepay/internal/student/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db         *gorm.DB
	node       *snowflake.Node
	clk        *clock.FakeClock
	studentSvc studentdomain.Service
	feeItemSvc feeitemdomain.Service
	invoiceSvc invoicedomain.Service

	student   studentdomain.Student
	tuition   feeitemdomain.FeeItem
	transport feeitemdomain.FeeItem
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_invoice_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	err = db.AutoMigrate(
		&studentdomain.Student{},
		&feeitemdomain.FeeItem{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceLine{},
		&paymentdomain.Payment{},
		&paymentdomain.PaymentLine{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)

	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	clk := clock.NewFakeClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	billing := config.NewStaticBillingConfigHolder(config.DefaultBillingConfig())
	log := zap.NewNop()

	studentSvc := studentservice.NewService(studentservice.ServiceParam{
		DB:    db,
		Log:   log,
		GenID: node,
	})
	feeItemSvc := feeitemservice.NewService(feeitemservice.ServiceParam{
		DB:    db,
		Log:   log,
		GenID: node,
	})
	invoiceSvc := invoiceservice.NewService(invoiceservice.ServiceParam{
		DB:         db,
		Log:        log,
		GenID:      node,
		Clock:      clk,
		Billing:    billing,
		StudentSvc: studentSvc,
	})

	ctx := context.Background()
	student, err := studentSvc.Create(ctx, studentdomain.CreateStudentRequest{
		AdmissionNumber: "ADM-001",
		FirstName:       "Amina",
		LastName:        "Otieno",
		Class:           "Grade 4",
	})
	if err != nil {
		t.Fatalf("seed student: %v", err)
	}

	tuition, err := feeItemSvc.Create(ctx, feeitemdomain.CreateFeeItemRequest{Name: "Tuition"})
	if err != nil {
		t.Fatalf("seed tuition: %v", err)
	}
	transport, err := feeItemSvc.Create(ctx, feeitemdomain.CreateFeeItemRequest{Name: "Transport"})
	if err != nil {
		t.Fatalf("seed transport: %v", err)
	}

	return &fixture{
		db:         db,
		node:       node,
		clk:        clk,
		studentSvc: studentSvc,
		feeItemSvc: feeItemSvc,
		invoiceSvc: invoiceSvc,
		student:    student,
		tuition:    tuition,
		transport:  transport,
	}
}

func (f *fixture) createRequest() invoicedomain.CreateInvoiceRequest {
	return invoicedomain.CreateInvoiceRequest{
		StudentID:    f.student.ID,
		Term:         1,
		AcademicYear: 2025,
		DueDate:      time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC),
		Lines: []invoicedomain.CreateInvoiceLine{
			{FeeItemID: f.tuition.ID, Amount: 5000},
			{FeeItemID: f.transport.ID, Amount: 1000},
		},
	}
}

func TestCreateInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.invoiceSvc.Create(ctx, f.createRequest())
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	if created.InvoiceNumber != "INV/2025/0001" {
		t.Fatalf("expected INV/2025/0001, got %s", created.InvoiceNumber)
	}
	if created.TotalAmount != 6000 {
		t.Fatalf("expected total 6000, got %d", created.TotalAmount)
	}
	if created.PaidAmount != 0 {
		t.Fatalf("expected paid 0, got %d", created.PaidAmount)
	}
	if created.Balance != 6000 {
		t.Fatalf("expected balance 6000, got %d", created.Balance)
	}
	if created.Status != invoicedomain.InvoiceStatusDue {
		t.Fatalf("expected status due, got %s", created.Status)
	}
	if created.PaidAmount+created.Balance != created.TotalAmount {
		t.Fatalf("invariant violated: paid %d + balance %d != total %d", created.PaidAmount, created.Balance, created.TotalAmount)
	}
	if len(created.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(created.Lines))
	}
	var lineTotal int64
	for _, line := range created.Lines {
		if line.InvoiceID != created.ID {
			t.Fatalf("line %s belongs to invoice %s, want %s", line.ID, line.InvoiceID, created.ID)
		}
		lineTotal += line.Amount
	}
	if lineTotal != created.TotalAmount {
		t.Fatalf("line amounts sum to %d, want %d", lineTotal, created.TotalAmount)
	}
}

func TestCreateInvoiceValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		mutate  func(*invoicedomain.CreateInvoiceRequest)
		wantErr error
	}{
		{"missing student", func(r *invoicedomain.CreateInvoiceRequest) { r.StudentID = 0 }, invoicedomain.ErrInvalidStudent},
		{"unknown student", func(r *invoicedomain.CreateInvoiceRequest) { r.StudentID = f.node.Generate() }, invoicedomain.ErrInvalidStudent},
		{"term too low", func(r *invoicedomain.CreateInvoiceRequest) { r.Term = 0 }, invoicedomain.ErrInvalidTerm},
		{"term too high", func(r *invoicedomain.CreateInvoiceRequest) { r.Term = 4 }, invoicedomain.ErrInvalidTerm},
		{"bad academic year", func(r *invoicedomain.CreateInvoiceRequest) { r.AcademicYear = 1850 }, invoicedomain.ErrInvalidAcademicYear},
		{"zero due date", func(r *invoicedomain.CreateInvoiceRequest) { r.DueDate = time.Time{} }, invoicedomain.ErrInvalidDueDate},
		{"empty lines", func(r *invoicedomain.CreateInvoiceRequest) { r.Lines = nil }, invoicedomain.ErrEmptyLines},
		{"zero amount", func(r *invoicedomain.CreateInvoiceRequest) { r.Lines[0].Amount = 0 }, invoicedomain.ErrInvalidLineAmount},
		{"negative amount", func(r *invoicedomain.CreateInvoiceRequest) { r.Lines[0].Amount = -100 }, invoicedomain.ErrInvalidLineAmount},
		{"unknown fee item", func(r *invoicedomain.CreateInvoiceRequest) { r.Lines[0].FeeItemID = f.node.Generate() }, invoicedomain.ErrUnknownFeeItem},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := f.createRequest()
			tc.mutate(&req)

			_, err := f.invoiceSvc.Create(ctx, req)
			if err != tc.wantErr {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	// no partial invoice may survive a rejected create
	var invoices, lines int64
	f.db.Model(&invoicedomain.Invoice{}).Count(&invoices)
	f.db.Model(&invoicedomain.InvoiceLine{}).Count(&lines)
	if invoices != 0 || lines != 0 {
		t.Fatalf("expected no rows after rejected creates, got %d invoices, %d lines", invoices, lines)
	}
}

func TestCreateInvoiceInactiveStudent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.db.Model(&studentdomain.Student{}).
		Where("id = ?", f.student.ID).
		Update("status", studentdomain.StudentStatusInactive).Error
	if err != nil {
		t.Fatalf("deactivate student: %v", err)
	}

	_, err = f.invoiceSvc.Create(ctx, f.createRequest())
	if err != invoicedomain.ErrStudentNotActive {
		t.Fatalf("expected ErrStudentNotActive, got %v", err)
	}
}

func TestInvoiceNumbersSequential(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	want := []string{"INV/2025/0001", "INV/2025/0002", "INV/2025/0003"}
	seen := make(map[string]bool)
	for i, expected := range want {
		created, err := f.invoiceSvc.Create(ctx, f.createRequest())
		if err != nil {
			t.Fatalf("create invoice %d: %v", i, err)
		}
		if created.InvoiceNumber != expected {
			t.Fatalf("invoice %d: expected %s, got %s", i, expected, created.InvoiceNumber)
		}
		if seen[created.InvoiceNumber] {
			t.Fatalf("duplicate invoice number %s", created.InvoiceNumber)
		}
		seen[created.InvoiceNumber] = true
	}
}

// Concurrent creations race for the same serial; a loser backs off with
// sequence.ErrConflict, but two winners must never share a number.
func TestConcurrentInvoiceNumbersDistinct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const writers = 4

	var (
		mu      sync.Mutex
		numbers []string
	)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := f.invoiceSvc.Create(ctx, f.createRequest())
			if err != nil {
				if errors.Is(err, sequence.ErrConflict) {
					return
				}
				t.Errorf("create invoice: %v", err)
				return
			}
			mu.Lock()
			numbers = append(numbers, created.InvoiceNumber)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(numbers) == 0 {
		t.Fatal("every concurrent create lost the serial race")
	}
	seen := make(map[string]bool, len(numbers))
	for _, number := range numbers {
		if seen[number] {
			t.Fatalf("duplicate invoice number %s", number)
		}
		seen[number] = true
	}
}

func TestInvoiceSeriesResetsByIssuingYear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.invoiceSvc.Create(ctx, f.createRequest())
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	if created.InvoiceNumber != "INV/2025/0001" {
		t.Fatalf("expected INV/2025/0001, got %s", created.InvoiceNumber)
	}

	// the series follows the issuing calendar year, not academic_year
	f.clk.Advance(365 * 24 * time.Hour)

	next, err := f.invoiceSvc.Create(ctx, f.createRequest())
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	if next.InvoiceNumber != "INV/2026/0001" {
		t.Fatalf("expected INV/2026/0001, got %s", next.InvoiceNumber)
	}
}

func TestListInvoicesFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.invoiceSvc.Create(ctx, f.createRequest()); err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	resp, err := f.invoiceSvc.List(ctx, invoicedomain.ListInvoiceRequest{StudentID: &f.student.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.Invoices) != 1 {
		t.Fatalf("expected 1 invoice, got %d", len(resp.Invoices))
	}

	resp, err = f.invoiceSvc.List(ctx, invoicedomain.ListInvoiceRequest{StudentID: &f.student.ID, OpenOnly: true})
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(resp.Invoices) != 1 {
		t.Fatalf("expected 1 open invoice, got %d", len(resp.Invoices))
	}

	paid := invoicedomain.InvoiceStatusFullyPaid
	resp, err = f.invoiceSvc.List(ctx, invoicedomain.ListInvoiceRequest{Status: &paid})
	if err != nil {
		t.Fatalf("list paid: %v", err)
	}
	if len(resp.Invoices) != 0 {
		t.Fatalf("expected 0 fully paid invoices, got %d", len(resp.Invoices))
	}
}

func TestLineBalancesUnknownInvoice(t *testing.T) {
	f := newFixture(t)

	_, err := f.invoiceSvc.LineBalances(context.Background(), f.node.Generate())
	if err != invoicedomain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
