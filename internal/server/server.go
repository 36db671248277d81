package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shulepay/shulepay/internal/config"
	"github.com/shulepay/shulepay/internal/feeitem"
	feeitemdomain "github.com/shulepay/shulepay/internal/feeitem/domain"
	"github.com/shulepay/shulepay/internal/invoice"
	invoicedomain "github.com/shulepay/shulepay/internal/invoice/domain"
	"github.com/shulepay/shulepay/internal/payment"
	paymentdomain "github.com/shulepay/shulepay/internal/payment/domain"
	"github.com/shulepay/shulepay/internal/student"
	studentdomain "github.com/shulepay/shulepay/internal/student/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	student.Module,
	feeitem.Module,
	invoice.Module,
	payment.Module,
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterAPIRoutes() }),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	db         *gorm.DB
	genID      *snowflake.Node
	studentSvc studentdomain.Service
	feeItemSvc feeitemdomain.Service
	invoiceSvc invoicedomain.Service
	paymentSvc paymentdomain.Service
}

type ServerParam struct {
	fx.In

	Engine     *gin.Engine
	Cfg        config.Config
	DB         *gorm.DB
	GenID      *snowflake.Node
	StudentSvc studentdomain.Service
	FeeItemSvc feeitemdomain.Service
	InvoiceSvc invoicedomain.Service
	PaymentSvc paymentdomain.Service
}

func NewServer(p ServerParam) *Server {
	return &Server{
		engine:     p.Engine,
		cfg:        p.Cfg,
		db:         p.DB,
		genID:      p.GenID,
		studentSvc: p.StudentSvc,
		feeItemSvc: p.FeeItemSvc,
		invoiceSvc: p.InvoiceSvc,
		paymentSvc: p.PaymentSvc,
	}
}

func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api/v1")

	api.POST("/students", s.CreateStudent)
	api.GET("/students", s.ListStudents)
	api.GET("/students/:id", s.GetStudentByID)
	api.GET("/students/:id/invoices", s.ListStudentInvoices)

	api.POST("/fee-items", s.CreateFeeItem)
	api.GET("/fee-items", s.ListFeeItems)

	api.POST("/invoices", s.CreateInvoice)
	api.GET("/invoices", s.ListInvoices)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.GET("/invoices/:id/line-balances", s.GetInvoiceLineBalances)

	api.POST("/payments", s.RecordPayment)
	api.GET("/payments", s.ListPayments)
	api.GET("/payments/:id", s.GetPaymentReceipt)
}
