package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	paymentdomain "github.com/shulepay/shulepay/internal/payment/domain"
)

type allocationPayload struct {
	InvoiceLineID string `json:"invoice_line_id"`
	Amount        int64  `json:"amount"`
}

type recordPaymentPayload struct {
	InvoiceID       string              `json:"invoice_id"`
	PaymentMode     string              `json:"payment_mode"`
	ReferenceNumber string              `json:"reference_number"`
	Remarks         string              `json:"remarks"`
	Allocations     []allocationPayload `json:"allocations"`
}

func (s *Server) RecordPayment(c *gin.Context) {
	var payload recordPaymentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	invoiceID, err := snowflake.ParseString(strings.TrimSpace(payload.InvoiceID))
	if err != nil {
		AbortWithError(c, newValidationError("invoice_id", "invalid_invoice", "invalid invoice id"))
		return
	}

	req := paymentdomain.RecordPaymentRequest{
		InvoiceID:       invoiceID,
		PaymentMode:     strings.TrimSpace(payload.PaymentMode),
		ReferenceNumber: strings.TrimSpace(payload.ReferenceNumber),
		Remarks:         strings.TrimSpace(payload.Remarks),
	}
	for _, alloc := range payload.Allocations {
		lineID, err := snowflake.ParseString(strings.TrimSpace(alloc.InvoiceLineID))
		if err != nil {
			AbortWithError(c, newValidationError("allocations", "invalid_invoice_line", "invalid invoice line id"))
			return
		}
		req.Allocations = append(req.Allocations, paymentdomain.Allocation{
			InvoiceLineID: lineID,
			Amount:        alloc.Amount,
		})
	}

	recorded, err := s.paymentSvc.Record(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"payment_id":     recorded.ID.String(),
		"payment_number": recorded.PaymentNumber,
	})
}

func (s *Server) ListPayments(c *gin.Context) {
	req := paymentdomain.ListPaymentRequest{}

	if raw := strings.TrimSpace(c.Query("invoice_id")); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("invoice_id", "invalid_invoice", "invalid invoice id"))
			return
		}
		req.InvoiceID = &id
	}

	resp, err := s.paymentSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Payments})
}

func (s *Server) GetPaymentReceipt(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	receipt, err := s.paymentSvc.GetReceipt(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": receipt})
}
