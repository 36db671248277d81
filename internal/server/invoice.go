package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	invoicedomain "github.com/shulepay/shulepay/internal/invoice/domain"
)

type createInvoiceLinePayload struct {
	FeeItemID string `json:"fee_item_id"`
	Amount    int64  `json:"amount"`
}

type createInvoicePayload struct {
	StudentID    string                     `json:"student_id"`
	Term         int                        `json:"term"`
	AcademicYear int                        `json:"academic_year"`
	DueDate      string                     `json:"due_date"`
	Lines        []createInvoiceLinePayload `json:"lines"`
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var payload createInvoicePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request"))
		return
	}

	studentID, err := snowflake.ParseString(strings.TrimSpace(payload.StudentID))
	if err != nil {
		AbortWithError(c, newValidationError("student_id", "invalid_student", "invalid student id"))
		return
	}

	dueDate, err := time.Parse("2006-01-02", payload.DueDate)
	if err != nil {
		AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due date"))
		return
	}

	req := invoicedomain.CreateInvoiceRequest{
		StudentID:    studentID,
		Term:         payload.Term,
		AcademicYear: payload.AcademicYear,
		DueDate:      dueDate,
	}
	for _, line := range payload.Lines {
		feeItemID, err := snowflake.ParseString(strings.TrimSpace(line.FeeItemID))
		if err != nil {
			AbortWithError(c, newValidationError("lines", "invalid_fee_item", "invalid fee item id"))
			return
		}
		req.Lines = append(req.Lines, invoicedomain.CreateInvoiceLine{
			FeeItemID: feeItemID,
			Amount:    line.Amount,
		})
	}

	created, err := s.invoiceSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"invoice_id":     created.ID.String(),
		"invoice_number": created.InvoiceNumber,
	})
}

func (s *Server) ListInvoices(c *gin.Context) {
	req := invoicedomain.ListInvoiceRequest{}

	if raw := strings.TrimSpace(c.Query("student_id")); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, newValidationError("student_id", "invalid_student", "invalid student id"))
			return
		}
		req.StudentID = &id
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := invoicedomain.InvoiceStatus(raw)
		req.Status = &status
	}
	req.OpenOnly = c.Query("open_only") == "true"

	resp, err := s.invoiceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Invoices})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	item, err := s.invoiceSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) GetInvoiceLineBalances(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	balances, err := s.invoiceSvc.LineBalances(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": balances})
}

func (s *Server) ListStudentInvoices(c *gin.Context) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	req := invoicedomain.ListInvoiceRequest{
		StudentID: &id,
		OpenOnly:  c.Query("open_only") == "true",
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := invoicedomain.InvoiceStatus(raw)
		req.Status = &status
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Invoices})
}
