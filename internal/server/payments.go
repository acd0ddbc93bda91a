package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/shulebooks/shulebooks/internal/payment/domain"
	"github.com/shulebooks/shulebooks/pkg/db/pagination"
)

func (s *Server) GetStatement(c *gin.Context) {
	asOf, err := parseOptionalTime(c.Query("as_of"), true)
	if err != nil {
		AbortWithError(c, newValidationError("as_of", "invalid_as_of", "invalid as_of"))
		return
	}

	resp, err := s.paymentSvc.Statement(c.Request.Context(), paymentdomain.StatementRequest{
		StudentID: strings.TrimSpace(c.Param("id")),
		AsOf:      asOf,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type previewAllocationRequest struct {
	StudentID string           `json:"student_id"`
	Amount    int64            `json:"amount"`
	Strategy  string           `json:"strategy"`
	Manual    map[string]int64 `json:"manual"`
	AsOf      string           `json:"as_of"`
}

func (s *Server) PreviewAllocation(c *gin.Context) {
	var req previewAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	asOf, err := parseOptionalTime(req.AsOf, true)
	if err != nil {
		AbortWithError(c, newValidationError("as_of", "invalid_as_of", "invalid as_of"))
		return
	}

	resp, err := s.paymentSvc.PreviewAllocation(c.Request.Context(), paymentdomain.PreviewAllocationRequest{
		StudentID: strings.TrimSpace(req.StudentID),
		Amount:    req.Amount,
		Strategy:  strings.TrimSpace(req.Strategy),
		Manual:    req.Manual,
		AsOf:      asOf,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type recordPaymentRequest struct {
	StudentID      string           `json:"student_id"`
	Amount         int64            `json:"amount"`
	Method         string           `json:"method"`
	Reference      string           `json:"reference"`
	Strategy       string           `json:"strategy"`
	Manual         map[string]int64 `json:"manual"`
	IdempotencyKey string           `json:"idempotency_key"`
	Note           string           `json:"note"`
}

func (s *Server) RecordPayment(c *gin.Context) {
	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	// The Idempotency-Key header wins over the body field.
	idempotencyKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if idempotencyKey == "" {
		idempotencyKey = strings.TrimSpace(req.IdempotencyKey)
	}

	resp, err := s.paymentSvc.RecordPayment(c.Request.Context(), paymentdomain.RecordPaymentRequest{
		StudentID:      strings.TrimSpace(req.StudentID),
		Amount:         req.Amount,
		Method:         strings.TrimSpace(req.Method),
		Reference:      strings.TrimSpace(req.Reference),
		Strategy:       strings.TrimSpace(req.Strategy),
		Manual:         req.Manual,
		IdempotencyKey: idempotencyKey,
		Note:           strings.TrimSpace(req.Note),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if !resp.Replayed {
		s.obsMetrics.RecordPayment(resp.Payment.Method, resp.Payment.Amount)
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetReceipt(c *gin.Context) {
	resp, err := s.paymentSvc.GetReceipt(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPayments(c *gin.Context) {
	var query struct {
		pagination.Pagination
		StudentID string `form:"student_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.paymentSvc.ListPayments(c.Request.Context(), paymentdomain.ListPaymentRequest{
		StudentID: strings.TrimSpace(query.StudentID),
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isPaymentValidationError(err error) bool {
	switch err {
	case paymentdomain.ErrInvalidBranch,
		paymentdomain.ErrInvalidID,
		paymentdomain.ErrInvalidAmount,
		paymentdomain.ErrInvalidMethod,
		paymentdomain.ErrInvalidStrategy:
		return true
	default:
		return false
	}
}
