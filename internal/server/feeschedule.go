package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	feescheduledomain "github.com/shulebooks/shulebooks/internal/feeschedule/domain"
)

type createFeeHeadRequest struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (s *Server) CreateFeeHead(c *gin.Context) {
	var req createFeeHeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.feeSvc.CreateFeeHead(c.Request.Context(), feescheduledomain.CreateFeeHeadRequest{
		Name:        strings.TrimSpace(req.Name),
		Code:        strings.TrimSpace(req.Code),
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListFeeHeads(c *gin.Context) {
	resp, err := s.feeSvc.ListFeeHeads(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type createFeeTermRequest struct {
	Name         string `json:"name"`
	AcademicYear string `json:"academic_year"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
}

func (s *Server) CreateFeeTerm(c *gin.Context) {
	var req createFeeTermRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	startDate, err := parseRequiredDate(req.StartDate)
	if err != nil {
		AbortWithError(c, newValidationError("start_date", "invalid_start_date", "invalid start_date"))
		return
	}
	endDate, err := parseRequiredDate(req.EndDate)
	if err != nil {
		AbortWithError(c, newValidationError("end_date", "invalid_end_date", "invalid end_date"))
		return
	}

	resp, err := s.feeSvc.CreateFeeTerm(c.Request.Context(), feescheduledomain.CreateFeeTermRequest{
		Name:         strings.TrimSpace(req.Name),
		AcademicYear: strings.TrimSpace(req.AcademicYear),
		StartDate:    startDate,
		EndDate:      endDate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListFeeTerms(c *gin.Context) {
	resp, err := s.feeSvc.ListFeeTerms(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type createFeeStructureRequest struct {
	FeeHeadID         string `json:"fee_head_id"`
	TermID            string `json:"term_id"`
	ClassName         string `json:"class_name"`
	BaseAmount        int64  `json:"base_amount"`
	DueDate           string `json:"due_date"`
	LateFeeKind       string `json:"late_fee_kind"`
	LateFeeFlatAmount int64  `json:"late_fee_flat_amount"`
	LateFeeDailyBps   int64  `json:"late_fee_daily_bps"`
	LateFeeMaxAmount  int64  `json:"late_fee_max_amount"`
}

func (s *Server) CreateFeeStructure(c *gin.Context) {
	var req createFeeStructureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dueDate, err := parseRequiredDate(req.DueDate)
	if err != nil {
		AbortWithError(c, newValidationError("due_date", "invalid_due_date", "invalid due_date"))
		return
	}

	resp, err := s.feeSvc.CreateFeeStructure(c.Request.Context(), feescheduledomain.CreateFeeStructureRequest{
		FeeHeadID:         strings.TrimSpace(req.FeeHeadID),
		TermID:            strings.TrimSpace(req.TermID),
		ClassName:         strings.TrimSpace(req.ClassName),
		BaseAmount:        req.BaseAmount,
		DueDate:           dueDate,
		LateFeeKind:       strings.TrimSpace(req.LateFeeKind),
		LateFeeFlatAmount: req.LateFeeFlatAmount,
		LateFeeDailyBps:   req.LateFeeDailyBps,
		LateFeeMaxAmount:  req.LateFeeMaxAmount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListFeeStructures(c *gin.Context) {
	var query struct {
		TermID    string `form:"term_id"`
		ClassName string `form:"class_name"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.feeSvc.ListFeeStructures(c.Request.Context(), feescheduledomain.ListFeeStructureRequest{
		TermID:    strings.TrimSpace(query.TermID),
		ClassName: strings.TrimSpace(query.ClassName),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type assignDiscountRequest struct {
	StudentID      string `json:"student_id"`
	FeeStructureID string `json:"fee_structure_id"`
	Kind           string `json:"kind"`
	Amount         int64  `json:"amount"`
	PercentBps     int64  `json:"percent_bps"`
	Reason         string `json:"reason"`
}

func (s *Server) AssignDiscount(c *gin.Context) {
	var req assignDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.feeSvc.AssignDiscount(c.Request.Context(), feescheduledomain.AssignDiscountRequest{
		StudentID:      strings.TrimSpace(req.StudentID),
		FeeStructureID: strings.TrimSpace(req.FeeStructureID),
		Kind:           strings.TrimSpace(req.Kind),
		Amount:         req.Amount,
		PercentBps:     req.PercentBps,
		Reason:         strings.TrimSpace(req.Reason),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isFeeScheduleValidationError(err error) bool {
	switch err {
	case feescheduledomain.ErrInvalidBranch,
		feescheduledomain.ErrInvalidName,
		feescheduledomain.ErrInvalidCode,
		feescheduledomain.ErrInvalidTermDates,
		feescheduledomain.ErrInvalidAmount,
		feescheduledomain.ErrInvalidDueDate,
		feescheduledomain.ErrInvalidLateFee,
		feescheduledomain.ErrInvalidDiscount,
		feescheduledomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
