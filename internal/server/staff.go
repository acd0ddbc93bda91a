package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	staffdomain "github.com/shulebooks/shulebooks/internal/staff/domain"
)

type createStaffRequest struct {
	StaffNo    string `json:"staff_no"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Role       string `json:"role"`
	Phone      string `json:"phone"`
	BaseSalary int64  `json:"base_salary"`
}

func (s *Server) CreateStaff(c *gin.Context) {
	var req createStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.staffSvc.CreateStaff(c.Request.Context(), staffdomain.CreateStaffRequest{
		StaffNo:    strings.TrimSpace(req.StaffNo),
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		Role:       strings.TrimSpace(req.Role),
		Phone:      strings.TrimSpace(req.Phone),
		BaseSalary: req.BaseSalary,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListStaff(c *gin.Context) {
	resp, err := s.staffSvc.ListStaff(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type addSalaryLineRequest struct {
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
}

func (s *Server) AddSalaryLine(c *gin.Context) {
	var req addSalaryLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.staffSvc.AddSalaryLine(c.Request.Context(), staffdomain.AddSalaryLineRequest{
		StaffID: strings.TrimSpace(c.Param("id")),
		Kind:    strings.TrimSpace(req.Kind),
		Name:    strings.TrimSpace(req.Name),
		Amount:  req.Amount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type runPayrollRequest struct {
	Period string `json:"period"`
}

func (s *Server) RunPayroll(c *gin.Context) {
	var req runPayrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.staffSvc.RunPayroll(c.Request.Context(), staffdomain.RunPayrollRequest{
		Period: strings.TrimSpace(req.Period),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPayrollRun(c *gin.Context) {
	resp, err := s.staffSvc.GetPayrollRun(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPayrollRuns(c *gin.Context) {
	resp, err := s.staffSvc.ListPayrollRuns(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isStaffValidationError(err error) bool {
	switch err {
	case staffdomain.ErrInvalidBranch,
		staffdomain.ErrInvalidID,
		staffdomain.ErrInvalidStaffNo,
		staffdomain.ErrInvalidName,
		staffdomain.ErrInvalidRole,
		staffdomain.ErrInvalidSalary,
		staffdomain.ErrInvalidLineKind,
		staffdomain.ErrInvalidAmount,
		staffdomain.ErrInvalidPeriod,
		staffdomain.ErrNoActiveStaff:
		return true
	default:
		return false
	}
}
