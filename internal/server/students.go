package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	studentdomain "github.com/shulebooks/shulebooks/internal/student/domain"
	"github.com/shulebooks/shulebooks/pkg/db/pagination"
)

type createStudentRequest struct {
	AdmissionNo   string `json:"admission_no"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	ClassName     string `json:"class_name"`
	Stream        string `json:"stream"`
	GuardianName  string `json:"guardian_name"`
	GuardianPhone string `json:"guardian_phone"`
}

func (s *Server) CreateStudent(c *gin.Context) {
	var req createStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.studentSvc.Create(c.Request.Context(), studentdomain.CreateStudentRequest{
		AdmissionNo:   strings.TrimSpace(req.AdmissionNo),
		FirstName:     strings.TrimSpace(req.FirstName),
		LastName:      strings.TrimSpace(req.LastName),
		ClassName:     strings.TrimSpace(req.ClassName),
		Stream:        strings.TrimSpace(req.Stream),
		GuardianName:  strings.TrimSpace(req.GuardianName),
		GuardianPhone: strings.TrimSpace(req.GuardianPhone),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateStudentRequest struct {
	ClassName     *string `json:"class_name"`
	Stream        *string `json:"stream"`
	GuardianName  *string `json:"guardian_name"`
	GuardianPhone *string `json:"guardian_phone"`
	Status        *string `json:"status"`
}

func (s *Server) UpdateStudent(c *gin.Context) {
	var req updateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.studentSvc.Update(c.Request.Context(), studentdomain.UpdateStudentRequest{
		ID:            strings.TrimSpace(c.Param("id")),
		ClassName:     req.ClassName,
		Stream:        req.Stream,
		GuardianName:  req.GuardianName,
		GuardianPhone: req.GuardianPhone,
		Status:        req.Status,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListStudents(c *gin.Context) {
	var query struct {
		pagination.Pagination
		ClassName string `form:"class_name"`
		Status    string `form:"status"`
		Search    string `form:"q"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.studentSvc.List(c.Request.Context(), studentdomain.ListStudentRequest{
		PageToken: query.PageToken,
		PageSize:  int32(query.PageSize),
		ClassName: strings.TrimSpace(query.ClassName),
		Status:    strings.TrimSpace(query.Status),
		Search:    strings.TrimSpace(query.Search),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetStudentByID(c *gin.Context) {
	resp, err := s.studentSvc.GetByID(c.Request.Context(), studentdomain.GetStudentRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isStudentValidationError(err error) bool {
	switch err {
	case studentdomain.ErrInvalidBranch,
		studentdomain.ErrInvalidAdmissionNo,
		studentdomain.ErrInvalidName,
		studentdomain.ErrInvalidClass,
		studentdomain.ErrInvalidGuardian,
		studentdomain.ErrInvalidStatus,
		studentdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
