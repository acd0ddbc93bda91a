package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	attendancedomain "github.com/shulebooks/shulebooks/internal/attendance/domain"
)

type markAttendanceRequest struct {
	StudentID string `json:"student_id"`
	Day       string `json:"day"`
	Status    string `json:"status"`
	Note      string `json:"note"`
}

func (s *Server) MarkAttendance(c *gin.Context) {
	var req markAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	day, err := parseRequiredDate(req.Day)
	if err != nil {
		AbortWithError(c, newValidationError("day", "invalid_day", "invalid day"))
		return
	}

	resp, err := s.attendanceSvc.Mark(c.Request.Context(), attendancedomain.MarkRequest{
		StudentID: strings.TrimSpace(req.StudentID),
		Day:       day,
		Status:    strings.TrimSpace(req.Status),
		Note:      strings.TrimSpace(req.Note),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type bulkMarkAttendanceRequest struct {
	ClassName string                  `json:"class_name"`
	Day       string                  `json:"day"`
	Marks     []markAttendanceRequest `json:"marks"`
}

func (s *Server) BulkMarkAttendance(c *gin.Context) {
	var req bulkMarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	day, err := parseRequiredDate(req.Day)
	if err != nil {
		AbortWithError(c, newValidationError("day", "invalid_day", "invalid day"))
		return
	}

	marks := make([]attendancedomain.MarkRequest, 0, len(req.Marks))
	for _, mark := range req.Marks {
		marks = append(marks, attendancedomain.MarkRequest{
			StudentID: strings.TrimSpace(mark.StudentID),
			Status:    strings.TrimSpace(mark.Status),
			Note:      strings.TrimSpace(mark.Note),
		})
	}

	resp, err := s.attendanceSvc.BulkMark(c.Request.Context(), attendancedomain.BulkMarkRequest{
		ClassName: strings.TrimSpace(req.ClassName),
		Day:       day,
		Marks:     marks,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetClassSummary(c *gin.Context) {
	from, err := parseOptionalTime(c.Query("from"), false)
	if err != nil {
		AbortWithError(c, newValidationError("from", "invalid_from", "invalid from"))
		return
	}
	to, err := parseOptionalTime(c.Query("to"), true)
	if err != nil {
		AbortWithError(c, newValidationError("to", "invalid_to", "invalid to"))
		return
	}

	resp, err := s.attendanceSvc.ClassSummary(c.Request.Context(), attendancedomain.ClassSummaryRequest{
		ClassName: strings.TrimSpace(c.Query("class_name")),
		From:      from,
		To:        to,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListStudentAttendance(c *gin.Context) {
	from, err := parseOptionalTime(c.Query("from"), false)
	if err != nil {
		AbortWithError(c, newValidationError("from", "invalid_from", "invalid from"))
		return
	}
	to, err := parseOptionalTime(c.Query("to"), true)
	if err != nil {
		AbortWithError(c, newValidationError("to", "invalid_to", "invalid to"))
		return
	}

	resp, err := s.attendanceSvc.List(c.Request.Context(), attendancedomain.ListRequest{
		StudentID: strings.TrimSpace(c.Param("id")),
		From:      from,
		To:        to,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isAttendanceValidationError(err error) bool {
	switch err {
	case attendancedomain.ErrInvalidBranch,
		attendancedomain.ErrInvalidID,
		attendancedomain.ErrInvalidDay,
		attendancedomain.ErrInvalidStatus,
		attendancedomain.ErrInvalidClass,
		attendancedomain.ErrInvalidRange:
		return true
	default:
		return false
	}
}
