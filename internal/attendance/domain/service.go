package domain

import (
	"context"
	"errors"
	"time"
)

const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
	StatusExcused = "excused"
)

type MarkRequest struct {
	StudentID string    `json:"student_id"`
	Day       time.Time `json:"day"`
	Status    string    `json:"status"`
	Note      string    `json:"note,omitempty"`
}

type BulkMarkRequest struct {
	ClassName string        `json:"class_name"`
	Day       time.Time     `json:"day"`
	Marks     []MarkRequest `json:"marks"`
}

type BulkMarkResponse struct {
	Marked int `json:"marked"`
}

type ClassSummaryRequest struct {
	ClassName string
	From      time.Time
	To        time.Time
}

// ClassSummary aggregates one class's attendance over a date range.
type ClassSummary struct {
	ClassName string         `json:"class_name"`
	From      time.Time      `json:"from"`
	To        time.Time      `json:"to"`
	Counts    map[string]int `json:"counts"`
	Students  int            `json:"students"`
}

type ListRequest struct {
	StudentID string
	From      time.Time
	To        time.Time
}

type Service interface {
	Mark(context.Context, MarkRequest) (AttendanceRecord, error)
	BulkMark(context.Context, BulkMarkRequest) (BulkMarkResponse, error)
	ClassSummary(context.Context, ClassSummaryRequest) (ClassSummary, error)
	List(context.Context, ListRequest) ([]AttendanceRecord, error)
}

var (
	ErrInvalidBranch   = errors.New("invalid_branch")
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidDay      = errors.New("invalid_day")
	ErrInvalidStatus   = errors.New("invalid_status")
	ErrInvalidClass    = errors.New("invalid_class")
	ErrInvalidRange    = errors.New("invalid_range")
	ErrStudentNotFound = errors.New("student_not_found")
)
