package domain

import (
	"context"
	"errors"
	"time"
)

type CreateFeeHeadRequest struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

type CreateFeeTermRequest struct {
	Name         string    `json:"name"`
	AcademicYear string    `json:"academic_year"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
}

type CreateFeeStructureRequest struct {
	FeeHeadID         string    `json:"fee_head_id"`
	TermID            string    `json:"term_id"`
	ClassName         string    `json:"class_name"`
	BaseAmount        int64     `json:"base_amount"`
	DueDate           time.Time `json:"due_date"`
	LateFeeKind       string    `json:"late_fee_kind"`
	LateFeeFlatAmount int64     `json:"late_fee_flat_amount"`
	LateFeeDailyBps   int64     `json:"late_fee_daily_bps"`
	LateFeeMaxAmount  int64     `json:"late_fee_max_amount"`
}

type AssignDiscountRequest struct {
	StudentID      string `json:"student_id"`
	FeeStructureID string `json:"fee_structure_id"`
	Kind           string `json:"kind"`
	Amount         int64  `json:"amount"`
	PercentBps     int64  `json:"percent_bps"`
	Reason         string `json:"reason"`
}

type ListFeeStructureRequest struct {
	TermID    string
	ClassName string
}

type Service interface {
	CreateFeeHead(context.Context, CreateFeeHeadRequest) (FeeHead, error)
	ListFeeHeads(context.Context) ([]FeeHead, error)
	CreateFeeTerm(context.Context, CreateFeeTermRequest) (FeeTerm, error)
	ListFeeTerms(context.Context) ([]FeeTerm, error)
	CreateFeeStructure(context.Context, CreateFeeStructureRequest) (FeeStructure, error)
	ListFeeStructures(context.Context, ListFeeStructureRequest) ([]FeeStructure, error)
	AssignDiscount(context.Context, AssignDiscountRequest) (DiscountAssignment, error)
}

var (
	ErrInvalidBranch      = errors.New("invalid_branch")
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidCode        = errors.New("invalid_code")
	ErrInvalidTermDates   = errors.New("invalid_term_dates")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrInvalidDueDate     = errors.New("invalid_due_date")
	ErrInvalidLateFee     = errors.New("invalid_late_fee")
	ErrInvalidDiscount    = errors.New("invalid_discount")
	ErrInvalidID          = errors.New("invalid_id")
	ErrDuplicateCode      = errors.New("duplicate_code")
	ErrDuplicateStructure = errors.New("duplicate_structure")
	ErrDuplicateDiscount  = errors.New("duplicate_discount")
	ErrNotFound           = errors.New("not_found")
)
