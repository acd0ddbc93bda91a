package domain

import (
	"context"
	"errors"

	"github.com/shulebooks/shulebooks/pkg/db/pagination"
)

type CreateStudentRequest struct {
	AdmissionNo   string `json:"admission_no"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	ClassName     string `json:"class_name"`
	Stream        string `json:"stream"`
	GuardianName  string `json:"guardian_name"`
	GuardianPhone string `json:"guardian_phone"`
}

type UpdateStudentRequest struct {
	ID            string
	ClassName     *string `json:"class_name"`
	Stream        *string `json:"stream"`
	GuardianName  *string `json:"guardian_name"`
	GuardianPhone *string `json:"guardian_phone"`
	Status        *string `json:"status"`
}

type ListStudentRequest struct {
	PageToken string
	PageSize  int32
	ClassName string
	Status    string
	Search    string
}

type ListStudentResponse struct {
	pagination.PageInfo
	Students []Student `json:"students"`
}

type GetStudentRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateStudentRequest) (Student, error)
	Update(context.Context, UpdateStudentRequest) (Student, error)
	List(context.Context, ListStudentRequest) (ListStudentResponse, error)
	GetByID(context.Context, GetStudentRequest) (Student, error)
}

var (
	ErrInvalidBranch      = errors.New("invalid_branch")
	ErrInvalidAdmissionNo = errors.New("invalid_admission_no")
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidClass       = errors.New("invalid_class")
	ErrInvalidGuardian    = errors.New("invalid_guardian")
	ErrInvalidStatus      = errors.New("invalid_status")
	ErrInvalidID          = errors.New("invalid_id")
	ErrDuplicateAdmission = errors.New("duplicate_admission_no")
	ErrNotFound           = errors.New("not_found")
)
