package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shulebooks/shulebooks/internal/branchcontext"
	"github.com/shulebooks/shulebooks/internal/clock"
	"github.com/shulebooks/shulebooks/internal/student/domain"
	"github.com/shulebooks/shulebooks/pkg/db"
	"github.com/shulebooks/shulebooks/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("student.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateStudentRequest) (domain.Student, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return domain.Student{}, domain.ErrInvalidBranch
	}

	admissionNo := strings.TrimSpace(req.AdmissionNo)
	if admissionNo == "" {
		return domain.Student{}, domain.ErrInvalidAdmissionNo
	}
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	if firstName == "" || lastName == "" {
		return domain.Student{}, domain.ErrInvalidName
	}
	className := strings.TrimSpace(req.ClassName)
	if className == "" {
		return domain.Student{}, domain.ErrInvalidClass
	}
	guardianName := strings.TrimSpace(req.GuardianName)
	guardianPhone := normalizePhone(req.GuardianPhone)
	if guardianName == "" || guardianPhone == "" {
		return domain.Student{}, domain.ErrInvalidGuardian
	}

	now := s.clock.Now()
	student := domain.Student{
		ID:            s.genID.Generate(),
		BranchID:      branchID,
		AdmissionNo:   admissionNo,
		FirstName:     firstName,
		LastName:      lastName,
		ClassName:     className,
		Stream:        strings.TrimSpace(req.Stream),
		GuardianName:  guardianName,
		GuardianPhone: guardianPhone,
		Status:        domain.StudentStatusActive,
		AdmittedAt:    now,
		Metadata:      datatypes.JSONMap{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Insert(ctx, s.db, &student); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Student{}, domain.ErrDuplicateAdmission
		}
		return domain.Student{}, err
	}

	s.log.Info("student admitted",
		zap.String("student_id", student.ID.String()),
		zap.String("admission_no", student.AdmissionNo),
		zap.String("class", student.ClassName),
	)

	return student, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateStudentRequest) (domain.Student, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return domain.Student{}, domain.ErrInvalidBranch
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Student{}, err
	}

	student, err := s.repo.FindByID(ctx, s.db, branchID, id)
	if err != nil {
		return domain.Student{}, err
	}
	if student == nil {
		return domain.Student{}, domain.ErrNotFound
	}

	if req.ClassName != nil {
		className := strings.TrimSpace(*req.ClassName)
		if className == "" {
			return domain.Student{}, domain.ErrInvalidClass
		}
		student.ClassName = className
	}
	if req.Stream != nil {
		student.Stream = strings.TrimSpace(*req.Stream)
	}
	if req.GuardianName != nil {
		name := strings.TrimSpace(*req.GuardianName)
		if name == "" {
			return domain.Student{}, domain.ErrInvalidGuardian
		}
		student.GuardianName = name
	}
	if req.GuardianPhone != nil {
		phone := normalizePhone(*req.GuardianPhone)
		if phone == "" {
			return domain.Student{}, domain.ErrInvalidGuardian
		}
		student.GuardianPhone = phone
	}
	if req.Status != nil {
		switch domain.StudentStatus(strings.ToUpper(strings.TrimSpace(*req.Status))) {
		case domain.StudentStatusActive:
			student.Status = domain.StudentStatusActive
		case domain.StudentStatusLeft:
			student.Status = domain.StudentStatusLeft
		default:
			return domain.Student{}, domain.ErrInvalidStatus
		}
	}

	student.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, student); err != nil {
		return domain.Student{}, err
	}
	return *student, nil
}

func (s *Service) List(ctx context.Context, req domain.ListStudentRequest) (domain.ListStudentResponse, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return domain.ListStudentResponse{}, domain.ErrInvalidBranch
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, branchID, domain.ListStudentFilter{
		ClassName: strings.TrimSpace(req.ClassName),
		Status:    strings.ToUpper(strings.TrimSpace(req.Status)),
		Search:    strings.TrimSpace(req.Search),
	}, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(pageSize),
	})
	if err != nil {
		return domain.ListStudentResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(student *domain.Student) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        student.ID.String(),
			CreatedAt: student.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	students := make([]domain.Student, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		students = append(students, *item)
	}

	resp := domain.ListStudentResponse{Students: students}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetStudentRequest) (domain.Student, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return domain.Student{}, domain.ErrInvalidBranch
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Student{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, branchID, id)
	if err != nil {
		return domain.Student{}, err
	}
	if item == nil {
		return domain.Student{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

// normalizePhone strips spaces and dashes so numbers compare and dial
// consistently; the Cloud API wants digits with country code, no plus.
func normalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
