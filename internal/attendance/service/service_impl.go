package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shulebooks/shulebooks/internal/attendance/domain"
	"github.com/shulebooks/shulebooks/internal/branchcontext"
	"github.com/shulebooks/shulebooks/internal/clock"
	studentdomain "github.com/shulebooks/shulebooks/internal/student/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Students studentdomain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	students studentdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("attendance.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		students: p.Students,
	}
}

func (s *Service) Mark(ctx context.Context, req domain.MarkRequest) (domain.AttendanceRecord, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return domain.AttendanceRecord{}, domain.ErrInvalidBranch
	}

	studentID, err := s.parseID(req.StudentID)
	if err != nil {
		return domain.AttendanceRecord{}, err
	}
	status, err := parseStatus(req.Status)
	if err != nil {
		return domain.AttendanceRecord{}, err
	}
	if req.Day.IsZero() {
		return domain.AttendanceRecord{}, domain.ErrInvalidDay
	}

	student, err := s.students.FindByID(ctx, s.db, branchID, studentID)
	if err != nil {
		return domain.AttendanceRecord{}, err
	}
	if student == nil {
		return domain.AttendanceRecord{}, domain.ErrStudentNotFound
	}

	now := s.clock.Now()
	record := domain.AttendanceRecord{
		ID:        s.genID.Generate(),
		BranchID:  branchID,
		StudentID: studentID,
		ClassName: student.ClassName,
		Day:       truncateToDay(req.Day),
		Status:    status,
		Note:      strings.TrimSpace(req.Note),
		MarkedBy:  branchcontext.ActorFromContext(ctx),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Upsert(ctx, s.db, &record); err != nil {
		return domain.AttendanceRecord{}, err
	}
	return record, nil
}

func (s *Service) BulkMark(ctx context.Context, req domain.BulkMarkRequest) (domain.BulkMarkResponse, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return domain.BulkMarkResponse{}, domain.ErrInvalidBranch
	}
	if strings.TrimSpace(req.ClassName) == "" {
		return domain.BulkMarkResponse{}, domain.ErrInvalidClass
	}
	if req.Day.IsZero() {
		return domain.BulkMarkResponse{}, domain.ErrInvalidDay
	}

	marked := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, mark := range req.Marks {
			mark.Day = req.Day
			record, err := s.markInTx(ctx, tx, branchID, mark)
			if err != nil {
				return err
			}
			_ = record
			marked++
		}
		return nil
	})
	if err != nil {
		return domain.BulkMarkResponse{}, err
	}

	s.log.Info("attendance marked",
		zap.String("class", req.ClassName),
		zap.Time("day", truncateToDay(req.Day)),
		zap.Int("marked", marked),
	)
	return domain.BulkMarkResponse{Marked: marked}, nil
}

func (s *Service) markInTx(ctx context.Context, tx *gorm.DB, branchID snowflake.ID, req domain.MarkRequest) (domain.AttendanceRecord, error) {
	studentID, err := s.parseID(req.StudentID)
	if err != nil {
		return domain.AttendanceRecord{}, err
	}
	status, err := parseStatus(req.Status)
	if err != nil {
		return domain.AttendanceRecord{}, err
	}

	student, err := s.students.FindByID(ctx, tx, branchID, studentID)
	if err != nil {
		return domain.AttendanceRecord{}, err
	}
	if student == nil {
		return domain.AttendanceRecord{}, domain.ErrStudentNotFound
	}

	now := s.clock.Now()
	record := domain.AttendanceRecord{
		ID:        s.genID.Generate(),
		BranchID:  branchID,
		StudentID: studentID,
		ClassName: student.ClassName,
		Day:       truncateToDay(req.Day),
		Status:    status,
		Note:      strings.TrimSpace(req.Note),
		MarkedBy:  branchcontext.ActorFromContext(ctx),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Upsert(ctx, tx, &record); err != nil {
		return domain.AttendanceRecord{}, err
	}
	return record, nil
}

func (s *Service) ClassSummary(ctx context.Context, req domain.ClassSummaryRequest) (domain.ClassSummary, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return domain.ClassSummary{}, domain.ErrInvalidBranch
	}
	className := strings.TrimSpace(req.ClassName)
	if className == "" {
		return domain.ClassSummary{}, domain.ErrInvalidClass
	}
	from, to, err := normalizeRange(req.From, req.To)
	if err != nil {
		return domain.ClassSummary{}, err
	}

	records, err := s.repo.ListForClass(ctx, s.db, branchID, className, from, to)
	if err != nil {
		return domain.ClassSummary{}, err
	}

	summary := domain.ClassSummary{
		ClassName: className,
		From:      from,
		To:        to,
		Counts:    map[string]int{},
	}
	seen := map[snowflake.ID]struct{}{}
	for _, record := range records {
		if record == nil {
			continue
		}
		summary.Counts[record.Status]++
		seen[record.StudentID] = struct{}{}
	}
	summary.Students = len(seen)
	return summary, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.AttendanceRecord, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return nil, domain.ErrInvalidBranch
	}
	studentID, err := s.parseID(req.StudentID)
	if err != nil {
		return nil, err
	}
	from, to, err := normalizeRange(req.From, req.To)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListForStudent(ctx, s.db, branchID, studentID, from, to)
	if err != nil {
		return nil, err
	}
	records := make([]domain.AttendanceRecord, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		records = append(records, *item)
	}
	return records, nil
}

func normalizeRange(from, to time.Time) (time.Time, time.Time, error) {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return time.Time{}, time.Time{}, domain.ErrInvalidRange
	}
	return truncateToDay(from), truncateToDay(to), nil
}

func truncateToDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func parseStatus(raw string) (string, error) {
	status := strings.ToLower(strings.TrimSpace(raw))
	switch status {
	case domain.StatusPresent, domain.StatusAbsent, domain.StatusLate, domain.StatusExcused:
		return status, nil
	default:
		return "", domain.ErrInvalidStatus
	}
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
