package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shulebooks/shulebooks/internal/branchcontext"
	"github.com/shulebooks/shulebooks/internal/clock"
	"github.com/shulebooks/shulebooks/internal/staff/domain"
	"github.com/shulebooks/shulebooks/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

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
		log:   p.Log.Named("staff.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) CreateStaff(ctx context.Context, req domain.CreateStaffRequest) (domain.Staff, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return domain.Staff{}, domain.ErrInvalidBranch
	}

	staffNo := strings.TrimSpace(req.StaffNo)
	if staffNo == "" {
		return domain.Staff{}, domain.ErrInvalidStaffNo
	}
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	if firstName == "" || lastName == "" {
		return domain.Staff{}, domain.ErrInvalidName
	}
	role := strings.TrimSpace(req.Role)
	if role == "" {
		return domain.Staff{}, domain.ErrInvalidRole
	}
	if req.BaseSalary <= 0 {
		return domain.Staff{}, domain.ErrInvalidSalary
	}

	now := s.clock.Now()
	member := domain.Staff{
		ID:         s.genID.Generate(),
		BranchID:   branchID,
		StaffNo:    staffNo,
		FirstName:  firstName,
		LastName:   lastName,
		Role:       role,
		Phone:      strings.TrimSpace(req.Phone),
		BaseSalary: req.BaseSalary,
		Status:     domain.StaffStatusActive,
		HiredAt:    now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.InsertStaff(ctx, s.db, &member); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Staff{}, domain.ErrDuplicateStaffNo
		}
		return domain.Staff{}, err
	}
	return member, nil
}

func (s *Service) ListStaff(ctx context.Context) ([]domain.Staff, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return nil, domain.ErrInvalidBranch
	}
	items, err := s.repo.ListStaff(ctx, s.db, branchID)
	if err != nil {
		return nil, err
	}
	members := make([]domain.Staff, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		members = append(members, *item)
	}
	return members, nil
}

func (s *Service) AddSalaryLine(ctx context.Context, req domain.AddSalaryLineRequest) (domain.SalaryLine, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return domain.SalaryLine{}, domain.ErrInvalidBranch
	}

	staffID, err := s.parseID(req.StaffID)
	if err != nil {
		return domain.SalaryLine{}, err
	}
	kind := strings.ToLower(strings.TrimSpace(req.Kind))
	if kind != domain.SalaryLineAllowance && kind != domain.SalaryLineDeduction {
		return domain.SalaryLine{}, domain.ErrInvalidLineKind
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.SalaryLine{}, domain.ErrInvalidName
	}
	if req.Amount <= 0 {
		return domain.SalaryLine{}, domain.ErrInvalidAmount
	}

	member, err := s.repo.FindStaffByID(ctx, s.db, branchID, staffID)
	if err != nil {
		return domain.SalaryLine{}, err
	}
	if member == nil {
		return domain.SalaryLine{}, domain.ErrNotFound
	}

	line := domain.SalaryLine{
		ID:        s.genID.Generate(),
		BranchID:  branchID,
		StaffID:   staffID,
		Kind:      kind,
		Name:      name,
		Amount:    req.Amount,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.InsertSalaryLine(ctx, s.db, &line); err != nil {
		return domain.SalaryLine{}, err
	}
	return line, nil
}

func (s *Service) RunPayroll(ctx context.Context, req domain.RunPayrollRequest) (domain.PayrollResult, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return domain.PayrollResult{}, domain.ErrInvalidBranch
	}

	period := strings.TrimSpace(req.Period)
	if !periodPattern.MatchString(period) {
		return domain.PayrollResult{}, domain.ErrInvalidPeriod
	}

	members, err := s.repo.ListActiveStaff(ctx, s.db, branchID)
	if err != nil {
		return domain.PayrollResult{}, err
	}
	if len(members) == 0 {
		return domain.PayrollResult{}, domain.ErrNoActiveStaff
	}

	now := s.clock.Now()
	run := domain.PayrollRun{
		ID:        s.genID.Generate(),
		BranchID:  branchID,
		Period:    period,
		Status:    domain.PayrollStatusFinalized,
		RunAt:     now,
		CreatedAt: now,
	}

	items := make([]domain.PayrollItem, 0, len(members))
	for _, member := range members {
		if member == nil {
			continue
		}
		lines, err := s.repo.ListSalaryLines(ctx, s.db, branchID, member.ID)
		if err != nil {
			return domain.PayrollResult{}, err
		}
		slip := domain.ComputePayslip(member.BaseSalary, derefLines(lines))
		items = append(items, domain.PayrollItem{
			ID:         s.genID.Generate(),
			BranchID:   branchID,
			RunID:      run.ID,
			StaffID:    member.ID,
			StaffName:  member.FullName(),
			BaseSalary: slip.BaseSalary,
			Allowances: slip.Allowances,
			Deductions: slip.Deductions,
			NetPay:     slip.NetPay,
			CreatedAt:  now,
		})
		run.TotalGross += slip.BaseSalary + slip.Allowances
		run.TotalNet += slip.NetPay
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertPayrollRun(ctx, tx, &run); err != nil {
			return err
		}
		for i := range items {
			if err := s.repo.InsertPayrollItem(ctx, tx, &items[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.PayrollResult{}, domain.ErrDuplicateRun
		}
		return domain.PayrollResult{}, err
	}

	s.log.Info("payroll finalized",
		zap.String("run_id", run.ID.String()),
		zap.String("period", run.Period),
		zap.Int("staff", len(items)),
		zap.Int64("total_net", run.TotalNet),
	)

	return domain.PayrollResult{Run: run, Items: items}, nil
}

func (s *Service) GetPayrollRun(ctx context.Context, runID string) (domain.PayrollResult, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return domain.PayrollResult{}, domain.ErrInvalidBranch
	}

	id, err := s.parseID(runID)
	if err != nil {
		return domain.PayrollResult{}, err
	}
	run, err := s.repo.FindPayrollRunByID(ctx, s.db, branchID, id)
	if err != nil {
		return domain.PayrollResult{}, err
	}
	if run == nil {
		return domain.PayrollResult{}, domain.ErrNotFound
	}
	items, err := s.repo.ListPayrollItems(ctx, s.db, branchID, id)
	if err != nil {
		return domain.PayrollResult{}, err
	}

	result := domain.PayrollResult{Run: *run}
	for _, item := range items {
		if item == nil {
			continue
		}
		result.Items = append(result.Items, *item)
	}
	return result, nil
}

func (s *Service) ListPayrollRuns(ctx context.Context) ([]domain.PayrollRun, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return nil, domain.ErrInvalidBranch
	}
	items, err := s.repo.ListPayrollRuns(ctx, s.db, branchID)
	if err != nil {
		return nil, err
	}
	runs := make([]domain.PayrollRun, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		runs = append(runs, *item)
	}
	return runs, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func derefLines(items []*domain.SalaryLine) []domain.SalaryLine {
	lines := make([]domain.SalaryLine, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		lines = append(lines, *item)
	}
	return lines
}
