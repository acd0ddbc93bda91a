package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shulebooks/shulebooks/internal/branchcontext"
	"github.com/shulebooks/shulebooks/internal/clock"
	"github.com/shulebooks/shulebooks/internal/config"
	"github.com/shulebooks/shulebooks/internal/feecalc"
	"github.com/shulebooks/shulebooks/internal/feeschedule/domain"
	"github.com/shulebooks/shulebooks/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Config config.Config
	Repo   domain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	currency string
	repo     domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("feeschedule.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		currency: p.Config.Currency,
		repo:     p.Repo,
	}
}

func (s *Service) CreateFeeHead(ctx context.Context, req domain.CreateFeeHeadRequest) (domain.FeeHead, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return domain.FeeHead{}, domain.ErrInvalidBranch
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.FeeHead{}, domain.ErrInvalidName
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return domain.FeeHead{}, domain.ErrInvalidCode
	}

	now := s.clock.Now()
	head := domain.FeeHead{
		ID:          s.genID.Generate(),
		BranchID:    branchID,
		Name:        name,
		Code:        code,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.InsertFeeHead(ctx, s.db, &head); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.FeeHead{}, domain.ErrDuplicateCode
		}
		return domain.FeeHead{}, err
	}
	return head, nil
}

func (s *Service) ListFeeHeads(ctx context.Context) ([]domain.FeeHead, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return nil, domain.ErrInvalidBranch
	}
	items, err := s.repo.ListFeeHeads(ctx, s.db, branchID)
	if err != nil {
		return nil, err
	}
	return deref(items), nil
}

func (s *Service) CreateFeeTerm(ctx context.Context, req domain.CreateFeeTermRequest) (domain.FeeTerm, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return domain.FeeTerm{}, domain.ErrInvalidBranch
	}

	name := strings.TrimSpace(req.Name)
	year := strings.TrimSpace(req.AcademicYear)
	if name == "" || year == "" {
		return domain.FeeTerm{}, domain.ErrInvalidName
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() || !req.EndDate.After(req.StartDate) {
		return domain.FeeTerm{}, domain.ErrInvalidTermDates
	}

	now := s.clock.Now()
	term := domain.FeeTerm{
		ID:           s.genID.Generate(),
		BranchID:     branchID,
		Name:         name,
		AcademicYear: year,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.InsertFeeTerm(ctx, s.db, &term); err != nil {
		return domain.FeeTerm{}, err
	}
	return term, nil
}

func (s *Service) ListFeeTerms(ctx context.Context) ([]domain.FeeTerm, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return nil, domain.ErrInvalidBranch
	}
	items, err := s.repo.ListFeeTerms(ctx, s.db, branchID)
	if err != nil {
		return nil, err
	}
	return deref(items), nil
}

func (s *Service) CreateFeeStructure(ctx context.Context, req domain.CreateFeeStructureRequest) (domain.FeeStructure, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return domain.FeeStructure{}, domain.ErrInvalidBranch
	}

	headID, err := s.parseID(req.FeeHeadID)
	if err != nil {
		return domain.FeeStructure{}, err
	}
	termID, err := s.parseID(req.TermID)
	if err != nil {
		return domain.FeeStructure{}, err
	}
	className := strings.TrimSpace(req.ClassName)
	if className == "" {
		return domain.FeeStructure{}, domain.ErrInvalidName
	}
	if req.BaseAmount <= 0 {
		return domain.FeeStructure{}, domain.ErrInvalidAmount
	}
	if req.DueDate.IsZero() {
		return domain.FeeStructure{}, domain.ErrInvalidDueDate
	}
	lateFeeKind, err := validateLateFee(req)
	if err != nil {
		return domain.FeeStructure{}, err
	}

	head, err := s.repo.FindFeeHead(ctx, s.db, branchID, headID)
	if err != nil {
		return domain.FeeStructure{}, err
	}
	if head == nil {
		return domain.FeeStructure{}, domain.ErrNotFound
	}
	term, err := s.repo.FindFeeTerm(ctx, s.db, branchID, termID)
	if err != nil {
		return domain.FeeStructure{}, err
	}
	if term == nil {
		return domain.FeeStructure{}, domain.ErrNotFound
	}

	now := s.clock.Now()
	structure := domain.FeeStructure{
		ID:                s.genID.Generate(),
		BranchID:          branchID,
		FeeHeadID:         headID,
		TermID:            termID,
		ClassName:         className,
		BaseAmount:        req.BaseAmount,
		Currency:          s.currency,
		DueDate:           req.DueDate,
		LateFeeKind:       lateFeeKind,
		LateFeeFlatAmount: req.LateFeeFlatAmount,
		LateFeeDailyBps:   req.LateFeeDailyBps,
		LateFeeMaxAmount:  req.LateFeeMaxAmount,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.InsertFeeStructure(ctx, s.db, &structure); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.FeeStructure{}, domain.ErrDuplicateStructure
		}
		return domain.FeeStructure{}, err
	}

	s.log.Info("fee structure issued",
		zap.String("structure_id", structure.ID.String()),
		zap.String("class", structure.ClassName),
		zap.Int64("base_amount", structure.BaseAmount),
	)

	return structure, nil
}

func (s *Service) ListFeeStructures(ctx context.Context, req domain.ListFeeStructureRequest) ([]domain.FeeStructure, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return nil, domain.ErrInvalidBranch
	}

	var termID snowflake.ID
	if strings.TrimSpace(req.TermID) != "" {
		parsed, err := s.parseID(req.TermID)
		if err != nil {
			return nil, err
		}
		termID = parsed
	}

	items, err := s.repo.ListFeeStructures(ctx, s.db, branchID, termID, strings.TrimSpace(req.ClassName))
	if err != nil {
		return nil, err
	}
	return deref(items), nil
}

func (s *Service) AssignDiscount(ctx context.Context, req domain.AssignDiscountRequest) (domain.DiscountAssignment, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return domain.DiscountAssignment{}, domain.ErrInvalidBranch
	}

	studentID, err := s.parseID(req.StudentID)
	if err != nil {
		return domain.DiscountAssignment{}, err
	}
	structureID, err := s.parseID(req.FeeStructureID)
	if err != nil {
		return domain.DiscountAssignment{}, err
	}

	kind := strings.ToLower(strings.TrimSpace(req.Kind))
	switch feecalc.DiscountKind(kind) {
	case feecalc.DiscountFlat:
		if req.Amount <= 0 {
			return domain.DiscountAssignment{}, domain.ErrInvalidDiscount
		}
	case feecalc.DiscountPercent:
		if req.PercentBps <= 0 || req.PercentBps > 10000 {
			return domain.DiscountAssignment{}, domain.ErrInvalidDiscount
		}
	default:
		return domain.DiscountAssignment{}, domain.ErrInvalidDiscount
	}

	discount := domain.DiscountAssignment{
		ID:             s.genID.Generate(),
		BranchID:       branchID,
		StudentID:      studentID,
		FeeStructureID: structureID,
		Kind:           kind,
		Amount:         req.Amount,
		PercentBps:     req.PercentBps,
		Reason:         strings.TrimSpace(req.Reason),
		CreatedAt:      s.clock.Now(),
	}
	if err := s.repo.InsertDiscount(ctx, s.db, &discount); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.DiscountAssignment{}, domain.ErrDuplicateDiscount
		}
		return domain.DiscountAssignment{}, err
	}
	return discount, nil
}

func validateLateFee(req domain.CreateFeeStructureRequest) (string, error) {
	kind := strings.ToLower(strings.TrimSpace(req.LateFeeKind))
	switch feecalc.LateFeeKind(kind) {
	case feecalc.LateFeeFlat:
		if req.LateFeeFlatAmount <= 0 {
			return "", domain.ErrInvalidLateFee
		}
	case feecalc.LateFeePerDay:
		if req.LateFeeDailyBps <= 0 {
			return "", domain.ErrInvalidLateFee
		}
	case "":
		if req.LateFeeFlatAmount != 0 || req.LateFeeDailyBps != 0 {
			return "", domain.ErrInvalidLateFee
		}
	default:
		return "", domain.ErrInvalidLateFee
	}
	if req.LateFeeMaxAmount < 0 {
		return "", domain.ErrInvalidLateFee
	}
	return kind, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func deref[T any](items []*T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, *item)
	}
	return out
}
