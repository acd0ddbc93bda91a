package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shulebooks/shulebooks/internal/allocation"
	"github.com/shulebooks/shulebooks/internal/branchcontext"
	"github.com/shulebooks/shulebooks/internal/clock"
	"github.com/shulebooks/shulebooks/internal/config"
	"github.com/shulebooks/shulebooks/internal/feecalc"
	feescheduledomain "github.com/shulebooks/shulebooks/internal/feeschedule/domain"
	"github.com/shulebooks/shulebooks/internal/payment/domain"
	studentdomain "github.com/shulebooks/shulebooks/internal/student/domain"
	"github.com/shulebooks/shulebooks/pkg/db"
	"github.com/shulebooks/shulebooks/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Config      config.Config
	Repo        domain.Repository
	Students    studentdomain.Repository
	FeeSchedule feescheduledomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	currency    string
	graceDays   int
	repo        domain.Repository
	students    studentdomain.Repository
	feeSchedule feescheduledomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("payment.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		currency:    p.Config.Currency,
		graceDays:   p.Config.Reminder.GracePeriodDays,
		repo:        p.Repo,
		students:    p.Students,
		feeSchedule: p.FeeSchedule,
	}
}

func (s *Service) Statement(ctx context.Context, req domain.StatementRequest) (domain.Statement, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return domain.Statement{}, domain.ErrInvalidBranch
	}

	studentID, err := s.parseID(req.StudentID)
	if err != nil {
		return domain.Statement{}, err
	}

	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = s.clock.Now()
	}

	student, fees, err := s.buildStatement(ctx, s.db, branchID, studentID, asOf)
	if err != nil {
		return domain.Statement{}, err
	}

	statement := domain.Statement{
		StudentID:   student.ID.String(),
		StudentName: student.FullName(),
		AdmissionNo: student.AdmissionNo,
		ClassName:   student.ClassName,
		Currency:    s.currency,
		AsOf:        asOf,
		Fees:        fees,
	}
	for _, fee := range fees {
		statement.TotalPayable += fee.FinalAmount
		statement.TotalPaid += fee.PaidAmount
		statement.TotalOutstanding += fee.OutstandingAmount
	}
	return statement, nil
}

func (s *Service) PreviewAllocation(ctx context.Context, req domain.PreviewAllocationRequest) (allocation.Plan, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return allocation.Plan{}, domain.ErrInvalidBranch
	}

	studentID, err := s.parseID(req.StudentID)
	if err != nil {
		return allocation.Plan{}, err
	}
	if req.Amount <= 0 {
		return allocation.Plan{}, domain.ErrInvalidAmount
	}
	strategy, err := parseStrategy(req.Strategy)
	if err != nil {
		return allocation.Plan{}, err
	}
	manual, err := s.parseManual(req.Manual)
	if err != nil {
		return allocation.Plan{}, err
	}

	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = s.clock.Now()
	}

	_, fees, err := s.buildStatement(ctx, s.db, branchID, studentID, asOf)
	if err != nil {
		return allocation.Plan{}, err
	}

	return allocation.Allocate(req.Amount, toAllocatable(fees), strategy, manual)
}

func (s *Service) RecordPayment(ctx context.Context, req domain.RecordPaymentRequest) (domain.Receipt, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return domain.Receipt{}, domain.ErrInvalidBranch
	}

	studentID, err := s.parseID(req.StudentID)
	if err != nil {
		return domain.Receipt{}, err
	}
	if req.Amount <= 0 {
		return domain.Receipt{}, domain.ErrInvalidAmount
	}
	method, err := parseMethod(req.Method)
	if err != nil {
		return domain.Receipt{}, err
	}
	strategy, err := parseStrategy(req.Strategy)
	if err != nil {
		return domain.Receipt{}, err
	}
	manual, err := s.parseManual(req.Manual)
	if err != nil {
		return domain.Receipt{}, err
	}

	idempotencyKey := strings.TrimSpace(req.IdempotencyKey)
	if idempotencyKey != "" {
		existing, err := s.repo.FindPaymentByIdempotencyKey(ctx, s.db, branchID, idempotencyKey)
		if err != nil {
			return domain.Receipt{}, err
		}
		if existing != nil {
			allocs, err := s.repo.ListAllocationsForPayment(ctx, s.db, branchID, existing.ID)
			if err != nil {
				return domain.Receipt{}, err
			}
			return domain.Receipt{Payment: *existing, Allocations: derefAllocs(allocs), Replayed: true}, nil
		}
	}

	now := s.clock.Now()
	_, fees, err := s.buildStatement(ctx, s.db, branchID, studentID, now)
	if err != nil {
		return domain.Receipt{}, err
	}

	plan, err := allocation.Allocate(req.Amount, toAllocatable(fees), strategy, manual)
	if err != nil {
		return domain.Receipt{}, err
	}

	paymentID := s.genID.Generate()
	payment := domain.Payment{
		ID:                paymentID,
		BranchID:          branchID,
		StudentID:         studentID,
		Amount:            req.Amount,
		Currency:          s.currency,
		Method:            method,
		Reference:         strings.TrimSpace(req.Reference),
		IdempotencyKey:    idempotencyKey,
		Strategy:          string(plan.Strategy),
		UnallocatedAmount: plan.Unallocated,
		ReceiptNo:         fmt.Sprintf("RCP-%s", paymentID.String()),
		Note:              strings.TrimSpace(req.Note),
		ReceivedAt:        now,
		CreatedAt:         now,
	}

	allocs := make([]domain.PaymentAllocation, 0, len(plan.Entries))
	for _, entry := range plan.Entries {
		allocs = append(allocs, domain.PaymentAllocation{
			ID:             s.genID.Generate(),
			BranchID:       branchID,
			PaymentID:      paymentID,
			StudentID:      studentID,
			FeeStructureID: entry.StructureID,
			Amount:         entry.Amount,
			CreatedAt:      now,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.InsertPayment(ctx, tx, &payment); err != nil {
			return err
		}
		for i := range allocs {
			if err := s.repo.InsertAllocation(ctx, tx, &allocs[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Receipt{}, domain.ErrDuplicateKey
		}
		return domain.Receipt{}, err
	}

	s.log.Info("payment recorded",
		zap.String("payment_id", paymentID.String()),
		zap.String("student_id", studentID.String()),
		zap.Int64("amount", req.Amount),
		zap.String("strategy", string(plan.Strategy)),
		zap.Int64("unallocated", plan.Unallocated),
	)

	return domain.Receipt{Payment: payment, Allocations: allocs}, nil
}

func (s *Service) GetReceipt(ctx context.Context, paymentID string) (domain.Receipt, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return domain.Receipt{}, domain.ErrInvalidBranch
	}

	id, err := s.parseID(paymentID)
	if err != nil {
		return domain.Receipt{}, err
	}

	payment, err := s.repo.FindPaymentByID(ctx, s.db, branchID, id)
	if err != nil {
		return domain.Receipt{}, err
	}
	if payment == nil {
		return domain.Receipt{}, domain.ErrNotFound
	}
	allocs, err := s.repo.ListAllocationsForPayment(ctx, s.db, branchID, id)
	if err != nil {
		return domain.Receipt{}, err
	}
	return domain.Receipt{Payment: *payment, Allocations: derefAllocs(allocs)}, nil
}

func (s *Service) ListPayments(ctx context.Context, req domain.ListPaymentRequest) (domain.ListPaymentResponse, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return domain.ListPaymentResponse{}, domain.ErrInvalidBranch
	}

	var studentID snowflake.ID
	if strings.TrimSpace(req.StudentID) != "" {
		parsed, err := s.parseID(req.StudentID)
		if err != nil {
			return domain.ListPaymentResponse{}, err
		}
		studentID = parsed
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.ListPayments(ctx, s.db, branchID, studentID, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListPaymentResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(payment *domain.Payment) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        payment.ID.String(),
			CreatedAt: payment.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	payments := make([]domain.Payment, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		payments = append(payments, *item)
	}

	resp := domain.ListPaymentResponse{Payments: payments}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

// buildStatement loads the student's scheduled fees, discounts, and allocation
// history and recomputes the projection as of the given instant.
func (s *Service) buildStatement(ctx context.Context, tx *gorm.DB, branchID, studentID snowflake.ID, asOf time.Time) (*studentdomain.Student, []feecalc.CalculatedFee, error) {
	student, err := s.students.FindByID(ctx, tx, branchID, studentID)
	if err != nil {
		return nil, nil, err
	}
	if student == nil {
		return nil, nil, domain.ErrStudentNotFound
	}

	structures, err := s.feeSchedule.ListFeeStructuresForClass(ctx, tx, branchID, student.ClassName)
	if err != nil {
		return nil, nil, err
	}
	discounts, err := s.feeSchedule.ListDiscountsForStudent(ctx, tx, branchID, studentID)
	if err != nil {
		return nil, nil, err
	}
	history, err := s.repo.ListAllocationsForStudent(ctx, tx, branchID, studentID)
	if err != nil {
		return nil, nil, err
	}

	discountByStructure := make(map[snowflake.ID]*feecalc.Discount, len(discounts))
	for _, d := range discounts {
		if d == nil {
			continue
		}
		discountByStructure[d.FeeStructureID] = &feecalc.Discount{
			Kind:       feecalc.DiscountKind(d.Kind),
			Amount:     d.Amount,
			PercentBps: d.PercentBps,
		}
	}

	obligations := make([]feecalc.Obligation, 0, len(structures))
	for _, st := range structures {
		if st == nil {
			continue
		}
		ob := feecalc.Obligation{
			StructureID: st.ID,
			FeeHeadID:   st.FeeHeadID,
			TermID:      st.TermID,
			BaseAmount:  st.BaseAmount,
			DueDate:     st.DueDate,
			Discount:    discountByStructure[st.ID],
		}
		if st.LateFeeKind != "" {
			ob.LateFee = &feecalc.LateFeePolicy{
				Kind:         feecalc.LateFeeKind(st.LateFeeKind),
				FlatAmount:   st.LateFeeFlatAmount,
				DailyRateBps: st.LateFeeDailyBps,
				MaxAmount:    st.LateFeeMaxAmount,
			}
		}
		obligations = append(obligations, ob)
	}

	lines := make([]feecalc.PaymentLine, 0, len(history))
	for _, alloc := range history {
		if alloc == nil {
			continue
		}
		lines = append(lines, feecalc.PaymentLine{
			StructureID: alloc.FeeStructureID,
			Amount:      alloc.Amount,
			PaidAt:      alloc.CreatedAt,
		})
	}

	fees, err := feecalc.Compute(obligations, lines, feecalc.Options{
		CalculateLateFees: true,
		ApplyDiscounts:    true,
		GracePeriodDays:   s.graceDays,
		AsOf:              asOf,
	})
	if err != nil {
		return nil, nil, err
	}
	s.annotate(ctx, tx, branchID, fees)
	return student, fees, nil
}

// annotate fills in fee head and term display names. Lookup failures leave the
// names blank rather than failing the statement.
func (s *Service) annotate(ctx context.Context, tx *gorm.DB, branchID snowflake.ID, fees []feecalc.CalculatedFee) {
	headNames := make(map[snowflake.ID]string)
	termNames := make(map[snowflake.ID]string)

	if heads, err := s.feeSchedule.ListFeeHeads(ctx, tx, branchID); err == nil {
		for _, head := range heads {
			if head != nil {
				headNames[head.ID] = head.Name
			}
		}
	}
	if terms, err := s.feeSchedule.ListFeeTerms(ctx, tx, branchID); err == nil {
		for _, term := range terms {
			if term != nil {
				termNames[term.ID] = term.Name
			}
		}
	}

	for i := range fees {
		fees[i].FeeHeadName = headNames[fees[i].FeeHeadID]
		fees[i].TermName = termNames[fees[i].TermID]
	}
}

func toAllocatable(fees []feecalc.CalculatedFee) []allocation.Obligation {
	obligations := make([]allocation.Obligation, 0, len(fees))
	for _, fee := range fees {
		obligations = append(obligations, allocation.Obligation{
			StructureID: fee.StructureID,
			DueDate:     fee.DueDate,
			Outstanding: fee.OutstandingAmount,
		})
	}
	return obligations
}

func parseStrategy(raw string) (allocation.Strategy, error) {
	switch allocation.Strategy(strings.ToLower(strings.TrimSpace(raw))) {
	case allocation.OldestFirst, "":
		return allocation.OldestFirst, nil
	case allocation.HighestAmountFirst:
		return allocation.HighestAmountFirst, nil
	case allocation.EqualDistribution:
		return allocation.EqualDistribution, nil
	case allocation.Manual:
		return allocation.Manual, nil
	default:
		return "", domain.ErrInvalidStrategy
	}
}

func parseMethod(raw string) (string, error) {
	method := strings.ToLower(strings.TrimSpace(raw))
	switch method {
	case domain.MethodCash, domain.MethodMobileMoney, domain.MethodBank, domain.MethodCheque:
		return method, nil
	default:
		return "", domain.ErrInvalidMethod
	}
}

func (s *Service) parseManual(raw map[string]int64) (map[snowflake.ID]int64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	manual := make(map[snowflake.ID]int64, len(raw))
	for key, amount := range raw {
		id, err := s.parseID(key)
		if err != nil {
			return nil, err
		}
		manual[id] = amount
	}
	return manual, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func derefAllocs(items []*domain.PaymentAllocation) []domain.PaymentAllocation {
	out := make([]domain.PaymentAllocation, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		out = append(out, *item)
	}
	return out
}
