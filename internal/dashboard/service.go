// Package dashboard computes read-only collection and outstanding-balance
// projections for the admin overview. Nothing here writes; balances are
// recomputed from fee structures and allocation history on every call.
package dashboard

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shulebooks/shulebooks/internal/branchcontext"
	"github.com/shulebooks/shulebooks/internal/clock"
	"github.com/shulebooks/shulebooks/internal/config"
	"github.com/shulebooks/shulebooks/internal/feecalc"
	feescheduledomain "github.com/shulebooks/shulebooks/internal/feeschedule/domain"
	paymentdomain "github.com/shulebooks/shulebooks/internal/payment/domain"
	studentdomain "github.com/shulebooks/shulebooks/internal/student/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidBranch = errors.New("invalid_branch")
	ErrInvalidRange  = errors.New("invalid_range")
)

type CollectionSummaryRequest struct {
	From time.Time
	To   time.Time
}

type CollectionSummary struct {
	From             time.Time        `json:"from"`
	To               time.Time        `json:"to"`
	TotalCollected   int64            `json:"total_collected"`
	TotalUnallocated int64            `json:"total_unallocated"`
	PaymentCount     int              `json:"payment_count"`
	ByMethod         map[string]int64 `json:"by_method"`
}

type ClassOutstanding struct {
	ClassName        string `json:"class_name"`
	Students         int    `json:"students"`
	TotalPayable     int64  `json:"total_payable"`
	TotalPaid        int64  `json:"total_paid"`
	TotalOutstanding int64  `json:"total_outstanding"`
	OverdueStudents  int    `json:"overdue_students"`
}

type Defaulter struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	AdmissionNo string `json:"admission_no"`
	ClassName   string `json:"class_name"`
	Outstanding int64  `json:"outstanding"`
	OverdueDays int    `json:"overdue_days"`
}

type Service interface {
	CollectionSummary(context.Context, CollectionSummaryRequest) (CollectionSummary, error)
	OutstandingByClass(context.Context) ([]ClassOutstanding, error)
	Defaulters(ctx context.Context, limit int) ([]Defaulter, error)
}

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Clock  clock.Clock
	Config config.Config
}

type service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	graceDays int
}

func New(p Params) Service {
	return &service{
		db:        p.DB,
		log:       p.Log.Named("dashboard.service"),
		clock:     p.Clock,
		graceDays: p.Config.Reminder.GracePeriodDays,
	}
}

var Module = fx.Module("dashboard.service",
	fx.Provide(New),
)

func (s *service) CollectionSummary(ctx context.Context, req CollectionSummaryRequest) (CollectionSummary, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return CollectionSummary{}, ErrInvalidBranch
	}
	if req.From.IsZero() || req.To.IsZero() || req.To.Before(req.From) {
		return CollectionSummary{}, ErrInvalidRange
	}

	var payments []paymentdomain.Payment
	err := s.db.WithContext(ctx).
		Model(&paymentdomain.Payment{}).
		Where("branch_id = ? AND received_at >= ? AND received_at <= ?", branchID, req.From, req.To).
		Find(&payments).Error
	if err != nil {
		return CollectionSummary{}, err
	}

	summary := CollectionSummary{
		From:     req.From,
		To:       req.To,
		ByMethod: map[string]int64{},
	}
	for _, payment := range payments {
		summary.TotalCollected += payment.Amount
		summary.TotalUnallocated += payment.UnallocatedAmount
		summary.ByMethod[payment.Method] += payment.Amount
		summary.PaymentCount++
	}
	return summary, nil
}

func (s *service) OutstandingByClass(ctx context.Context) ([]ClassOutstanding, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return nil, ErrInvalidBranch
	}

	balances, err := s.studentBalances(ctx, branchID)
	if err != nil {
		return nil, err
	}

	byClass := map[string]*ClassOutstanding{}
	for _, balance := range balances {
		entry, ok := byClass[balance.className]
		if !ok {
			entry = &ClassOutstanding{ClassName: balance.className}
			byClass[balance.className] = entry
		}
		entry.Students++
		entry.TotalPayable += balance.payable
		entry.TotalPaid += balance.paid
		entry.TotalOutstanding += balance.outstanding
		if balance.overdue {
			entry.OverdueStudents++
		}
	}

	result := make([]ClassOutstanding, 0, len(byClass))
	for _, entry := range byClass {
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ClassName < result[j].ClassName
	})
	return result, nil
}

func (s *service) Defaulters(ctx context.Context, limit int) ([]Defaulter, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return nil, ErrInvalidBranch
	}
	if limit <= 0 {
		limit = 20
	}

	balances, err := s.studentBalances(ctx, branchID)
	if err != nil {
		return nil, err
	}

	defaulters := make([]Defaulter, 0, len(balances))
	for _, balance := range balances {
		if balance.outstanding <= 0 || !balance.overdue {
			continue
		}
		defaulters = append(defaulters, Defaulter{
			StudentID:   balance.studentID.String(),
			StudentName: balance.studentName,
			AdmissionNo: balance.admissionNo,
			ClassName:   balance.className,
			Outstanding: balance.outstanding,
			OverdueDays: balance.maxOverdueDays,
		})
	}
	sort.Slice(defaulters, func(i, j int) bool {
		return defaulters[i].Outstanding > defaulters[j].Outstanding
	})
	if len(defaulters) > limit {
		defaulters = defaulters[:limit]
	}
	return defaulters, nil
}

type studentBalance struct {
	studentID      snowflake.ID
	studentName    string
	admissionNo    string
	className      string
	payable        int64
	paid           int64
	outstanding    int64
	overdue        bool
	maxOverdueDays int
}

// studentBalances recomputes every active student's position from the raw
// tables in four queries, then folds the fee math in memory.
func (s *service) studentBalances(ctx context.Context, branchID snowflake.ID) ([]studentBalance, error) {
	var students []studentdomain.Student
	err := s.db.WithContext(ctx).
		Model(&studentdomain.Student{}).
		Where("branch_id = ? AND status = ?", branchID, studentdomain.StudentStatusActive).
		Find(&students).Error
	if err != nil {
		return nil, err
	}

	var structures []feescheduledomain.FeeStructure
	err = s.db.WithContext(ctx).
		Model(&feescheduledomain.FeeStructure{}).
		Where("branch_id = ?", branchID).
		Find(&structures).Error
	if err != nil {
		return nil, err
	}

	var discounts []feescheduledomain.DiscountAssignment
	err = s.db.WithContext(ctx).
		Model(&feescheduledomain.DiscountAssignment{}).
		Where("branch_id = ?", branchID).
		Find(&discounts).Error
	if err != nil {
		return nil, err
	}

	var allocations []paymentdomain.PaymentAllocation
	err = s.db.WithContext(ctx).
		Model(&paymentdomain.PaymentAllocation{}).
		Where("branch_id = ?", branchID).
		Find(&allocations).Error
	if err != nil {
		return nil, err
	}

	structuresByClass := map[string][]feescheduledomain.FeeStructure{}
	for _, structure := range structures {
		structuresByClass[structure.ClassName] = append(structuresByClass[structure.ClassName], structure)
	}

	type key struct {
		student   snowflake.ID
		structure snowflake.ID
	}
	discountByKey := map[key]*feecalc.Discount{}
	for _, d := range discounts {
		discountByKey[key{d.StudentID, d.FeeStructureID}] = &feecalc.Discount{
			Kind:       feecalc.DiscountKind(d.Kind),
			Amount:     d.Amount,
			PercentBps: d.PercentBps,
		}
	}
	paidByKey := map[key]int64{}
	for _, alloc := range allocations {
		paidByKey[key{alloc.StudentID, alloc.FeeStructureID}] += alloc.Amount
	}

	opts := feecalc.Options{
		CalculateLateFees: true,
		ApplyDiscounts:    true,
		GracePeriodDays:   s.graceDays,
		AsOf:              s.clock.Now(),
	}

	balances := make([]studentBalance, 0, len(students))
	for _, student := range students {
		balance := studentBalance{
			studentID:   student.ID,
			studentName: student.FullName(),
			admissionNo: student.AdmissionNo,
			className:   student.ClassName,
		}
		for _, structure := range structuresByClass[student.ClassName] {
			ob := feecalc.Obligation{
				StructureID: structure.ID,
				FeeHeadID:   structure.FeeHeadID,
				TermID:      structure.TermID,
				BaseAmount:  structure.BaseAmount,
				DueDate:     structure.DueDate,
				Discount:    discountByKey[key{student.ID, structure.ID}],
			}
			if structure.LateFeeKind != "" {
				ob.LateFee = &feecalc.LateFeePolicy{
					Kind:         feecalc.LateFeeKind(structure.LateFeeKind),
					FlatAmount:   structure.LateFeeFlatAmount,
					DailyRateBps: structure.LateFeeDailyBps,
					MaxAmount:    structure.LateFeeMaxAmount,
				}
			}

			fee, err := feecalc.ComputeOne(ob, paidByKey[key{student.ID, structure.ID}], opts)
			if err != nil {
				return nil, err
			}
			balance.payable += fee.FinalAmount
			balance.paid += fee.PaidAmount
			balance.outstanding += fee.OutstandingAmount
			if fee.Status == feecalc.StatusOverdue {
				balance.overdue = true
				if fee.OverdueDays > balance.maxOverdueDays {
					balance.maxOverdueDays = fee.OverdueDays
				}
			}
		}
		balances = append(balances, balance)
	}
	return balances, nil
}
