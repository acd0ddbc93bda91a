package scheduler

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	branchdomain "github.com/shulebooks/shulebooks/internal/branch/domain"
	"github.com/shulebooks/shulebooks/internal/branchcontext"
	"github.com/shulebooks/shulebooks/internal/feecalc"
	feescheduledomain "github.com/shulebooks/shulebooks/internal/feeschedule/domain"
	messagingdomain "github.com/shulebooks/shulebooks/internal/messaging/domain"
	paymentdomain "github.com/shulebooks/shulebooks/internal/payment/domain"
	"github.com/shulebooks/shulebooks/internal/reminder"
	studentdomain "github.com/shulebooks/shulebooks/internal/student/domain"
	"go.uber.org/zap"
)

type ScanReport struct {
	StudentsScanned int
	Enqueued        int
	Skipped         int
}

// RunReminderScan walks every branch's overdue balances and enqueues one
// reminder message per (student, structure, tier). The dedupe key keeps a
// rerun of the same scan from double-sending.
func (s *Scheduler) RunReminderScan(ctx context.Context) (ScanReport, error) {
	var report ScanReport

	var branches []branchdomain.Branch
	if err := s.db.WithContext(ctx).Find(&branches).Error; err != nil {
		return report, err
	}

	for _, branch := range branches {
		branchReport, err := s.scanBranch(ctx, branch)
		if err != nil {
			s.log.Error("branch scan failed",
				zap.String("branch_id", branch.ID.String()),
				zap.Error(err),
			)
			continue
		}
		report.StudentsScanned += branchReport.StudentsScanned
		report.Enqueued += branchReport.Enqueued
		report.Skipped += branchReport.Skipped
	}
	return report, nil
}

func (s *Scheduler) scanBranch(ctx context.Context, branch branchdomain.Branch) (ScanReport, error) {
	var report ScanReport
	branchCtx := branchcontext.WithBranchID(ctx, int64(branch.ID))

	var students []studentdomain.Student
	err := s.db.WithContext(ctx).
		Where("branch_id = ? AND status = ?", branch.ID, studentdomain.StudentStatusActive).
		Find(&students).Error
	if err != nil {
		return report, err
	}

	var structures []feescheduledomain.FeeStructure
	if err := s.db.WithContext(ctx).Where("branch_id = ?", branch.ID).Find(&structures).Error; err != nil {
		return report, err
	}
	var heads []feescheduledomain.FeeHead
	if err := s.db.WithContext(ctx).Where("branch_id = ?", branch.ID).Find(&heads).Error; err != nil {
		return report, err
	}
	var terms []feescheduledomain.FeeTerm
	if err := s.db.WithContext(ctx).Where("branch_id = ?", branch.ID).Find(&terms).Error; err != nil {
		return report, err
	}
	var discounts []feescheduledomain.DiscountAssignment
	if err := s.db.WithContext(ctx).Where("branch_id = ?", branch.ID).Find(&discounts).Error; err != nil {
		return report, err
	}
	var allocations []paymentdomain.PaymentAllocation
	if err := s.db.WithContext(ctx).Where("branch_id = ?", branch.ID).Find(&allocations).Error; err != nil {
		return report, err
	}

	structuresByClass := map[string][]feescheduledomain.FeeStructure{}
	for _, structure := range structures {
		structuresByClass[structure.ClassName] = append(structuresByClass[structure.ClassName], structure)
	}
	headNames := map[snowflake.ID]string{}
	for _, head := range heads {
		headNames[head.ID] = head.Name
	}
	termNames := map[snowflake.ID]string{}
	for _, term := range terms {
		termNames[term.ID] = term.Name
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

	thresholds := reminder.Thresholds{
		First:  s.cfg.Reminder.FirstDays,
		Second: s.cfg.Reminder.SecondDays,
		Final:  s.cfg.Reminder.FinalDays,
	}
	if err := thresholds.Validate(); err != nil {
		return report, err
	}

	opts := feecalc.Options{
		CalculateLateFees: true,
		ApplyDiscounts:    true,
		GracePeriodDays:   s.cfg.Reminder.GracePeriodDays,
		AsOf:              s.clock.Now(),
	}

	for _, student := range students {
		report.StudentsScanned++
		if student.GuardianPhone == "" {
			report.Skipped++
			continue
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
				return report, err
			}
			if fee.Status != feecalc.StatusOverdue || fee.OutstandingAmount <= 0 {
				continue
			}

			tier, ok := reminder.Classify(fee.OverdueDays, thresholds)
			if !ok {
				continue
			}

			body, err := reminder.Render(tier, reminder.Input{
				StudentName:  student.FullName(),
				GuardianName: student.GuardianName,
				FeeHead:      headNames[structure.FeeHeadID],
				Term:         termNames[structure.TermID],
				Outstanding:  formatAmount(structure.Currency, fee.OutstandingAmount),
				OverdueDays:  fee.OverdueDays,
				SchoolName:   branch.Name,
			})
			if err != nil {
				return report, err
			}

			_, err = s.messaging.Enqueue(branchCtx, messagingdomain.EnqueueRequest{
				StudentID: student.ID.String(),
				Recipient: student.GuardianPhone,
				Body:      body,
				Kind:      messagingdomain.KindFeeReminder,
				DedupeKey: fmt.Sprintf("fee_reminder:%s:%s:%s", student.ID, structure.ID, tier),
			})
			if err != nil {
				return report, err
			}
			report.Enqueued++
		}
	}
	return report, nil
}

func formatAmount(currency string, amount int64) string {
	return fmt.Sprintf("%s %d", currency, amount)
}
