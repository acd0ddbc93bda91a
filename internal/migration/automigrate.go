package migration

import (
	attendancedomain "github.com/shulebooks/shulebooks/internal/attendance/domain"
	branchdomain "github.com/shulebooks/shulebooks/internal/branch/domain"
	feescheduledomain "github.com/shulebooks/shulebooks/internal/feeschedule/domain"
	messagingdomain "github.com/shulebooks/shulebooks/internal/messaging/domain"
	paymentdomain "github.com/shulebooks/shulebooks/internal/payment/domain"
	staffdomain "github.com/shulebooks/shulebooks/internal/staff/domain"
	studentdomain "github.com/shulebooks/shulebooks/internal/student/domain"
	"gorm.io/gorm"
)

// AutoMigrate builds the schema from the models for the non-postgres
// dialects used in development.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&branchdomain.Branch{},
		&studentdomain.Student{},
		&feescheduledomain.FeeHead{},
		&feescheduledomain.FeeTerm{},
		&feescheduledomain.FeeStructure{},
		&feescheduledomain.DiscountAssignment{},
		&paymentdomain.Payment{},
		&paymentdomain.PaymentAllocation{},
		&attendancedomain.AttendanceRecord{},
		&staffdomain.Staff{},
		&staffdomain.SalaryLine{},
		&staffdomain.PayrollRun{},
		&staffdomain.PayrollItem{},
		&messagingdomain.MessageJob{},
	)
}
