package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	attendancedomain "github.com/shulebooks/shulebooks/internal/attendance/domain"
	"github.com/shulebooks/shulebooks/internal/authorization"
	"github.com/shulebooks/shulebooks/internal/config"
	"github.com/shulebooks/shulebooks/internal/dashboard"
	feescheduledomain "github.com/shulebooks/shulebooks/internal/feeschedule/domain"
	"github.com/shulebooks/shulebooks/internal/logger"
	"github.com/shulebooks/shulebooks/internal/metrics"
	messagingdomain "github.com/shulebooks/shulebooks/internal/messaging/domain"
	paymentdomain "github.com/shulebooks/shulebooks/internal/payment/domain"
	"github.com/shulebooks/shulebooks/internal/providers/pdf"
	staffdomain "github.com/shulebooks/shulebooks/internal/staff/domain"
	studentdomain "github.com/shulebooks/shulebooks/internal/student/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, httpMetrics *metrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(log.Named("http")))
	r.Use(metrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	db            *gorm.DB
	studentSvc    studentdomain.Service
	feeSvc        feescheduledomain.Service
	paymentSvc    paymentdomain.Service
	attendanceSvc attendancedomain.Service
	staffSvc      staffdomain.Service
	messagingSvc  messagingdomain.Service
	dashboardSvc  dashboard.Service
	authzSvc      authorization.Service
	pdfProvider   pdf.Provider
	obsMetrics    *metrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	StudentSvc    studentdomain.Service
	FeeSvc        feescheduledomain.Service
	PaymentSvc    paymentdomain.Service
	AttendanceSvc attendancedomain.Service
	StaffSvc      staffdomain.Service
	MessagingSvc  messagingdomain.Service
	DashboardSvc  dashboard.Service
	AuthzSvc      authorization.Service
	PDFProvider   pdf.Provider
	ObsMetrics    *metrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		studentSvc:    p.StudentSvc,
		feeSvc:        p.FeeSvc,
		paymentSvc:    p.PaymentSvc,
		attendanceSvc: p.AttendanceSvc,
		staffSvc:      p.StaffSvc,
		messagingSvc:  p.MessagingSvc,
		dashboardSvc:  p.DashboardSvc,
		authzSvc:      p.AuthzSvc,
		pdfProvider:   p.PDFProvider,
		obsMetrics:    p.ObsMetrics,
	}

	svc.registerAPIRoutes()
	svc.registerWebhookRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.BranchContext())

	// -------- Students --------
	api.GET("/students", s.requireAction(authorization.ObjectStudent, authorization.ActionView), s.ListStudents)
	api.POST("/students", s.requireAction(authorization.ObjectStudent, authorization.ActionCreate), s.CreateStudent)
	api.GET("/students/:id", s.requireAction(authorization.ObjectStudent, authorization.ActionView), s.GetStudentByID)
	api.PATCH("/students/:id", s.requireAction(authorization.ObjectStudent, authorization.ActionUpdate), s.UpdateStudent)
	api.GET("/students/:id/statement", s.requireAction(authorization.ObjectPayment, authorization.ActionView), s.GetStatement)
	api.GET("/students/:id/statement.pdf", s.requireAction(authorization.ObjectReport, authorization.ActionExport), s.DownloadStatementPDF)
	api.GET("/students/:id/attendance", s.requireAction(authorization.ObjectAttendance, authorization.ActionView), s.ListStudentAttendance)

	// -------- Fee schedule --------
	api.GET("/fees/heads", s.requireAction(authorization.ObjectFeeSchedule, authorization.ActionView), s.ListFeeHeads)
	api.POST("/fees/heads", s.requireAction(authorization.ObjectFeeSchedule, authorization.ActionCreate), s.CreateFeeHead)
	api.GET("/fees/terms", s.requireAction(authorization.ObjectFeeSchedule, authorization.ActionView), s.ListFeeTerms)
	api.POST("/fees/terms", s.requireAction(authorization.ObjectFeeSchedule, authorization.ActionCreate), s.CreateFeeTerm)
	api.GET("/fees/structures", s.requireAction(authorization.ObjectFeeSchedule, authorization.ActionView), s.ListFeeStructures)
	api.POST("/fees/structures", s.requireAction(authorization.ObjectFeeSchedule, authorization.ActionCreate), s.CreateFeeStructure)
	api.POST("/fees/discounts", s.requireAction(authorization.ObjectFeeSchedule, authorization.ActionCreate), s.AssignDiscount)

	// -------- Payments --------
	api.GET("/payments", s.requireAction(authorization.ObjectPayment, authorization.ActionView), s.ListPayments)
	api.POST("/payments", s.requireAction(authorization.ObjectPayment, authorization.ActionRecord), s.RecordPayment)
	api.POST("/payments/preview", s.requireAction(authorization.ObjectPayment, authorization.ActionView), s.PreviewAllocation)
	api.GET("/payments/:id", s.requireAction(authorization.ObjectPayment, authorization.ActionView), s.GetReceipt)
	api.GET("/payments/:id/receipt.pdf", s.requireAction(authorization.ObjectReport, authorization.ActionExport), s.DownloadReceiptPDF)

	// -------- Attendance --------
	api.POST("/attendance", s.requireAction(authorization.ObjectAttendance, authorization.ActionMark), s.MarkAttendance)
	api.POST("/attendance/bulk", s.requireAction(authorization.ObjectAttendance, authorization.ActionMark), s.BulkMarkAttendance)
	api.GET("/attendance/summary", s.requireAction(authorization.ObjectAttendance, authorization.ActionView), s.GetClassSummary)

	// -------- Staff and payroll --------
	api.GET("/staff", s.requireAction(authorization.ObjectStaff, authorization.ActionView), s.ListStaff)
	api.POST("/staff", s.requireAction(authorization.ObjectStaff, authorization.ActionCreate), s.CreateStaff)
	api.POST("/staff/:id/salary-lines", s.requireAction(authorization.ObjectStaff, authorization.ActionUpdate), s.AddSalaryLine)
	api.GET("/payroll/runs", s.requireAction(authorization.ObjectPayroll, authorization.ActionView), s.ListPayrollRuns)
	api.POST("/payroll/runs", s.requireAction(authorization.ObjectPayroll, authorization.ActionRun), s.RunPayroll)
	api.GET("/payroll/runs/:id", s.requireAction(authorization.ObjectPayroll, authorization.ActionView), s.GetPayrollRun)

	// -------- Messaging --------
	api.POST("/messages", s.requireAction(authorization.ObjectMessage, authorization.ActionSend), s.EnqueueMessage)
	api.POST("/messages/broadcast", s.requireAction(authorization.ObjectMessage, authorization.ActionSend), s.BroadcastToClass)
	api.GET("/messages/batches/:id", s.requireAction(authorization.ObjectMessage, authorization.ActionView), s.GetBatchProgress)

	// -------- Dashboard --------
	api.GET("/dashboard/collections", s.requireAction(authorization.ObjectDashboard, authorization.ActionView), s.GetCollectionSummary)
	api.GET("/dashboard/outstanding", s.requireAction(authorization.ObjectDashboard, authorization.ActionView), s.GetOutstandingByClass)
	api.GET("/dashboard/defaulters", s.requireAction(authorization.ObjectDashboard, authorization.ActionView), s.GetDefaulters)
}

// registerWebhookRoutes mounts the provider callbacks. These are
// authenticated by the provider's own verify token, not by role.
func (s *Server) registerWebhookRoutes() {
	s.engine.GET("/webhooks/whatsapp", s.VerifyWhatsAppWebhook)
	s.engine.POST("/webhooks/whatsapp", s.HandleWhatsAppWebhook)
}
