package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	branchdomain "github.com/shulebooks/shulebooks/internal/branch/domain"
	"github.com/shulebooks/shulebooks/internal/branchcontext"
	feescheduledomain "github.com/shulebooks/shulebooks/internal/feeschedule/domain"
	paymentdomain "github.com/shulebooks/shulebooks/internal/payment/domain"
	"github.com/shulebooks/shulebooks/internal/providers/pdf"
	studentdomain "github.com/shulebooks/shulebooks/internal/student/domain"
)

func (s *Server) DownloadStatementPDF(c *gin.Context) {
	asOf, err := parseOptionalTime(c.Query("as_of"), true)
	if err != nil {
		AbortWithError(c, newValidationError("as_of", "invalid_as_of", "invalid as_of"))
		return
	}

	statement, err := s.paymentSvc.Statement(c.Request.Context(), paymentdomain.StatementRequest{
		StudentID: strings.TrimSpace(c.Param("id")),
		AsOf:      asOf,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	branch, err := s.loadBranch(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rows := make([]pdf.StatementRow, 0, len(statement.Fees))
	for _, fee := range statement.Fees {
		rows = append(rows, pdf.StatementRow{
			FeeHead:     fee.FeeHeadName,
			Term:        fee.TermName,
			DueDate:     fee.DueDate.Format("2006-01-02"),
			Payable:     formatMoney(statement.Currency, fee.FinalAmount),
			Paid:        formatMoney(statement.Currency, fee.PaidAmount),
			Outstanding: formatMoney(statement.Currency, fee.OutstandingAmount),
			Status:      string(fee.Status),
		})
	}

	doc, err := s.pdfProvider.GenerateStatement(c.Request.Context(), pdf.StatementData{
		SchoolName:       branch.Name,
		AsOf:             statement.AsOf.Format("2006-01-02"),
		StudentName:      statement.StudentName,
		AdmissionNo:      statement.AdmissionNo,
		ClassName:        statement.ClassName,
		Rows:             rows,
		TotalPayable:     formatMoney(statement.Currency, statement.TotalPayable),
		TotalPaid:        formatMoney(statement.Currency, statement.TotalPaid),
		TotalOutstanding: formatMoney(statement.Currency, statement.TotalOutstanding),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.servePDF(c, doc, fmt.Sprintf("statement-%s.pdf", statement.AdmissionNo))
}

func (s *Server) DownloadReceiptPDF(c *gin.Context) {
	receipt, err := s.paymentSvc.GetReceipt(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	student, err := s.studentSvc.GetByID(c.Request.Context(), studentdomain.GetStudentRequest{
		ID: receipt.Payment.StudentID.String(),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	branch, err := s.loadBranch(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	descriptions, err := s.structureDescriptions(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	currency := receipt.Payment.Currency
	lines := make([]pdf.ReceiptLine, 0, len(receipt.Allocations))
	for _, alloc := range receipt.Allocations {
		description := descriptions[alloc.FeeStructureID]
		if description == "" {
			description = alloc.FeeStructureID.String()
		}
		lines = append(lines, pdf.ReceiptLine{
			Description: description,
			Amount:      formatMoney(currency, alloc.Amount),
		})
	}

	var unallocated string
	if receipt.Payment.UnallocatedAmount > 0 {
		unallocated = formatMoney(currency, receipt.Payment.UnallocatedAmount)
	}

	doc, err := s.pdfProvider.GenerateReceipt(c.Request.Context(), pdf.ReceiptData{
		SchoolName:  branch.Name,
		SchoolPhone: branch.Phone,
		ReceiptNo:   receipt.Payment.ReceiptNo,
		DatePaid:    receipt.Payment.ReceivedAt.Format("2006-01-02"),
		Method:      receipt.Payment.Method,
		Reference:   receipt.Payment.Reference,
		StudentName: student.FullName(),
		AdmissionNo: student.AdmissionNo,
		ClassName:   student.ClassName,
		Lines:       lines,
		Total:       formatMoney(currency, receipt.Payment.Amount),
		Unallocated: unallocated,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.obsMetrics.IncReceiptGenerated()
	s.servePDF(c, doc, fmt.Sprintf("%s.pdf", receipt.Payment.ReceiptNo))
}

func (s *Server) servePDF(c *gin.Context, doc io.Reader, filename string) {
	data, err := io.ReadAll(doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

func (s *Server) loadBranch(ctx context.Context) (branchdomain.Branch, error) {
	branchID, ok := branchcontext.BranchIDFromContext(ctx)
	if !ok || branchID == 0 {
		return branchdomain.Branch{}, newValidationError("branch", "invalid_branch", "missing branch id")
	}

	var branch branchdomain.Branch
	if err := s.db.WithContext(ctx).First(&branch, "id = ?", branchID).Error; err != nil {
		return branchdomain.Branch{}, err
	}
	return branch, nil
}

// structureDescriptions maps fee structure ids to a "Head (Term)" label for
// receipt lines.
func (s *Server) structureDescriptions(ctx context.Context) (map[snowflake.ID]string, error) {
	structures, err := s.feeSvc.ListFeeStructures(ctx, feescheduledomain.ListFeeStructureRequest{})
	if err != nil {
		return nil, err
	}
	heads, err := s.feeSvc.ListFeeHeads(ctx)
	if err != nil {
		return nil, err
	}
	terms, err := s.feeSvc.ListFeeTerms(ctx)
	if err != nil {
		return nil, err
	}

	headNames := make(map[snowflake.ID]string, len(heads))
	for _, head := range heads {
		headNames[head.ID] = head.Name
	}
	termNames := make(map[snowflake.ID]string, len(terms))
	for _, term := range terms {
		termNames[term.ID] = term.Name
	}

	descriptions := make(map[snowflake.ID]string, len(structures))
	for _, structure := range structures {
		name := headNames[structure.FeeHeadID]
		if name == "" {
			continue
		}
		if term := termNames[structure.TermID]; term != "" {
			name = fmt.Sprintf("%s (%s)", name, term)
		}
		descriptions[structure.ID] = name
	}
	return descriptions, nil
}

// formatMoney renders a minor-unit amount with thousands separators,
// e.g. "UGX 150,000".
func formatMoney(currency string, amount int64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	digits := fmt.Sprintf("%d", amount)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}

	formatted := b.String()
	if negative {
		formatted = "-" + formatted
	}
	if currency == "" {
		return formatted
	}
	return currency + " " + formatted
}
