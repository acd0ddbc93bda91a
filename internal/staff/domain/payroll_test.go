package domain_test

import (
	"testing"

	"github.com/shulebooks/shulebooks/internal/staff/domain"
	"github.com/stretchr/testify/assert"
)

func TestComputePayslip(t *testing.T) {
	tests := []struct {
		name  string
		base  int64
		lines []domain.SalaryLine
		want  domain.Payslip
	}{
		{
			name: "base only",
			base: 800000,
			want: domain.Payslip{BaseSalary: 800000, NetPay: 800000},
		},
		{
			name: "allowances and deductions",
			base: 800000,
			lines: []domain.SalaryLine{
				{Kind: domain.SalaryLineAllowance, Name: "housing", Amount: 150000},
				{Kind: domain.SalaryLineAllowance, Name: "transport", Amount: 50000},
				{Kind: domain.SalaryLineDeduction, Name: "paye", Amount: 120000},
				{Kind: domain.SalaryLineDeduction, Name: "nssf", Amount: 40000},
			},
			want: domain.Payslip{
				BaseSalary: 800000,
				Allowances: 200000,
				Deductions: 160000,
				NetPay:     840000,
			},
		},
		{
			name: "deductions clipped at zero",
			base: 100000,
			lines: []domain.SalaryLine{
				{Kind: domain.SalaryLineDeduction, Name: "advance recovery", Amount: 250000},
			},
			want: domain.Payslip{
				BaseSalary: 100000,
				Deductions: 250000,
				NetPay:     0,
			},
		},
		{
			name: "unknown kinds ignored",
			base: 500000,
			lines: []domain.SalaryLine{
				{Kind: "bonus", Name: "typo", Amount: 99999},
			},
			want: domain.Payslip{BaseSalary: 500000, NetPay: 500000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.ComputePayslip(tt.base, tt.lines))
		})
	}
}
