package domain

// Payslip is the computed pay for one staff member in one period.
type Payslip struct {
	BaseSalary int64
	Allowances int64
	Deductions int64
	NetPay     int64
}

// ComputePayslip sums recurring salary lines on top of the base salary.
// Net pay never goes below zero; deductions beyond gross are clipped.
func ComputePayslip(baseSalary int64, lines []SalaryLine) Payslip {
	slip := Payslip{BaseSalary: baseSalary}
	for _, line := range lines {
		switch line.Kind {
		case SalaryLineAllowance:
			slip.Allowances += line.Amount
		case SalaryLineDeduction:
			slip.Deductions += line.Amount
		}
	}
	gross := slip.BaseSalary + slip.Allowances
	net := gross - slip.Deductions
	if net < 0 {
		net = 0
	}
	slip.NetPay = net
	return slip
}
