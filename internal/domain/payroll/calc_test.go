package payroll

import "testing"

func TestBreakdownSumsToGross(t *testing.T) {
	for _, gross := range []float64{0, 1, 999, 30000, 83333.33, 999999.99} {
		basic, hra, other := Breakdown(gross)
		if sum := Round2(basic + hra + other); sum != Round2(gross) {
			t.Errorf("Breakdown(%v): %v + %v + %v = %v, want %v",
				gross, basic, hra, other, sum, gross)
		}
	}
}

func TestBreakdownRatios(t *testing.T) {
	basic, hra, other := Breakdown(30000)
	if basic != 12000 {
		t.Errorf("basic = %v, want 12000", basic)
	}
	if hra != 4800 {
		t.Errorf("hra = %v, want 4800", hra)
	}
	if other != 13200 {
		t.Errorf("other = %v, want 13200", other)
	}
}

func TestLossOfPayAmount(t *testing.T) {
	cases := []struct {
		gross, lop, want float64
	}{
		{30000, 0, 0},
		{30000, 1, 1000},
		{30000, 2.5, 2500},
		{50000, 3, 5000},
	}
	for _, c := range cases {
		if got := LossOfPayAmount(c.gross, c.lop); got != c.want {
			t.Errorf("LossOfPayAmount(%v, %v) = %v, want %v", c.gross, c.lop, got, c.want)
		}
	}
}

func TestTotals(t *testing.T) {
	p := &Payroll{
		GrossSalary:     30000,
		BasicSalary:     12000,
		HRA:             4800,
		OtherAllowances: 13200,
		Reimbursement:   500,
		Incentives:      1000,
		TDSDeduction:    2000,
		OtherDeductions: 300,
		LOPDays:         1,
	}
	earnings, deductions, net := Totals(p)
	if earnings != 31500 {
		t.Errorf("earnings = %v, want 31500", earnings)
	}
	// tds + other only; lop reduces net, not deductions
	if deductions != 2300 {
		t.Errorf("deductions = %v, want 2300", deductions)
	}
	// 31500 - 2300 - 1000 lop
	if net != 28200 {
		t.Errorf("net = %v, want 28200", net)
	}
}

func TestTotalsLOPReducesNetOnly(t *testing.T) {
	p := &Payroll{
		GrossSalary:     30000,
		BasicSalary:     12000,
		HRA:             4800,
		OtherAllowances: 13200,
		TDSDeduction:    2000,
		OtherDeductions: 300,
	}
	_, noLOPDeductions, noLOPNet := Totals(p)
	p.LOPDays = 2
	_, deductions, net := Totals(p)
	if deductions != noLOPDeductions {
		t.Fatalf("deductions changed with lop: %v, want %v", deductions, noLOPDeductions)
	}
	if want := Round2(noLOPNet - 2000); net != want {
		t.Fatalf("net = %v, want %v", net, want)
	}
}

func TestTotalsZeroGross(t *testing.T) {
	earnings, deductions, net := Totals(&Payroll{})
	if earnings != 0 || deductions != 0 || net != 0 {
		t.Fatalf("zero payroll: earnings=%v deductions=%v net=%v", earnings, deductions, net)
	}
}

func TestApplyAdjustmentsRecomputesTotals(t *testing.T) {
	p := &Payroll{
		GrossSalary:     30000,
		BasicSalary:     12000,
		HRA:             4800,
		OtherAllowances: 13200,
		Reimbursement:   500,
		TDSDeduction:    2000,
	}
	p.TotalEarnings, p.TotalDeductions, p.NetSalary = Totals(p)

	incentives, lop := 1500.0, 1.0
	ApplyAdjustments(p, UpdateInput{Incentives: &incentives, LOPDays: &lop})

	if p.Reimbursement != 500 {
		t.Fatalf("nil field overwrote reimbursement: %v", p.Reimbursement)
	}
	if p.TotalEarnings != 32000 {
		t.Fatalf("earnings = %v, want 32000", p.TotalEarnings)
	}
	if p.TotalDeductions != 2000 {
		t.Fatalf("deductions = %v, want 2000", p.TotalDeductions)
	}
	// 32000 - 2000 - 1000 lop
	if p.NetSalary != 29000 {
		t.Fatalf("net = %v, want 29000", p.NetSalary)
	}
}

func TestRound2(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{1.006, 1.01},
		{1.004, 1.0},
		{-1.006, -1.01},
		{2.5, 2.5},
		{0, 0},
	}
	for _, c := range cases {
		if got := Round2(c.in); got != c.want {
			t.Errorf("Round2(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
