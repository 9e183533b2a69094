package org

// Quota is one leave category's allowance as configured in the policy.
type Quota struct {
	Category     string
	Name         string
	Days         float64
	IsPaid       bool
	CarryForward bool
}

// Quotas expands a leave policy into the per-category quota list. Carry
// forward applies to the annual category only.
func Quotas(p LeavePolicy) []Quota {
	return []Quota{
		{Category: CategoryAnnual, Name: "Annual Leave", Days: p.Annual, IsPaid: true, CarryForward: true},
		{Category: CategorySick, Name: "Sick Leave", Days: p.Sick, IsPaid: true},
		{Category: CategoryCasual, Name: "Casual Leave", Days: p.Casual, IsPaid: true},
		{Category: CategoryMaternity, Name: "Maternity Leave", Days: p.Maternity, IsPaid: true},
		{Category: CategoryPaternity, Name: "Paternity Leave", Days: p.Paternity, IsPaid: true},
		{Category: CategoryUnpaid, Name: "Unpaid Leave", Days: p.Unpaid, IsPaid: false},
	}
}

// SyncPlan reconciles the leave type catalog against the policy quotas.
// A zero-day quota deletes the type (its balance rows are deliberately left
// orphaned); a nonzero quota creates or updates it. Types in categories the
// policy does not manage are untouched. Applying the same policy twice
// yields an empty plan.
type SyncPlan struct {
	Create []Quota
	Update []LeaveType
	Delete []LeaveType
}

func PlanLeaveTypeSync(existing []LeaveType, desired []Quota) SyncPlan {
	byCategory := make(map[string]LeaveType, len(existing))
	for _, lt := range existing {
		byCategory[lt.Category] = lt
	}

	var plan SyncPlan
	for _, q := range desired {
		lt, ok := byCategory[q.Category]
		if q.Days == 0 {
			if ok {
				plan.Delete = append(plan.Delete, lt)
			}
			continue
		}
		if !ok {
			plan.Create = append(plan.Create, q)
			continue
		}
		if lt.MaxPerYear != q.Days || lt.Name != q.Name || lt.IsPaid != q.IsPaid || lt.CarryForward != q.CarryForward {
			lt.Name = q.Name
			lt.MaxPerYear = q.Days
			lt.IsPaid = q.IsPaid
			lt.CarryForward = q.CarryForward
			plan.Update = append(plan.Update, lt)
		}
	}
	return plan
}

// InitialRemaining is the starting balance when a row is first seeded for a
// type. Annual leave accrues rather than being granted up front, so it
// starts at zero; every other category starts with the full cap.
func InitialRemaining(category string, cap float64) float64 {
	if category == CategoryAnnual {
		return 0
	}
	return cap
}
