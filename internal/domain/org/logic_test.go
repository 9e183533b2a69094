package org

import "testing"

func TestPlanLeaveTypeSyncFreshOrg(t *testing.T) {
	plan := PlanLeaveTypeSync(nil, Quotas(LeavePolicy{Annual: 18, Sick: 6}))
	if len(plan.Create) != 2 {
		t.Fatalf("creates = %d, want 2", len(plan.Create))
	}
	if plan.Create[0].Category != CategoryAnnual || !plan.Create[0].CarryForward {
		t.Fatalf("unexpected first create: %+v", plan.Create[0])
	}
	if plan.Create[1].Category != CategorySick || plan.Create[1].CarryForward {
		t.Fatalf("unexpected second create: %+v", plan.Create[1])
	}
	if len(plan.Update) != 0 || len(plan.Delete) != 0 {
		t.Fatalf("updates = %d, deletes = %d, want 0, 0", len(plan.Update), len(plan.Delete))
	}
}

func TestPlanLeaveTypeSyncQuotaChange(t *testing.T) {
	existing := []LeaveType{
		{ID: "lt1", Category: CategoryAnnual, Name: "Annual Leave", MaxPerYear: 18, IsPaid: true, CarryForward: true},
		{ID: "lt2", Category: CategorySick, Name: "Sick Leave", MaxPerYear: 6, IsPaid: true},
	}
	desired := []Quota{
		{Category: CategoryAnnual, Name: "Annual Leave", Days: 21, IsPaid: true, CarryForward: true},
		{Category: CategorySick, Name: "Sick Leave", Days: 6, IsPaid: true},
	}
	plan := PlanLeaveTypeSync(existing, desired)
	if len(plan.Create) != 0 {
		t.Fatalf("creates = %d, want 0", len(plan.Create))
	}
	if len(plan.Update) != 1 {
		t.Fatalf("updates = %d, want 1", len(plan.Update))
	}
	if plan.Update[0].ID != "lt1" || plan.Update[0].MaxPerYear != 21 {
		t.Fatalf("unexpected update: %+v", plan.Update[0])
	}
}

func TestPlanLeaveTypeSyncZeroQuotaDeletes(t *testing.T) {
	existing := []LeaveType{
		{ID: "lt1", Category: CategoryAnnual, Name: "Annual Leave", MaxPerYear: 18, IsPaid: true, CarryForward: true},
		{ID: "lt2", Category: CategorySick, Name: "Sick Leave", MaxPerYear: 6, IsPaid: true},
	}
	plan := PlanLeaveTypeSync(existing, Quotas(LeavePolicy{Annual: 18}))
	if len(plan.Delete) != 1 || plan.Delete[0].ID != "lt2" {
		t.Fatalf("unexpected deletes: %+v", plan.Delete)
	}
	if len(plan.Create) != 0 || len(plan.Update) != 0 {
		t.Fatalf("creates = %d, updates = %d, want 0, 0", len(plan.Create), len(plan.Update))
	}
}

func TestPlanLeaveTypeSyncIdempotent(t *testing.T) {
	policy := LeavePolicy{Annual: 18, Sick: 6, Casual: 4}
	first := PlanLeaveTypeSync(nil, Quotas(policy))

	var existing []LeaveType
	for i, q := range first.Create {
		existing = append(existing, LeaveType{
			ID: string(rune('a' + i)), Category: q.Category, Name: q.Name,
			MaxPerYear: q.Days, IsPaid: q.IsPaid, CarryForward: q.CarryForward,
		})
	}
	again := PlanLeaveTypeSync(existing, Quotas(policy))
	if len(again.Create)+len(again.Update)+len(again.Delete) != 0 {
		t.Fatalf("re-applied policy is not a no-op: %+v", again)
	}
}

func TestPlanLeaveTypeSyncLeavesUnknownCategories(t *testing.T) {
	existing := []LeaveType{{ID: "ltX", Category: "SABBATICAL", MaxPerYear: 30}}
	plan := PlanLeaveTypeSync(existing, Quotas(LeavePolicy{}))
	if len(plan.Update) != 0 || len(plan.Delete) != 0 {
		t.Fatal("unmanaged category was touched")
	}
}

func TestInitialRemaining(t *testing.T) {
	if got := InitialRemaining(CategoryAnnual, 18); got != 0 {
		t.Fatalf("annual initial balance = %v, want 0", got)
	}
	if got := InitialRemaining(CategorySick, 6); got != 6 {
		t.Fatalf("sick initial balance = %v, want 6", got)
	}
}
