package employee

import (
	"testing"
	"time"
)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestCompletionEmptyProfile(t *testing.T) {
	pct, sections := Completion(&Profile{})
	if pct != 0 || len(sections) != 0 {
		t.Fatalf("empty profile: pct=%d sections=%v", pct, sections)
	}
}

func TestCompletionPartialSectionDoesNotCount(t *testing.T) {
	p := &Profile{FullName: "Asha Rao", Phone: "9999900000"} // no dob/address
	pct, sections := Completion(p)
	if pct != 0 || len(sections) != 0 {
		t.Fatalf("partial section counted: pct=%d sections=%v", pct, sections)
	}
}

func TestCompletionOneSection(t *testing.T) {
	p := &Profile{
		FullName:    "Asha Rao",
		DateOfBirth: datePtr(1992, time.March, 14),
		Address:     "12 MG Road",
		Phone:       "9999900000",
		Email:       "asha@example.com",
	}
	pct, sections := Completion(p)
	if pct != 33 {
		t.Fatalf("pct = %d, want 33", pct)
	}
	if len(sections) != 1 || sections[0] != SectionPersonal {
		t.Fatalf("sections = %v", sections)
	}
}

func TestCompletionPersonalNeedsEmail(t *testing.T) {
	p := &Profile{
		FullName:    "Asha Rao",
		DateOfBirth: datePtr(1992, time.March, 14),
		Address:     "12 MG Road",
		Phone:       "9999900000",
	}
	if pct, sections := Completion(p); pct != 0 || len(sections) != 0 {
		t.Fatalf("personal counted without email: pct=%d sections=%v", pct, sections)
	}
}

func TestCompletionEmploymentNeedsEmployeeNumber(t *testing.T) {
	p := &Profile{
		DateOfJoining: datePtr(2023, time.June, 1),
		Department:    "Engineering",
		Position:      "Backend Engineer",
	}
	if pct, sections := Completion(p); pct != 0 || len(sections) != 0 {
		t.Fatalf("employment counted without employee number: pct=%d sections=%v", pct, sections)
	}
}

func TestCompletionTwoSectionsRoundsUp(t *testing.T) {
	p := &Profile{
		FullName:       "Asha Rao",
		DateOfBirth:    datePtr(1992, time.March, 14),
		Address:        "12 MG Road",
		Phone:          "9999900000",
		Email:          "asha@example.com",
		EmployeeNumber: "EMP-000042",
		DateOfJoining:  datePtr(2023, time.June, 1),
		Department:     "Engineering",
		Position:       "Backend Engineer",
	}
	pct, sections := Completion(p)
	if pct != 67 {
		t.Fatalf("pct = %d, want 67", pct)
	}
	if len(sections) != 2 {
		t.Fatalf("sections = %v, want two", sections)
	}
}

func TestCompletionAllSections(t *testing.T) {
	p := &Profile{
		FullName:       "Asha Rao",
		DateOfBirth:    datePtr(1992, time.March, 14),
		Address:        "12 MG Road",
		Phone:          "9999900000",
		Email:          "asha@example.com",
		EmployeeNumber: "EMP-000042",
		DateOfJoining:  datePtr(2023, time.June, 1),
		Department:     "Engineering",
		Position:       "Backend Engineer",
		PAN:            "ABCDE1234F",
		Aadhaar:        "123412341234",
	}
	pct, sections := Completion(p)
	if pct != 100 {
		t.Fatalf("pct = %d, want 100", pct)
	}
	if len(sections) != 3 {
		t.Fatalf("sections = %v, want all three", sections)
	}
}
