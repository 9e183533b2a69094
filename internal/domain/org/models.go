package org

import "time"

const (
	CategoryAnnual    = "ANNUAL"
	CategorySick      = "SICK"
	CategoryCasual    = "CASUAL"
	CategoryMaternity = "MATERNITY"
	CategoryPaternity = "PATERNITY"
	CategoryUnpaid    = "UNPAID"
)

type Organization struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Timezone    string    `json:"timezone"`
	LogoURL     string    `json:"logoUrl"`
	WorkingStart string   `json:"workingStart"`
	WorkingEnd   string   `json:"workingEnd"`
	WeekOffDays  []string `json:"weekOffDays"`

	AttendancePolicy           AttendancePolicy  `json:"attendancePolicy"`
	AttendancePolicyConfigured bool              `json:"attendancePolicyConfigured"`
	LeavePolicy                LeavePolicy       `json:"leavePolicy"`
	LeavePolicyConfigured      bool              `json:"leavePolicyConfigured"`
	NotificationPrefs          map[string]bool   `json:"notificationPrefs"`

	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type AttendancePolicy struct {
	MinHoursPerDay    float64 `json:"minHoursPerDay"`
	LateThresholdMin  int     `json:"lateThresholdMinutes"`
	EarlyThresholdMin int     `json:"earlyThresholdMinutes"`
	AutoCheckout      bool    `json:"autoCheckout"`
}

type LeavePolicy struct {
	Annual             float64 `json:"annual"`
	Sick               float64 `json:"sick"`
	Casual             float64 `json:"casual"`
	Maternity          float64 `json:"maternity"`
	Paternity          float64 `json:"paternity"`
	Unpaid             float64 `json:"unpaid"`
	CarryForwardLimit  float64 `json:"carryForwardLimit"`
	NoticeDays         int     `json:"noticeDays"`
	MaxConsecutiveDays int     `json:"maxConsecutiveDays"`
}

type LeaveType struct {
	ID               string  `json:"id"`
	OrganizationID   string  `json:"organizationId"`
	Name             string  `json:"name"`
	Category         string  `json:"category"`
	IsPaid           bool    `json:"isPaid"`
	RequiresApproval bool    `json:"requiresApproval"`
	AutoApprove      bool    `json:"autoApprove"`
	MaxPerYear       float64 `json:"maxPerYear"`
	CarryForward     bool    `json:"carryForward"`
}
