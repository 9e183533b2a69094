package attendance

import "time"

const (
	StatusPresent = "PRESENT"
	StatusHalfDay = "HALF_DAY"
	StatusAbsent  = "ABSENT"
	StatusOnLeave = "ON_LEAVE"
)

type Record struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organizationId"`
	UserID         string     `json:"userId"`
	CheckIn        time.Time  `json:"checkIn"`
	CheckOut       *time.Time `json:"checkOut,omitempty"`
	Status         string     `json:"status"`
	IsManualEdit   bool       `json:"isManualEdit"`
	IPAddress      string     `json:"ipAddress"`
	DeviceInfo     string     `json:"deviceInfo"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// WorkedMinutes is the session length used for status derivation. Open
// sessions report zero.
func (r *Record) WorkedMinutes() float64 {
	if r.CheckOut == nil {
		return 0
	}
	return r.CheckOut.Sub(r.CheckIn).Minutes()
}

type Summary struct {
	PresentDays  int     `json:"presentDays"`
	HalfDays     int     `json:"halfDays"`
	AbsentDays   int     `json:"absentDays"`
	TotalMinutes float64 `json:"totalMinutes"`
}
