package attendance

// Day-status thresholds in worked minutes. Under 5 hours counts as absent,
// 5 to under 7 hours as a half day, 7 hours and up as present.
const (
	halfDayMinutes = 300
	presentMinutes = 420
)

// DeriveStatus maps a closed session's worked minutes onto a day status.
func DeriveStatus(workedMinutes float64) string {
	switch {
	case workedMinutes >= presentMinutes:
		return StatusPresent
	case workedMinutes >= halfDayMinutes:
		return StatusHalfDay
	default:
		return StatusAbsent
	}
}
