package employee

import "math"

const (
	SectionPersonal   = "PERSONAL"
	SectionEmployment = "EMPLOYMENT"
	SectionDocuments  = "DOCUMENTS"
)

// Completion evaluates the three profile sections and returns the percent
// complete alongside the sections that are fully filled in. A section counts
// only when every field in it is present. The percent is rounded to the
// nearest integer, so two of three sections reads 67.
func Completion(p *Profile) (int, []string) {
	var done []string
	if p.FullName != "" && p.DateOfBirth != nil && p.Address != "" && p.Phone != "" && p.Email != "" {
		done = append(done, SectionPersonal)
	}
	if p.DateOfJoining != nil && p.EmployeeNumber != "" && p.Department != "" && p.Position != "" {
		done = append(done, SectionEmployment)
	}
	if p.PAN != "" && p.Aadhaar != "" {
		done = append(done, SectionDocuments)
	}
	return int(math.Round(float64(len(done)) / 3 * 100)), done
}
