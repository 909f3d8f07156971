// Package courses manages the department/course catalogue and its access
// rules: professors own the courses they teach, students see the courses of
// their department.
package courses

import (
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/atheneum-portal/atheneum-portal/internal/access"
)

// Department identifies an engineering department.
type Department string

// The fixed department set of the faculty.
const (
	DeptElectrical Department = "electrical"
	DeptChemical   Department = "chemical"
	DeptCivil      Department = "civil"
	DeptMechanical Department = "mechanical"
	DeptMedical    Department = "medical"
)

// Departments returns all departments in display order.
func Departments() []Department {
	return []Department{DeptElectrical, DeptChemical, DeptCivil, DeptMechanical, DeptMedical}
}

// ValidDepartment reports whether s names a known department.
func ValidDepartment(s string) bool {
	switch Department(s) {
	case DeptElectrical, DeptChemical, DeptCivil, DeptMechanical, DeptMedical:
		return true
	}
	return false
}

var titleCaser = cases.Title(language.English)

// DisplayName returns the human-readable department name.
func (d Department) DisplayName() string {
	return titleCaser.String(string(d)) + " Engineering"
}

// Course is a teachable unit inside a department.
type Course struct {
	ID           int64
	Code         string
	Name         string
	Description  string
	Department   Department
	ProfessorID  int64
	Semester     int
	IsActive     bool
	ForumEnabled bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Resource converts the course into its access-control representation.
func (c Course) Resource() access.Course {
	return access.Course{
		ID:          c.ID,
		Department:  string(c.Department),
		ProfessorID: c.ProfessorID,
		IsActive:    c.IsActive,
	}
}
