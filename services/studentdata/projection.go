package studentdata

import (
	"fmt"
	"math"

	"cuims-backend/lib/scrapers/cuims"
)

const DefaultAttendanceGoal = 75

const (
	StatusSafe     = "safe"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

// CourseProjection is one course's attendance paired with how many
// further absences its goal tolerates, or how many classes it takes to
// get back above it.
type CourseProjection struct {
	Name       string  `json:"name"`
	Code       string  `json:"code"`
	Attended   int     `json:"attended"`
	Total      int     `json:"total"`
	Missed     int     `json:"missed"`
	Percentage float64 `json:"percentage"`
	Message    string  `json:"can_miss_message"`
	Status     string  `json:"status"`
}

func pluralClasses(n int) string {
	if n == 1 {
		return "class"
	}
	return "classes"
}

// ProjectAttendance computes, per course, the attendance percentage and
// a projection against the goal percentage. The searches are iterative
// on purpose: the boundary integers they produce are the contract, and
// closed forms tend to drift off by one around exact ratios.
func ProjectAttendance(records []cuims.CourseAttendance, goal float64) []CourseProjection {
	projections := make([]CourseProjection, 0, len(records))

	for _, record := range records {
		attended := record.Attended
		total := record.Delivered

		percentage := 0.0
		if total > 0 {
			percentage = math.Round(float64(attended)/float64(total)*10000) / 100
		}

		p := CourseProjection{
			Name:       record.Title,
			Code:       record.Code,
			Attended:   attended,
			Total:      total,
			Missed:     total - attended,
			Percentage: percentage,
		}

		switch {
		case total <= 0:
			p.Status = StatusCritical
			p.Message = "No classes delivered yet"
		case percentage > goal:
			// keep missing classes until the ratio drops below goal,
			// the last x that still held is the safe-miss count
			x := 0
			for float64(attended)/float64(total+x)*100 >= goal {
				x++
			}
			canMiss := x - 1
			p.Status = StatusSafe
			p.Message = fmt.Sprintf("You can miss %d more %s", canMiss, pluralClasses(canMiss))
		case percentage == goal:
			p.Status = StatusWarning
			p.Message = "You're exactly at the limit!"
		default:
			x := 1
			for float64(attended+x)/float64(total+x)*100 < goal {
				x++
			}
			p.Status = StatusCritical
			p.Message = fmt.Sprintf("You have to attend %d more %s", x, pluralClasses(x))
		}

		projections = append(projections, p)
	}

	return projections
}
