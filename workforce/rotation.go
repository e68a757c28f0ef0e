package workforce

import "github.com/pvzops/workforce-engine/engine"

// =============================================================================
// A/B ROTATION
// =============================================================================
//
// Positions 0 and 1 of every four-day cycle belong to team A, positions 2 and
// 3 to team B. The cycle always starts at position 0 on the first day of the
// window, so the same window always yields the same plan.

// RotationLength is the number of days in one A/B cycle.
const RotationLength = 4

type Team string

const (
	TeamA Team = "A"
	TeamB Team = "B"
)

// TeamOnDuty returns the team working on day for a rotation starting at start.
func TeamOnDuty(start, day engine.Date) Team {
	if engine.DaysBetween(start, day)%RotationLength < 2 {
		return TeamA
	}
	return TeamB
}

// Assignment is one (employee, day) pair produced by a rotation plan.
type Assignment struct {
	EmployeeID engine.EmployeeID
	Date       engine.Date
	Team       Team
}

// PlanRotation expands the rotation over window. Duplicate members within a
// team are planned once. An empty window yields no assignments.
func PlanRotation(teamA, teamB []engine.EmployeeID, window engine.Period) []Assignment {
	a, b := uniqueMembers(teamA), uniqueMembers(teamB)

	var plan []Assignment
	for _, day := range window.Days() {
		team := TeamOnDuty(window.Start, day)
		members := a
		if team == TeamB {
			members = b
		}
		for _, id := range members {
			plan = append(plan, Assignment{EmployeeID: id, Date: day, Team: team})
		}
	}
	return plan
}

func uniqueMembers(ids []engine.EmployeeID) []engine.EmployeeID {
	seen := make(map[engine.EmployeeID]bool, len(ids))
	out := make([]engine.EmployeeID, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
