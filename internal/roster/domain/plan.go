package domain

import (
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
)

type PlanTeam struct {
	ID          snowflake.ID
	TeamNumber  int
	MemberCount int
}

type Assignment struct {
	TeamID    snowflake.ID
	PlayerID  snowflake.ID
	IsCaptain bool
}

type Plan struct {
	Assignments  []Assignment
	TeamsTouched int
}

// PlanRosters spreads players over teams so each gender is balanced as
// evenly as integer division allows. Teams are walked in number order and
// the lowest-numbered teams take the remainder. On a team with no members
// the first player placed becomes captain, males being placed first.
// Players whose gender is neither male nor female are left out.
func PlanRosters(teams []PlanTeam, players []Player) Plan {
	if len(teams) == 0 || len(players) == 0 {
		return Plan{}
	}

	ordered := append([]PlanTeam(nil), teams...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].TeamNumber < ordered[j].TeamNumber
	})

	var males, females []Player
	for _, p := range players {
		switch strings.ToLower(strings.TrimSpace(p.Gender)) {
		case GenderMale:
			males = append(males, p)
		case GenderFemale:
			females = append(females, p)
		}
	}
	sortByName(males)
	sortByName(females)

	maleShare := shares(len(males), len(ordered))
	femaleShare := shares(len(females), len(ordered))

	var (
		plan       Plan
		nextMale   int
		nextFemale int
	)
	for i, team := range ordered {
		captainOpen := team.MemberCount == 0
		placed := 0

		assign := func(p Player) {
			plan.Assignments = append(plan.Assignments, Assignment{
				TeamID:    team.ID,
				PlayerID:  p.ID,
				IsCaptain: captainOpen && placed == 0,
			})
			placed++
		}
		for n := 0; n < maleShare[i]; n++ {
			assign(males[nextMale])
			nextMale++
		}
		for n := 0; n < femaleShare[i]; n++ {
			assign(females[nextFemale])
			nextFemale++
		}
		if placed > 0 {
			plan.TeamsTouched++
		}
	}
	return plan
}

// shares splits total over n slots, the first total%n slots taking one extra.
func shares(total, n int) []int {
	out := make([]int, n)
	perTeam, extra := total/n, total%n
	for i := range out {
		out[i] = perTeam
		if i < extra {
			out[i]++
		}
	}
	return out
}

func sortByName(players []Player) {
	sort.SliceStable(players, func(i, j int) bool {
		a, b := players[i], players[j]
		if !strings.EqualFold(a.FirstName, b.FirstName) {
			return strings.ToLower(a.FirstName) < strings.ToLower(b.FirstName)
		}
		if !strings.EqualFold(a.LastName, b.LastName) {
			return strings.ToLower(a.LastName) < strings.ToLower(b.LastName)
		}
		return a.ID < b.ID
	})
}
