package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

type CompanyTeam struct {
	ID          snowflake.ID  `json:"id" gorm:"primaryKey"`
	OrgID       snowflake.ID  `json:"org_id" gorm:"column:org_id;not null;uniqueIndex:ux_company_teams_number,priority:1"`
	EventYearID snowflake.ID  `json:"event_year_id" gorm:"not null;uniqueIndex:ux_company_teams_number,priority:2"`
	OrderID     *snowflake.ID `json:"order_id,omitempty"`
	TeamNumber  int           `json:"team_number" gorm:"not null;uniqueIndex:ux_company_teams_number,priority:3"`
	Name        string        `json:"name" gorm:"type:text;not null"`
	IsPaid      bool          `json:"is_paid" gorm:"not null"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (CompanyTeam) TableName() string { return "company_teams" }

// TeamSummary is a team with the number of players on its roster.
type TeamSummary struct {
	CompanyTeam
	MemberCount int `json:"member_count"`
}

// DisplayName falls back to "Team {n}" when no name was given.
func DisplayName(name string, number int) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	return fmt.Sprintf("Team %d", number)
}
