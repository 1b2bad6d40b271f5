package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	PlayerStatusActive   = "active"
	PlayerStatusInactive = "inactive"

	GenderMale   = "male"
	GenderFemale = "female"
)

type Player struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	OrgID       snowflake.ID `json:"org_id"`
	EventYearID snowflake.ID `json:"event_year_id"`
	FirstName   string       `json:"first_name"`
	LastName    string       `json:"last_name"`
	Email       *string      `json:"email,omitempty"`
	Gender      string       `json:"gender"`
	Status      string       `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
}

func (Player) TableName() string { return "players" }

func (p Player) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func (p Player) Inactive() bool {
	return strings.EqualFold(strings.TrimSpace(p.Status), PlayerStatusInactive)
}

// TeamRosterEntry places a player on a team. A player has at most one per organization.
type TeamRosterEntry struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	OrgID     snowflake.ID `json:"org_id" gorm:"column:org_id;not null;uniqueIndex:ux_team_roster_player,priority:1"`
	TeamID    snowflake.ID `json:"team_id" gorm:"not null"`
	PlayerID  snowflake.ID `json:"player_id" gorm:"not null;uniqueIndex:ux_team_roster_player,priority:2"`
	IsCaptain bool         `json:"is_captain" gorm:"not null"`
	CreatedAt time.Time    `json:"created_at"`
}

func (TeamRosterEntry) TableName() string { return "team_roster_entries" }

// RosterMember is a roster entry joined with the player's details.
type RosterMember struct {
	TeamRosterEntry
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Gender    string `json:"gender"`
	Status    string `json:"status"`
}

type AddResult struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Entry   *TeamRosterEntry `json:"entry,omitempty"`
}

type RemoveResult struct {
	Success                   bool   `json:"success"`
	Message                   string `json:"message"`
	EventRosterEntriesRemoved int    `json:"event_roster_entries_removed"`
}

type TransferResult struct {
	Success          bool             `json:"success"`
	Message          string           `json:"message"`
	FromTeamID       snowflake.ID     `json:"from_team_id,omitempty"`
	Entry            *TeamRosterEntry `json:"entry,omitempty"`
	WarningsResolved int              `json:"warnings_resolved"`
}

type CaptainResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	IsCaptain bool   `json:"is_captain"`
}

type AutoGenerateResult struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	PlayersAssigned int    `json:"players_assigned"`
	TeamsTouched    int    `json:"teams_touched"`
}
