package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/oldski/sportsfestDashboard-sub002/internal/orgcontext"
	"gorm.io/gorm"
)

// StaleEntry is an event roster row whose team is no longer the player's team.
type StaleEntry struct {
	EventRosterEntryID snowflake.ID  `json:"event_roster_entry_id"`
	PlayerID           snowflake.ID  `json:"player_id"`
	FirstName          string        `json:"-"`
	LastName           string        `json:"-"`
	EventType          string        `json:"event_type"`
	OldTeamID          snowflake.ID  `json:"old_team_id"`
	OldTeamName        *string       `json:"old_team_name"`
	OldTeamNumber      *int          `json:"old_team_number"`
	CurrentTeamID      *snowflake.ID `json:"current_team_id"`
	CurrentTeamName    *string       `json:"current_team_name"`
	IsStarter          bool          `json:"is_starter"`
	SquadLeader        bool          `json:"squad_leader"`
}

// Warning is a stale entry labelled for display.
type Warning struct {
	StaleEntry
	EventName string `json:"event_name"`
}

type PlayerWarnings struct {
	PlayerID        snowflake.ID  `json:"player_id"`
	PlayerName      string        `json:"player_name"`
	CurrentTeamID   *snowflake.ID `json:"current_team_id"`
	CurrentTeamName *string       `json:"current_team_name"`
	Warnings        []Warning     `json:"warnings"`
}

type ResolveResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Resolved int    `json:"resolved"`
}

type Repository interface {
	// FindPlayerOrg returns 0 when the player does not exist.
	FindPlayerOrg(ctx context.Context, db *gorm.DB, playerID snowflake.ID) (snowflake.ID, error)
	// ListStale lists stale rows for the organization, or for one player when playerID is set.
	ListStale(ctx context.Context, db *gorm.DB, orgID snowflake.ID, playerID *snowflake.ID) ([]StaleEntry, error)
	DeleteStale(ctx context.Context, db *gorm.DB, orgID, playerID snowflake.ID) (int64, error)
}

type Service interface {
	ListForPlayer(ctx context.Context, scope orgcontext.Scope, playerID snowflake.ID) ([]Warning, error)
	ListForOrganization(ctx context.Context, scope orgcontext.Scope) ([]PlayerWarnings, error)
	ResolveAllForPlayer(ctx context.Context, scope orgcontext.Scope, playerID snowflake.ID) (*ResolveResult, error)
}

var ErrPlayerNotFound = errors.New("player_not_found")
