package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindPlayer(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Player, error)
	// FindEntryByPlayer locks the player's entry when the dialect supports it.
	FindEntryByPlayer(ctx context.Context, db *gorm.DB, orgID, playerID snowflake.ID) (*TeamRosterEntry, error)
	FindEntry(ctx context.Context, db *gorm.DB, teamID, playerID snowflake.ID) (*TeamRosterEntry, error)
	// InsertEntry returns false when the player already holds an entry.
	InsertEntry(ctx context.Context, db *gorm.DB, entry *TeamRosterEntry) (bool, error)
	// InsertEntries skips players that already hold an entry and returns the number inserted.
	InsertEntries(ctx context.Context, db *gorm.DB, entries []TeamRosterEntry) (int64, error)
	DeleteEntry(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	DeleteEventEntriesForTeam(ctx context.Context, db *gorm.DB, teamID, playerID snowflake.ID) (int64, error)
	SetCaptain(ctx context.Context, db *gorm.DB, id snowflake.ID, isCaptain bool) error
	// ClearCaptains drops the flag on every other entry of the team.
	ClearCaptains(ctx context.Context, db *gorm.DB, teamID, exceptID snowflake.ID) error
	ListTeamRoster(ctx context.Context, db *gorm.DB, teamID snowflake.ID) ([]RosterMember, error)
	// ListAvailablePlayers returns non-inactive players without an entry, ordered by name.
	ListAvailablePlayers(ctx context.Context, db *gorm.DB, orgID, eventYearID snowflake.ID) ([]Player, error)
}
