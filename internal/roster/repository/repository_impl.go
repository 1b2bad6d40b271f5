package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/oldski/sportsfestDashboard-sub002/internal/roster/domain"
	"github.com/oldski/sportsfestDashboard-sub002/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const entryColumns = `id, org_id, team_id, player_id, is_captain, created_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindPlayer(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Player, error) {
	var player domain.Player
	if err := conn.WithContext(ctx).Raw(
		`SELECT id, org_id, event_year_id, first_name, last_name, email,
			COALESCE(gender, '') AS gender, status, created_at
		 FROM players
		 WHERE id = ?`,
		id,
	).Scan(&player).Error; err != nil {
		return nil, err
	}
	if player.ID == 0 {
		return nil, nil
	}
	return &player, nil
}

func (r *repo) FindEntryByPlayer(ctx context.Context, conn *gorm.DB, orgID, playerID snowflake.ID) (*domain.TeamRosterEntry, error) {
	var entry domain.TeamRosterEntry
	if err := conn.WithContext(ctx).Raw(
		`SELECT `+entryColumns+`
		 FROM team_roster_entries
		 WHERE org_id = ? AND player_id = ?`+db.LockSuffix(conn),
		orgID,
		playerID,
	).Scan(&entry).Error; err != nil {
		return nil, err
	}
	if entry.ID == 0 {
		return nil, nil
	}
	return &entry, nil
}

func (r *repo) FindEntry(ctx context.Context, conn *gorm.DB, teamID, playerID snowflake.ID) (*domain.TeamRosterEntry, error) {
	var entry domain.TeamRosterEntry
	if err := conn.WithContext(ctx).Raw(
		`SELECT `+entryColumns+`
		 FROM team_roster_entries
		 WHERE team_id = ? AND player_id = ?`+db.LockSuffix(conn),
		teamID,
		playerID,
	).Scan(&entry).Error; err != nil {
		return nil, err
	}
	if entry.ID == 0 {
		return nil, nil
	}
	return &entry, nil
}

func (r *repo) InsertEntry(ctx context.Context, conn *gorm.DB, entry *domain.TeamRosterEntry) (bool, error) {
	res := conn.WithContext(ctx).Exec(
		`INSERT INTO team_roster_entries (`+entryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (org_id, player_id) DO NOTHING`,
		entry.ID,
		entry.OrgID,
		entry.TeamID,
		entry.PlayerID,
		entry.IsCaptain,
		entry.CreatedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) InsertEntries(ctx context.Context, conn *gorm.DB, entries []domain.TeamRosterEntry) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	res := conn.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "org_id"}, {Name: "player_id"}},
			DoNothing: true,
		}).
		Create(&entries)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repo) DeleteEntry(ctx context.Context, conn *gorm.DB, id snowflake.ID) error {
	return conn.WithContext(ctx).Exec(
		`DELETE FROM team_roster_entries WHERE id = ?`,
		id,
	).Error
}

func (r *repo) DeleteEventEntriesForTeam(ctx context.Context, conn *gorm.DB, teamID, playerID snowflake.ID) (int64, error) {
	res := conn.WithContext(ctx).Exec(
		`DELETE FROM event_roster_entries WHERE team_id = ? AND player_id = ?`,
		teamID,
		playerID,
	)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repo) SetCaptain(ctx context.Context, conn *gorm.DB, id snowflake.ID, isCaptain bool) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE team_roster_entries SET is_captain = ? WHERE id = ?`,
		isCaptain,
		id,
	).Error
}

func (r *repo) ClearCaptains(ctx context.Context, conn *gorm.DB, teamID, exceptID snowflake.ID) error {
	return conn.WithContext(ctx).Exec(
		`UPDATE team_roster_entries SET is_captain = ? WHERE team_id = ? AND id <> ? AND is_captain = ?`,
		false,
		teamID,
		exceptID,
		true,
	).Error
}

func (r *repo) ListTeamRoster(ctx context.Context, conn *gorm.DB, teamID snowflake.ID) ([]domain.RosterMember, error) {
	var rows []domain.RosterMember
	if err := conn.WithContext(ctx).Raw(
		`SELECT e.id, e.org_id, e.team_id, e.player_id, e.is_captain, e.created_at,
			p.first_name, p.last_name, COALESCE(p.gender, '') AS gender, p.status
		 FROM team_roster_entries e
		 JOIN players p ON p.id = e.player_id
		 WHERE e.team_id = ?
		 ORDER BY e.is_captain DESC, p.last_name ASC, p.first_name ASC, e.id ASC`,
		teamID,
	).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) ListAvailablePlayers(ctx context.Context, conn *gorm.DB, orgID, eventYearID snowflake.ID) ([]domain.Player, error) {
	var players []domain.Player
	if err := conn.WithContext(ctx).Raw(
		`SELECT p.id, p.org_id, p.event_year_id, p.first_name, p.last_name, p.email,
			COALESCE(p.gender, '') AS gender, p.status, p.created_at
		 FROM players p
		 LEFT JOIN team_roster_entries e ON e.player_id = p.id AND e.org_id = p.org_id
		 WHERE p.org_id = ? AND p.event_year_id = ?
		   AND p.status <> ?
		   AND e.id IS NULL
		 ORDER BY p.first_name ASC, p.last_name ASC, p.id ASC`,
		orgID,
		eventYearID,
		domain.PlayerStatusInactive,
	).Scan(&players).Error; err != nil {
		return nil, err
	}
	return players, nil
}
