package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/oldski/sportsfestDashboard-sub002/internal/transferwarning/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindPlayerOrg(ctx context.Context, db *gorm.DB, playerID snowflake.ID) (snowflake.ID, error) {
	var orgID snowflake.ID
	if err := db.WithContext(ctx).Raw(
		`SELECT org_id FROM players WHERE id = ?`,
		playerID,
	).Scan(&orgID).Error; err != nil {
		return 0, err
	}
	return orgID, nil
}

// A player without a roster entry has no current team, so every event row
// of theirs is stale.
func (r *repo) ListStale(ctx context.Context, db *gorm.DB, orgID snowflake.ID, playerID *snowflake.ID) ([]domain.StaleEntry, error) {
	query := `SELECT e.id AS event_roster_entry_id, e.player_id, p.first_name, p.last_name,
			e.event_type, e.team_id AS old_team_id, ot.name AS old_team_name,
			ot.team_number AS old_team_number, cur.team_id AS current_team_id,
			ct.name AS current_team_name, e.is_starter, e.squad_leader
		 FROM event_roster_entries e
		 JOIN players p ON p.id = e.player_id
		 LEFT JOIN company_teams ot ON ot.id = e.team_id
		 LEFT JOIN team_roster_entries cur ON cur.player_id = e.player_id AND cur.org_id = e.org_id
		 LEFT JOIN company_teams ct ON ct.id = cur.team_id
		 WHERE e.org_id = ?
		   AND (cur.team_id IS NULL OR cur.team_id <> e.team_id)`
	args := []any{orgID}
	if playerID != nil {
		query += ` AND e.player_id = ?`
		args = append(args, *playerID)
	}
	query += ` ORDER BY p.last_name ASC, p.first_name ASC, e.player_id ASC, e.event_type ASC, e.id ASC`

	var rows []domain.StaleEntry
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) DeleteStale(ctx context.Context, db *gorm.DB, orgID, playerID snowflake.ID) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`DELETE FROM event_roster_entries
		 WHERE org_id = ? AND player_id = ?
		   AND team_id NOT IN (
			SELECT team_id FROM team_roster_entries WHERE org_id = ? AND player_id = ?
		   )`,
		orgID,
		playerID,
		orgID,
		playerID,
	)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
