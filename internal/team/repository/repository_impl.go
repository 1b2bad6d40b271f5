package repository

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/oldski/sportsfestDashboard-sub002/internal/team/domain"
	"github.com/oldski/sportsfestDashboard-sub002/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) LockNumbering(ctx context.Context, conn *gorm.DB, orgID, eventYearID snowflake.ID) error {
	return db.LockScope(conn.WithContext(ctx), fmt.Sprintf("company_teams:%d:%d", orgID, eventYearID))
}

func (r *repo) MaxTeamNumber(ctx context.Context, db *gorm.DB, orgID, eventYearID snowflake.ID) (int, error) {
	var max int
	if err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(team_number), 0)
		 FROM company_teams
		 WHERE org_id = ? AND event_year_id = ?`,
		orgID,
		eventYearID,
	).Scan(&max).Error; err != nil {
		return 0, err
	}
	return max, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, team *domain.CompanyTeam) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO company_teams (id, org_id, event_year_id, order_id, team_number, name, is_paid, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		team.ID,
		team.OrgID,
		team.EventYearID,
		team.OrderID,
		team.TeamNumber,
		team.Name,
		team.IsPaid,
		team.CreatedAt,
		team.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.CompanyTeam, error) {
	var team domain.CompanyTeam
	if err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, event_year_id, order_id, team_number, name, is_paid, created_at, updated_at
		 FROM company_teams
		 WHERE id = ?`,
		id,
	).Scan(&team).Error; err != nil {
		return nil, err
	}
	if team.ID == 0 {
		return nil, nil
	}
	return &team, nil
}

func (r *repo) ListWithMemberCounts(ctx context.Context, db *gorm.DB, orgID, eventYearID snowflake.ID) ([]domain.TeamSummary, error) {
	var rows []domain.TeamSummary
	if err := db.WithContext(ctx).Raw(
		`SELECT t.id, t.org_id, t.event_year_id, t.order_id, t.team_number, t.name, t.is_paid,
			t.created_at, t.updated_at, COUNT(e.id) AS member_count
		 FROM company_teams t
		 LEFT JOIN team_roster_entries e ON e.team_id = t.id AND e.org_id = t.org_id
		 WHERE t.org_id = ? AND t.event_year_id = ?
		 GROUP BY t.id, t.org_id, t.event_year_id, t.order_id, t.team_number, t.name, t.is_paid,
			t.created_at, t.updated_at
		 ORDER BY t.team_number ASC`,
		orgID,
		eventYearID,
	).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
