package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// LockNumbering serializes team numbering for one scope until db's
	// transaction ends.
	LockNumbering(ctx context.Context, db *gorm.DB, orgID, eventYearID snowflake.ID) error
	// MaxTeamNumber returns 0 when the scope has no teams yet.
	MaxTeamNumber(ctx context.Context, db *gorm.DB, orgID, eventYearID snowflake.ID) (int, error)
	Insert(ctx context.Context, db *gorm.DB, team *CompanyTeam) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*CompanyTeam, error)
	ListWithMemberCounts(ctx context.Context, db *gorm.DB, orgID, eventYearID snowflake.ID) ([]TeamSummary, error)
}
