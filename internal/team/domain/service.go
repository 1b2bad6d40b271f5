package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/oldski/sportsfestDashboard-sub002/internal/orgcontext"
	"gorm.io/gorm"
)

type CreateTeamRequest struct {
	OrgID       snowflake.ID
	EventYearID snowflake.ID
	OrderID     snowflake.ID
	TeamNumber  int
	Name        string
}

type CreateTeamsRequest struct {
	OrgID       snowflake.ID
	EventYearID snowflake.ID
	OrderID     snowflake.ID
	Count       int
}

type Service interface {
	// CreateTeam and CreateTeams write on the caller's transaction.
	CreateTeam(ctx context.Context, tx *gorm.DB, req CreateTeamRequest) (*CompanyTeam, error)
	// CreateTeams numbers new teams after the highest existing number in the scope.
	CreateTeams(ctx context.Context, tx *gorm.DB, req CreateTeamsRequest) ([]CompanyTeam, error)
	Get(ctx context.Context, scope orgcontext.Scope, id snowflake.ID) (*CompanyTeam, error)
	List(ctx context.Context, scope orgcontext.Scope, eventYearID snowflake.ID) ([]TeamSummary, error)
}

var (
	ErrNotFound          = errors.New("team_not_found")
	ErrInvalidTeamNumber = errors.New("invalid_team_number")
	ErrInvalidCount      = errors.New("invalid_team_count")
	ErrDuplicateNumber   = errors.New("duplicate_team_number")
)
