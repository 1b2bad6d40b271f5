package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/oldski/sportsfestDashboard-sub002/internal/orgcontext"
)

type Service interface {
	AddPlayerToTeam(ctx context.Context, scope orgcontext.Scope, playerID, teamID snowflake.ID) (*AddResult, error)
	RemovePlayerFromTeam(ctx context.Context, scope orgcontext.Scope, playerID, teamID snowflake.ID) (*RemoveResult, error)
	// TransferPlayerToTeam moves the player and then resolves the transfer
	// warnings the move left behind.
	TransferPlayerToTeam(ctx context.Context, scope orgcontext.Scope, playerID, newTeamID snowflake.ID) (*TransferResult, error)
	ToggleCaptain(ctx context.Context, scope orgcontext.Scope, playerID, teamID snowflake.ID, isCaptain bool) (*CaptainResult, error)
	ListTeamRoster(ctx context.Context, scope orgcontext.Scope, teamID snowflake.ID) ([]RosterMember, error)
	AutoGenerateRosters(ctx context.Context, scope orgcontext.Scope) (*AutoGenerateResult, error)
}

var (
	ErrPlayerNotFound = errors.New("player_not_found")
	ErrTeamNotFound   = errors.New("team_not_found")
)
