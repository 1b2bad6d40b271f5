package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/oldski/sportsfestDashboard-sub002/internal/authorization"
	"github.com/oldski/sportsfestDashboard-sub002/internal/clock"
	"github.com/oldski/sportsfestDashboard-sub002/internal/orgcontext"
	"github.com/oldski/sportsfestDashboard-sub002/internal/team/domain"
	"github.com/oldski/sportsfestDashboard-sub002/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
	Authz authorization.Service
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
	authz authorization.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("team.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		authz: p.Authz,
	}
}

func (s *Service) CreateTeam(ctx context.Context, tx *gorm.DB, req domain.CreateTeamRequest) (*domain.CompanyTeam, error) {
	if req.TeamNumber <= 0 {
		return nil, domain.ErrInvalidTeamNumber
	}

	now := s.clock.Now()
	team := &domain.CompanyTeam{
		ID:          s.genID.Generate(),
		OrgID:       req.OrgID,
		EventYearID: req.EventYearID,
		TeamNumber:  req.TeamNumber,
		Name:        domain.DisplayName(req.Name, req.TeamNumber),
		IsPaid:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.OrderID != 0 {
		orderID := req.OrderID
		team.OrderID = &orderID
	}

	if err := s.repo.Insert(ctx, tx, team); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateNumber
		}
		s.log.Error("failed to insert team",
			zap.String("org_id", req.OrgID.String()),
			zap.Int("team_number", req.TeamNumber),
			zap.Error(err),
		)
		return nil, err
	}
	return team, nil
}

func (s *Service) CreateTeams(ctx context.Context, tx *gorm.DB, req domain.CreateTeamsRequest) ([]domain.CompanyTeam, error) {
	if req.Count <= 0 {
		return nil, domain.ErrInvalidCount
	}

	// MAX alone does not block a concurrent reader of the same scope.
	if err := s.repo.LockNumbering(ctx, tx, req.OrgID, req.EventYearID); err != nil {
		return nil, err
	}
	last, err := s.repo.MaxTeamNumber(ctx, tx, req.OrgID, req.EventYearID)
	if err != nil {
		return nil, err
	}

	teams := make([]domain.CompanyTeam, 0, req.Count)
	for i := 1; i <= req.Count; i++ {
		team, err := s.CreateTeam(ctx, tx, domain.CreateTeamRequest{
			OrgID:       req.OrgID,
			EventYearID: req.EventYearID,
			OrderID:     req.OrderID,
			TeamNumber:  last + i,
		})
		if err != nil {
			return nil, err
		}
		teams = append(teams, *team)
	}
	return teams, nil
}

func (s *Service) Get(ctx context.Context, scope orgcontext.Scope, id snowflake.ID) (*domain.CompanyTeam, error) {
	if err := s.authz.Authorize(ctx, scope, authorization.ObjectTeam, authorization.ActionTeamView); err != nil {
		return nil, err
	}
	team, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if team == nil || !scope.CanAccessOrg(team.OrgID) {
		return nil, domain.ErrNotFound
	}
	return team, nil
}

func (s *Service) List(ctx context.Context, scope orgcontext.Scope, eventYearID snowflake.ID) ([]domain.TeamSummary, error) {
	if err := s.authz.Authorize(ctx, scope, authorization.ObjectTeam, authorization.ActionTeamView); err != nil {
		return nil, err
	}
	if scope.OrgID == 0 {
		return nil, authorization.ErrInvalidOrganization
	}
	return s.repo.ListWithMemberCounts(ctx, s.db, scope.OrgID, eventYearID)
}
