package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/oldski/sportsfestDashboard-sub002/internal/audit/domain"
	"github.com/oldski/sportsfestDashboard-sub002/internal/authorization"
	"github.com/oldski/sportsfestDashboard-sub002/internal/config"
	obsmetrics "github.com/oldski/sportsfestDashboard-sub002/internal/observability/metrics"
	"github.com/oldski/sportsfestDashboard-sub002/internal/orgcontext"
	"github.com/oldski/sportsfestDashboard-sub002/internal/revalidation"
	"github.com/oldski/sportsfestDashboard-sub002/internal/transferwarning/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Repo        domain.Repository
	Catalog     *config.EventCatalogHolder
	Authz       authorization.Service
	AuditSvc    auditdomain.Service    `optional:"true"`
	Revalidator revalidation.Publisher `optional:"true"`
	Metrics     *obsmetrics.Metrics    `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	repo        domain.Repository
	catalog     *config.EventCatalogHolder
	authz       authorization.Service
	auditSvc    auditdomain.Service
	revalidator revalidation.Publisher
	metrics     *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	svc := &Service{
		db:          p.DB,
		log:         p.Log.Named("transferwarning.service"),
		repo:        p.Repo,
		catalog:     p.Catalog,
		authz:       p.Authz,
		auditSvc:    p.AuditSvc,
		revalidator: p.Revalidator,
		metrics:     p.Metrics,
	}
	if svc.catalog == nil {
		svc.catalog = config.NewStaticEventCatalogHolder(config.DefaultEventCatalog())
	}
	if svc.revalidator == nil {
		svc.revalidator = revalidation.Noop{}
	}
	return svc
}

func (s *Service) ListForPlayer(ctx context.Context, scope orgcontext.Scope, playerID snowflake.ID) ([]domain.Warning, error) {
	if err := s.authz.Authorize(ctx, scope, authorization.ObjectTransferWarning, authorization.ActionTransferWarningView); err != nil {
		return nil, err
	}
	orgID, err := s.playerOrg(ctx, scope, playerID)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListStale(ctx, s.db, orgID, &playerID)
	if err != nil {
		return nil, err
	}
	catalog := s.catalog.Get()
	warnings := make([]domain.Warning, 0, len(rows))
	for _, row := range rows {
		warnings = append(warnings, domain.Warning{StaleEntry: row, EventName: catalog.DisplayName(row.EventType)})
	}
	return warnings, nil
}

func (s *Service) ListForOrganization(ctx context.Context, scope orgcontext.Scope) ([]domain.PlayerWarnings, error) {
	if err := s.authz.Authorize(ctx, scope, authorization.ObjectTransferWarning, authorization.ActionTransferWarningView); err != nil {
		return nil, err
	}
	if scope.OrgID == 0 {
		return nil, authorization.ErrInvalidOrganization
	}

	rows, err := s.repo.ListStale(ctx, s.db, scope.OrgID, nil)
	if err != nil {
		return nil, err
	}

	catalog := s.catalog.Get()
	out := make([]domain.PlayerWarnings, 0)
	index := make(map[snowflake.ID]int)
	for _, row := range rows {
		i, ok := index[row.PlayerID]
		if !ok {
			i = len(out)
			index[row.PlayerID] = i
			out = append(out, domain.PlayerWarnings{
				PlayerID:        row.PlayerID,
				PlayerName:      strings.TrimSpace(row.FirstName + " " + row.LastName),
				CurrentTeamID:   row.CurrentTeamID,
				CurrentTeamName: row.CurrentTeamName,
			})
		}
		out[i].Warnings = append(out[i].Warnings, domain.Warning{StaleEntry: row, EventName: catalog.DisplayName(row.EventType)})
	}
	return out, nil
}

func (s *Service) ResolveAllForPlayer(ctx context.Context, scope orgcontext.Scope, playerID snowflake.ID) (*domain.ResolveResult, error) {
	if err := s.authz.Authorize(ctx, scope, authorization.ObjectTransferWarning, authorization.ActionTransferWarningResolve); err != nil {
		return nil, err
	}
	orgID, err := s.playerOrg(ctx, scope, playerID)
	if err != nil {
		return nil, err
	}

	resolved, err := s.repo.DeleteStale(ctx, s.db, orgID, playerID)
	if err != nil {
		s.log.Error("failed to resolve transfer warnings",
			zap.String("player_id", playerID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	if resolved > 0 {
		s.metrics.RecordWarningsResolved(ctx, int(resolved))
		s.revalidator.Revalidate(ctx, orgID, revalidation.PlayerPath(playerID), revalidation.TeamsPath)
		if s.auditSvc != nil {
			_ = s.auditSvc.AuditLog(ctx, scope, auditdomain.ActionWarningsResolved, "player", playerID.String(), map[string]any{
				"resolved": resolved,
			})
		}
	}

	message := "No transfer warnings to resolve"
	if resolved > 0 {
		message = fmt.Sprintf("Resolved %d transfer warning(s)", resolved)
	}
	return &domain.ResolveResult{Success: true, Message: message, Resolved: int(resolved)}, nil
}

func (s *Service) playerOrg(ctx context.Context, scope orgcontext.Scope, playerID snowflake.ID) (snowflake.ID, error) {
	orgID, err := s.repo.FindPlayerOrg(ctx, s.db, playerID)
	if err != nil {
		return 0, err
	}
	if orgID == 0 || !scope.CanAccessOrg(orgID) {
		return 0, domain.ErrPlayerNotFound
	}
	return orgID, nil
}
