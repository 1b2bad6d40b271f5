package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/oldski/sportsfestDashboard-sub002/internal/audit/domain"
	"github.com/oldski/sportsfestDashboard-sub002/internal/authorization"
	"github.com/oldski/sportsfestDashboard-sub002/internal/clock"
	"github.com/oldski/sportsfestDashboard-sub002/internal/events"
	eventyeardomain "github.com/oldski/sportsfestDashboard-sub002/internal/eventyear/domain"
	"github.com/oldski/sportsfestDashboard-sub002/internal/lock"
	"github.com/oldski/sportsfestDashboard-sub002/internal/observability/metrics"
	"github.com/oldski/sportsfestDashboard-sub002/internal/orgcontext"
	"github.com/oldski/sportsfestDashboard-sub002/internal/revalidation"
	"github.com/oldski/sportsfestDashboard-sub002/internal/roster/domain"
	teamdomain "github.com/oldski/sportsfestDashboard-sub002/internal/team/domain"
	transferwarningdomain "github.com/oldski/sportsfestDashboard-sub002/internal/transferwarning/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	autoGenerateLockTTL = 30 * time.Second

	opAdd      = "add"
	opRemove   = "remove"
	opTransfer = "transfer"
	opCaptain  = "captain"
	opGenerate = "auto_generate"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Repo          domain.Repository
	TeamRepo      teamdomain.Repository
	EventYearRepo eventyeardomain.Repository
	Warnings      transferwarningdomain.Service
	Authz         authorization.Service
	Locker        lock.Mutex             `optional:"true"`
	AuditSvc      auditdomain.Service    `optional:"true"`
	Events        events.Publisher       `optional:"true"`
	Revalidator   revalidation.Publisher `optional:"true"`
	Metrics       *metrics.Metrics       `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	repo          domain.Repository
	teamRepo      teamdomain.Repository
	eventYearRepo eventyeardomain.Repository
	warnings      transferwarningdomain.Service
	authz         authorization.Service
	locker        lock.Mutex
	auditSvc      auditdomain.Service
	events        events.Publisher
	revalidator   revalidation.Publisher
	metrics       *metrics.Metrics
}

func NewService(p Params) domain.Service {
	svc := &Service{
		db:            p.DB,
		log:           p.Log.Named("roster.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		repo:          p.Repo,
		teamRepo:      p.TeamRepo,
		eventYearRepo: p.EventYearRepo,
		warnings:      p.Warnings,
		authz:         p.Authz,
		locker:        p.Locker,
		auditSvc:      p.AuditSvc,
		events:        p.Events,
		revalidator:   p.Revalidator,
		metrics:       p.Metrics,
	}
	if svc.events == nil {
		svc.events = events.Noop{}
	}
	if svc.revalidator == nil {
		svc.revalidator = revalidation.Noop{}
	}
	return svc
}

func (s *Service) AddPlayerToTeam(ctx context.Context, scope orgcontext.Scope, playerID, teamID snowflake.ID) (*domain.AddResult, error) {
	if err := s.authz.Authorize(ctx, scope, authorization.ObjectRoster, authorization.ActionRosterManage); err != nil {
		return nil, err
	}

	var (
		result *domain.AddResult
		team   *teamdomain.CompanyTeam
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var (
			player *domain.Player
			err    error
		)
		team, player, err = s.loadPair(ctx, tx, scope, playerID, teamID)
		if err != nil {
			return err
		}
		teamName := teamdomain.DisplayName(team.Name, team.TeamNumber)

		if msg, ok := eligible(player, team); !ok {
			result = &domain.AddResult{Message: msg}
			return nil
		}

		current, err := s.repo.FindEntryByPlayer(ctx, tx, team.OrgID, player.ID)
		if err != nil {
			return err
		}
		if current != nil {
			result = &domain.AddResult{Message: fmt.Sprintf("%s is already assigned to a team", player.FullName())}
			return nil
		}

		entry := &domain.TeamRosterEntry{
			ID:        s.genID.Generate(),
			OrgID:     team.OrgID,
			TeamID:    team.ID,
			PlayerID:  player.ID,
			CreatedAt: s.clock.Now(),
		}
		inserted, err := s.repo.InsertEntry(ctx, tx, entry)
		if err != nil {
			return err
		}
		if !inserted {
			result = &domain.AddResult{Message: fmt.Sprintf("%s is already assigned to a team", player.FullName())}
			return nil
		}

		result = &domain.AddResult{
			Success: true,
			Message: fmt.Sprintf("Added %s to %s", player.FullName(), teamName),
			Entry:   entry,
		}
		return nil
	})
	if err != nil {
		return nil, s.logFailure("add player to team failed", playerID, teamID, err)
	}

	if result.Success {
		s.mutated(ctx, scope, opAdd, auditdomain.ActionRosterAdded, team.OrgID, playerID, map[string]any{
			"team_id": team.ID.String(),
		}, revalidation.TeamPath(team.ID))
	}
	return result, nil
}

// RemovePlayerFromTeam also clears the player's event assignments on that
// team so no stale sub-event entry survives the removal.
func (s *Service) RemovePlayerFromTeam(ctx context.Context, scope orgcontext.Scope, playerID, teamID snowflake.ID) (*domain.RemoveResult, error) {
	if err := s.authz.Authorize(ctx, scope, authorization.ObjectRoster, authorization.ActionRosterManage); err != nil {
		return nil, err
	}

	var (
		result *domain.RemoveResult
		team   *teamdomain.CompanyTeam
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var (
			player *domain.Player
			err    error
		)
		team, player, err = s.loadPair(ctx, tx, scope, playerID, teamID)
		if err != nil {
			return err
		}
		teamName := teamdomain.DisplayName(team.Name, team.TeamNumber)

		entry, err := s.repo.FindEntry(ctx, tx, team.ID, player.ID)
		if err != nil {
			return err
		}
		if entry == nil {
			result = &domain.RemoveResult{Message: fmt.Sprintf("%s is not on %s", player.FullName(), teamName)}
			return nil
		}

		if err := s.repo.DeleteEntry(ctx, tx, entry.ID); err != nil {
			return err
		}
		removed, err := s.repo.DeleteEventEntriesForTeam(ctx, tx, team.ID, player.ID)
		if err != nil {
			return err
		}

		result = &domain.RemoveResult{
			Success:                   true,
			Message:                   fmt.Sprintf("Removed %s from %s", player.FullName(), teamName),
			EventRosterEntriesRemoved: int(removed),
		}
		return nil
	})
	if err != nil {
		return nil, s.logFailure("remove player from team failed", playerID, teamID, err)
	}

	if result.Success {
		s.mutated(ctx, scope, opRemove, auditdomain.ActionRosterRemoved, team.OrgID, playerID, map[string]any{
			"team_id":                      team.ID.String(),
			"event_roster_entries_removed": result.EventRosterEntriesRemoved,
		}, revalidation.TeamPath(team.ID), revalidation.PlayerPath(playerID))
	}
	return result, nil
}

// TransferPlayerToTeam swaps the roster entry in one transaction, then hands
// the old team's event assignments to the transfer warning resolver.
func (s *Service) TransferPlayerToTeam(ctx context.Context, scope orgcontext.Scope, playerID, newTeamID snowflake.ID) (*domain.TransferResult, error) {
	if err := s.authz.Authorize(ctx, scope, authorization.ObjectRoster, authorization.ActionRosterManage); err != nil {
		return nil, err
	}

	var (
		result *domain.TransferResult
		team   *teamdomain.CompanyTeam
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var (
			player *domain.Player
			err    error
		)
		team, player, err = s.loadPair(ctx, tx, scope, playerID, newTeamID)
		if err != nil {
			return err
		}
		teamName := teamdomain.DisplayName(team.Name, team.TeamNumber)

		if msg, ok := eligible(player, team); !ok {
			result = &domain.TransferResult{Message: msg}
			return nil
		}

		current, err := s.repo.FindEntryByPlayer(ctx, tx, team.OrgID, player.ID)
		if err != nil {
			return err
		}
		if current == nil {
			result = &domain.TransferResult{Message: fmt.Sprintf("%s has no current team assignment", player.FullName())}
			return nil
		}
		if current.TeamID == team.ID {
			result = &domain.TransferResult{Message: fmt.Sprintf("%s is already on %s", player.FullName(), teamName)}
			return nil
		}

		if err := s.repo.DeleteEntry(ctx, tx, current.ID); err != nil {
			return err
		}
		entry := &domain.TeamRosterEntry{
			ID:        s.genID.Generate(),
			OrgID:     team.OrgID,
			TeamID:    team.ID,
			PlayerID:  player.ID,
			CreatedAt: s.clock.Now(),
		}
		inserted, err := s.repo.InsertEntry(ctx, tx, entry)
		if err != nil {
			return err
		}
		if !inserted {
			return fmt.Errorf("player %s gained a roster entry during transfer", player.ID)
		}

		result = &domain.TransferResult{
			Success:    true,
			Message:    fmt.Sprintf("Transferred %s to %s", player.FullName(), teamName),
			FromTeamID: current.TeamID,
			Entry:      entry,
		}
		return nil
	})
	if err != nil {
		return nil, s.logFailure("transfer player failed", playerID, newTeamID, err)
	}
	if !result.Success {
		return result, nil
	}

	resolved, err := s.warnings.ResolveAllForPlayer(ctx, scope, playerID)
	if err != nil {
		s.log.Warn("transfer warnings left unresolved",
			zap.String("player_id", playerID.String()),
			zap.Error(err),
		)
	} else {
		result.WarningsResolved = resolved.Resolved
		if resolved.Resolved > 0 {
			result.Message += fmt.Sprintf(" (%d event assignment(s) cleared)", resolved.Resolved)
		}
	}

	data := map[string]any{
		"from_team_id":      result.FromTeamID.String(),
		"to_team_id":        team.ID.String(),
		"warnings_resolved": result.WarningsResolved,
	}
	s.mutated(ctx, scope, opTransfer, auditdomain.ActionRosterTransferred, team.OrgID, playerID, data,
		revalidation.TeamPath(result.FromTeamID), revalidation.TeamPath(team.ID), revalidation.PlayerPath(playerID))

	data["player_id"] = playerID.String()
	if err := s.events.Publish(ctx, events.New(events.TypePlayerTransferred, team.OrgID, s.clock.Now(), data)); err != nil {
		s.log.Warn("player transferred event not published", zap.String("player_id", playerID.String()), zap.Error(err))
	}
	return result, nil
}

// ToggleCaptain keeps at most one captain per team: promoting a player
// demotes whoever held the flag before.
func (s *Service) ToggleCaptain(ctx context.Context, scope orgcontext.Scope, playerID, teamID snowflake.ID, isCaptain bool) (*domain.CaptainResult, error) {
	if err := s.authz.Authorize(ctx, scope, authorization.ObjectRoster, authorization.ActionRosterManage); err != nil {
		return nil, err
	}

	var (
		result *domain.CaptainResult
		team   *teamdomain.CompanyTeam
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var (
			player *domain.Player
			err    error
		)
		team, player, err = s.loadPair(ctx, tx, scope, playerID, teamID)
		if err != nil {
			return err
		}
		teamName := teamdomain.DisplayName(team.Name, team.TeamNumber)

		entry, err := s.repo.FindEntry(ctx, tx, team.ID, player.ID)
		if err != nil {
			return err
		}
		if entry == nil {
			result = &domain.CaptainResult{Message: fmt.Sprintf("%s is not on %s", player.FullName(), teamName)}
			return nil
		}

		if isCaptain {
			if err := s.repo.ClearCaptains(ctx, tx, team.ID, entry.ID); err != nil {
				return err
			}
		}
		if err := s.repo.SetCaptain(ctx, tx, entry.ID, isCaptain); err != nil {
			return err
		}

		message := fmt.Sprintf("%s is now captain of %s", player.FullName(), teamName)
		if !isCaptain {
			message = fmt.Sprintf("%s is no longer captain of %s", player.FullName(), teamName)
		}
		result = &domain.CaptainResult{Success: true, Message: message, IsCaptain: isCaptain}
		return nil
	})
	if err != nil {
		return nil, s.logFailure("toggle captain failed", playerID, teamID, err)
	}

	if result.Success {
		s.mutated(ctx, scope, opCaptain, auditdomain.ActionCaptainToggled, team.OrgID, playerID, map[string]any{
			"team_id":    team.ID.String(),
			"is_captain": isCaptain,
		}, revalidation.TeamPath(team.ID))
	}
	return result, nil
}

func (s *Service) ListTeamRoster(ctx context.Context, scope orgcontext.Scope, teamID snowflake.ID) ([]domain.RosterMember, error) {
	if err := s.authz.Authorize(ctx, scope, authorization.ObjectRoster, authorization.ActionRosterView); err != nil {
		return nil, err
	}
	team, err := s.teamRepo.FindByID(ctx, s.db, teamID)
	if err != nil {
		return nil, err
	}
	if team == nil || !scope.CanAccessOrg(team.OrgID) {
		return nil, domain.ErrTeamNotFound
	}
	return s.repo.ListTeamRoster(ctx, s.db, team.ID)
}

// AutoGenerateRosters places every unassigned player of the active event
// year onto the organization's teams. See domain.PlanRosters for the rules.
func (s *Service) AutoGenerateRosters(ctx context.Context, scope orgcontext.Scope) (*domain.AutoGenerateResult, error) {
	if err := s.authz.Authorize(ctx, scope, authorization.ObjectRoster, authorization.ActionRosterGenerate); err != nil {
		return nil, err
	}
	if scope.OrgID == 0 {
		return nil, authorization.ErrInvalidOrganization
	}
	orgID := scope.OrgID
	log := s.log.With(zap.String("org_id", orgID.String()))

	if s.locker != nil {
		key := "roster:autogen:" + orgID.String()
		token, ok, err := s.locker.TryLock(ctx, key, autoGenerateLockTTL)
		switch {
		case err != nil:
			log.Warn("roster generation lock unavailable, continuing without it", zap.Error(err))
		case !ok:
			return &domain.AutoGenerateResult{Message: "Roster generation already in progress"}, nil
		default:
			defer func() {
				if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
					log.Warn("roster generation lock not released", zap.Error(err))
				}
			}()
		}
	}

	eventYear, err := s.eventYearRepo.FindActive(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if eventYear == nil {
		return &domain.AutoGenerateResult{Message: "No active event year"}, nil
	}

	players, err := s.repo.ListAvailablePlayers(ctx, s.db, orgID, eventYear.ID)
	if err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return &domain.AutoGenerateResult{Message: "No available players to assign"}, nil
	}

	teams, err := s.teamRepo.ListWithMemberCounts(ctx, s.db, orgID, eventYear.ID)
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return &domain.AutoGenerateResult{Message: "No teams found for the active event year"}, nil
	}

	planTeams := make([]domain.PlanTeam, 0, len(teams))
	for _, t := range teams {
		planTeams = append(planTeams, domain.PlanTeam{ID: t.ID, TeamNumber: t.TeamNumber, MemberCount: t.MemberCount})
	}
	plan := domain.PlanRosters(planTeams, players)
	if len(plan.Assignments) == 0 {
		return &domain.AutoGenerateResult{Message: "No available players with a male or female gender to assign"}, nil
	}

	now := s.clock.Now()
	entries := make([]domain.TeamRosterEntry, 0, len(plan.Assignments))
	for _, a := range plan.Assignments {
		entries = append(entries, domain.TeamRosterEntry{
			ID:        s.genID.Generate(),
			OrgID:     orgID,
			TeamID:    a.TeamID,
			PlayerID:  a.PlayerID,
			IsCaptain: a.IsCaptain,
			CreatedAt: now,
		})
	}

	var inserted int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		inserted, err = s.repo.InsertEntries(ctx, tx, entries)
		return err
	})
	if err != nil {
		log.Error("roster generation failed", zap.Error(err))
		return nil, err
	}
	if inserted < int64(len(entries)) {
		log.Warn("some players were assigned concurrently and skipped",
			zap.Int("planned", len(entries)),
			zap.Int64("inserted", inserted),
		)
	}

	result := &domain.AutoGenerateResult{
		Success:         true,
		Message:         fmt.Sprintf("Assigned %d player(s) across %d team(s)", inserted, plan.TeamsTouched),
		PlayersAssigned: int(inserted),
		TeamsTouched:    plan.TeamsTouched,
	}

	paths := []string{revalidation.TeamsPath}
	touched := make(map[snowflake.ID]bool)
	for _, a := range plan.Assignments {
		if !touched[a.TeamID] {
			touched[a.TeamID] = true
			paths = append(paths, revalidation.TeamPath(a.TeamID))
		}
	}

	data := map[string]any{
		"event_year_id":    eventYear.ID.String(),
		"players_assigned": result.PlayersAssigned,
		"teams_touched":    result.TeamsTouched,
	}
	s.metrics.RecordRosterChange(ctx, opGenerate, result.PlayersAssigned)
	s.revalidator.Revalidate(ctx, orgID, paths...)
	if s.auditSvc != nil {
		_ = s.auditSvc.AuditLog(ctx, scope, auditdomain.ActionRosterGenerated, "organization", orgID.String(), data)
	}
	if err := s.events.Publish(ctx, events.New(events.TypeRosterGenerated, orgID, now, data)); err != nil {
		log.Warn("roster generated event not published", zap.Error(err))
	}

	log.Info("rosters generated",
		zap.Int("players_assigned", result.PlayersAssigned),
		zap.Int("teams_touched", result.TeamsTouched),
	)
	return result, nil
}

// loadPair resolves the team in the caller's organization and a player of
// the same organization.
func (s *Service) loadPair(ctx context.Context, tx *gorm.DB, scope orgcontext.Scope, playerID, teamID snowflake.ID) (*teamdomain.CompanyTeam, *domain.Player, error) {
	team, err := s.teamRepo.FindByID(ctx, tx, teamID)
	if err != nil {
		return nil, nil, err
	}
	if team == nil || !scope.CanAccessOrg(team.OrgID) {
		return nil, nil, domain.ErrTeamNotFound
	}

	player, err := s.repo.FindPlayer(ctx, tx, playerID)
	if err != nil {
		return nil, nil, err
	}
	if player == nil || player.OrgID != team.OrgID {
		return nil, nil, domain.ErrPlayerNotFound
	}
	return team, player, nil
}

func eligible(player *domain.Player, team *teamdomain.CompanyTeam) (string, bool) {
	if player.Inactive() {
		return fmt.Sprintf("%s is inactive", player.FullName()), false
	}
	if player.EventYearID != team.EventYearID {
		return fmt.Sprintf("%s is not registered for this team's event year", player.FullName()), false
	}
	return "", true
}

func (s *Service) mutated(ctx context.Context, scope orgcontext.Scope, op, action string, orgID, playerID snowflake.ID, data map[string]any, paths ...string) {
	s.metrics.RecordRosterChange(ctx, op, 1)
	s.revalidator.Revalidate(ctx, orgID, paths...)
	if s.auditSvc != nil {
		_ = s.auditSvc.AuditLog(ctx, scope, action, "player", playerID.String(), data)
	}
}

func (s *Service) logFailure(msg string, playerID, teamID snowflake.ID, err error) error {
	if errors.Is(err, domain.ErrPlayerNotFound) || errors.Is(err, domain.ErrTeamNotFound) {
		return err
	}
	s.log.Error(msg,
		zap.String("player_id", playerID.String()),
		zap.String("team_id", teamID.String()),
		zap.Error(err),
	)
	return err
}
