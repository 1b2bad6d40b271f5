package service_test

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/oldski/sportsfestDashboard-sub002/internal/authorization"
	"github.com/oldski/sportsfestDashboard-sub002/internal/config"
	"github.com/oldski/sportsfestDashboard-sub002/internal/revalidation"
	"github.com/oldski/sportsfestDashboard-sub002/internal/testutil"
	"github.com/oldski/sportsfestDashboard-sub002/internal/transferwarning/domain"
	"github.com/oldski/sportsfestDashboard-sub002/internal/transferwarning/repository"
	"github.com/oldski/sportsfestDashboard-sub002/internal/transferwarning/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

const (
	orgID       = snowflake.ID(100)
	otherOrgID  = snowflake.ID(200)
	eventYearID = snowflake.ID(2026)

	teamA = snowflake.ID(10)
	teamB = snowflake.ID(11)

	alice = snowflake.ID(1001)
	bruno = snowflake.ID(1002)
	carla = snowflake.ID(1003)
)

func newService(t *testing.T, db *gorm.DB, reval revalidation.Publisher) domain.Service {
	t.Helper()
	return service.NewService(service.Params{
		DB:          db,
		Log:         zaptest.NewLogger(t),
		Repo:        repository.Provide(),
		Catalog:     config.NewStaticEventCatalogHolder(config.DefaultEventCatalog()),
		Authz:       testutil.Authorizer(t),
		Revalidator: reval,
	})
}

// alice moved from A to B, keeping two A event rows and one B row.
// bruno has no team but one A event row. carla is current on A.
func seedTransferred(t *testing.T, db *gorm.DB) {
	t.Helper()
	testutil.SeedTeam(t, db, teamA, orgID, eventYearID, 1, "Team 1")
	testutil.SeedTeam(t, db, teamB, orgID, eventYearID, 2, "Blue Sharks")

	testutil.SeedPlayer(t, db, alice, orgID, eventYearID, "Alice", "Adams", "female", "active")
	testutil.SeedPlayer(t, db, bruno, orgID, eventYearID, "Bruno", "Baker", "male", "active")
	testutil.SeedPlayer(t, db, carla, orgID, eventYearID, "Carla", "Cruz", "female", "active")

	testutil.SeedRosterEntry(t, db, 1, orgID, teamB, alice, false)
	testutil.SeedRosterEntry(t, db, 2, orgID, teamA, carla, false)

	testutil.SeedEventRosterEntry(t, db, 21, orgID, teamA, alice, "beach-volleyball", true, false)
	testutil.SeedEventRosterEntry(t, db, 22, orgID, teamA, alice, "tug-of-war", false, true)
	testutil.SeedEventRosterEntry(t, db, 23, orgID, teamB, alice, "relay-race", true, false)
	testutil.SeedEventRosterEntry(t, db, 24, orgID, teamA, bruno, "corn-toss", true, false)
	testutil.SeedEventRosterEntry(t, db, 25, orgID, teamA, carla, "corn-toss", true, false)
}

func TestListForPlayerReturnsOnlyStaleRows(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	svc := newService(t, db, nil)
	seedTransferred(t, db)

	warnings, err := svc.ListForPlayer(ctx, testutil.MemberScope(int64(orgID)), alice)
	require.NoError(t, err)
	require.Len(t, warnings, 2)

	first := warnings[0]
	assert.Equal(t, "beach-volleyball", first.EventType)
	assert.Equal(t, "Beach Volleyball", first.EventName)
	assert.Equal(t, teamA, first.OldTeamID)
	require.NotNil(t, first.OldTeamName)
	assert.Equal(t, "Team 1", *first.OldTeamName)
	require.NotNil(t, first.OldTeamNumber)
	assert.Equal(t, 1, *first.OldTeamNumber)
	require.NotNil(t, first.CurrentTeamID)
	assert.Equal(t, teamB, *first.CurrentTeamID)
	require.NotNil(t, first.CurrentTeamName)
	assert.Equal(t, "Blue Sharks", *first.CurrentTeamName)
	assert.True(t, first.IsStarter)

	assert.Equal(t, "tug-of-war", warnings[1].EventType)
	assert.True(t, warnings[1].SquadLeader)

	none, err := svc.ListForPlayer(ctx, testutil.MemberScope(int64(orgID)), carla)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListForOrganizationGroupsByPlayer(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	svc := newService(t, db, nil)
	seedTransferred(t, db)

	testutil.SeedTeam(t, db, 90, otherOrgID, eventYearID, 1, "Team 1")
	testutil.SeedPlayer(t, db, 9001, otherOrgID, eventYearID, "Zed", "Zulu", "male", "active")
	testutil.SeedEventRosterEntry(t, db, 91, otherOrgID, 90, 9001, "corn-toss", true, false)

	groups, err := svc.ListForOrganization(ctx, testutil.AdminScope(int64(orgID)))
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, alice, groups[0].PlayerID)
	assert.Equal(t, "Alice Adams", groups[0].PlayerName)
	assert.Len(t, groups[0].Warnings, 2)
	require.NotNil(t, groups[0].CurrentTeamName)
	assert.Equal(t, "Blue Sharks", *groups[0].CurrentTeamName)

	assert.Equal(t, bruno, groups[1].PlayerID)
	assert.Nil(t, groups[1].CurrentTeamID)
	require.Len(t, groups[1].Warnings, 1)
	assert.Equal(t, "Corn Toss", groups[1].Warnings[0].EventName)
}

func TestResolveAllForPlayerDeletesStaleRowsOnly(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	reval := &testutil.Revalidations{}
	svc := newService(t, db, reval)
	seedTransferred(t, db)

	res, err := svc.ResolveAllForPlayer(ctx, testutil.MemberScope(int64(orgID)), alice)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Resolved)
	assert.Equal(t, "Resolved 2 transfer warning(s)", res.Message)

	testutil.AssertCount(t, db, `SELECT COUNT(*) FROM event_roster_entries WHERE player_id = ?`, 1, alice)
	testutil.AssertCount(t, db, `SELECT COUNT(*) FROM event_roster_entries WHERE player_id = ? AND team_id = ?`, 1, alice, teamB)
	testutil.AssertCount(t, db, `SELECT COUNT(*) FROM event_roster_entries WHERE player_id = ?`, 1, carla)
	assert.Contains(t, reval.Paths(orgID), revalidation.PlayerPath(alice))

	again, err := svc.ResolveAllForPlayer(ctx, testutil.MemberScope(int64(orgID)), alice)
	require.NoError(t, err)
	assert.True(t, again.Success)
	assert.Zero(t, again.Resolved)
	assert.Equal(t, "No transfer warnings to resolve", again.Message)
}

func TestResolveAllForPlayerWithoutTeamClearsEverything(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	svc := newService(t, db, nil)
	seedTransferred(t, db)

	res, err := svc.ResolveAllForPlayer(ctx, testutil.AdminScope(int64(orgID)), bruno)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Resolved)
	testutil.AssertCount(t, db, `SELECT COUNT(*) FROM event_roster_entries WHERE player_id = ?`, 0, bruno)
}

func TestPlayerFromAnotherOrganizationIsNotFound(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	svc := newService(t, db, nil)
	seedTransferred(t, db)

	_, err := svc.ListForPlayer(ctx, testutil.MemberScope(int64(otherOrgID)), alice)
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)

	_, err = svc.ResolveAllForPlayer(ctx, testutil.MemberScope(int64(otherOrgID)), alice)
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
	testutil.AssertCount(t, db, `SELECT COUNT(*) FROM event_roster_entries WHERE player_id = ?`, 3, alice)

	_, err = svc.ListForPlayer(ctx, testutil.MemberScope(int64(orgID)), snowflake.ID(424242))
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
}

func TestSystemScopeCannotResolveWarnings(t *testing.T) {
	ctx := context.Background()
	db := testutil.OpenDB(t)
	svc := newService(t, db, nil)
	seedTransferred(t, db)

	_, err := svc.ResolveAllForPlayer(ctx, testutil.SystemScope(int64(orgID)), alice)
	assert.ErrorIs(t, err, authorization.ErrForbidden)
}
