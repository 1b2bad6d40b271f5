package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

func (s *Server) GetTentTracking(c *gin.Context) {
	eventYearID, ok := pathID(c, "event_year_id")
	if !ok {
		return
	}

	tracking, err := s.tentSvc.GetTracking(c.Request.Context(), scopeFrom(c), eventYearID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": tracking})
}

func (s *Server) ListTeams(c *gin.Context) {
	eventYearID, err := parseOptionalSnowflakeID(c.Query("event_year_id"))
	if err != nil || eventYearID == nil {
		AbortWithError(c, newValidationError("event_year_id", "invalid_event_year_id", "invalid event year id"))
		return
	}

	teams, err := s.teamSvc.List(c.Request.Context(), scopeFrom(c), *eventYearID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": teams})
}

func (s *Server) ListTeamRoster(c *gin.Context) {
	teamID, ok := pathID(c, "id")
	if !ok {
		return
	}

	members, err := s.rosterSvc.ListTeamRoster(c.Request.Context(), scopeFrom(c), teamID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": members})
}

type addPlayerRequest struct {
	PlayerID snowflake.ID `json:"player_id"`
}

func (s *Server) AddPlayerToTeam(c *gin.Context) {
	teamID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req addPlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PlayerID <= 0 {
		AbortWithError(c, newValidationError("player_id", "invalid_player_id", "invalid player id"))
		return
	}

	res, err := s.rosterSvc.AddPlayerToTeam(c.Request.Context(), scopeFrom(c), req.PlayerID, teamID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, res.Success, res.Message, res.Entry)
}

func (s *Server) RemovePlayerFromTeam(c *gin.Context) {
	teamID, ok := pathID(c, "id")
	if !ok {
		return
	}
	playerID, ok := pathID(c, "player_id")
	if !ok {
		return
	}

	res, err := s.rosterSvc.RemovePlayerFromTeam(c.Request.Context(), scopeFrom(c), playerID, teamID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, res.Success, res.Message, gin.H{"event_roster_entries_removed": res.EventRosterEntriesRemoved})
}

type toggleCaptainRequest struct {
	IsCaptain *bool `json:"is_captain"`
}

func (s *Server) ToggleCaptain(c *gin.Context) {
	teamID, ok := pathID(c, "id")
	if !ok {
		return
	}
	playerID, ok := pathID(c, "player_id")
	if !ok {
		return
	}

	var req toggleCaptainRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsCaptain == nil {
		AbortWithError(c, newValidationError("is_captain", "invalid_is_captain", "is_captain is required"))
		return
	}

	res, err := s.rosterSvc.ToggleCaptain(c.Request.Context(), scopeFrom(c), playerID, teamID, *req.IsCaptain)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, res.Success, res.Message, gin.H{"is_captain": res.IsCaptain})
}
