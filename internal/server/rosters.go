package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

type transferPlayerRequest struct {
	TeamID snowflake.ID `json:"team_id"`
}

func (s *Server) TransferPlayer(c *gin.Context) {
	playerID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req transferPlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TeamID <= 0 {
		AbortWithError(c, newValidationError("team_id", "invalid_team_id", "invalid team id"))
		return
	}

	res, err := s.rosterSvc.TransferPlayerToTeam(c.Request.Context(), scopeFrom(c), playerID, req.TeamID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, res.Success, res.Message, res)
}

func (s *Server) AutoGenerateRosters(c *gin.Context) {
	res, err := s.rosterSvc.AutoGenerateRosters(c.Request.Context(), scopeFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, res.Success, res.Message, gin.H{
		"players_assigned": res.PlayersAssigned,
		"teams_touched":    res.TeamsTouched,
	})
}

func (s *Server) ListTransferWarnings(c *gin.Context) {
	warnings, err := s.warningSvc.ListForOrganization(c.Request.Context(), scopeFrom(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": warnings})
}

func (s *Server) ListPlayerTransferWarnings(c *gin.Context) {
	playerID, ok := pathID(c, "id")
	if !ok {
		return
	}

	warnings, err := s.warningSvc.ListForPlayer(c.Request.Context(), scopeFrom(c), playerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": warnings})
}

func (s *Server) ResolvePlayerTransferWarnings(c *gin.Context) {
	playerID, ok := pathID(c, "id")
	if !ok {
		return
	}

	res, err := s.warningSvc.ResolveAllForPlayer(c.Request.Context(), scopeFrom(c), playerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respond(c, res.Success, res.Message, gin.H{"resolved": res.Resolved})
}
