package httpserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/neotogether/neotogether/internal/errors"
	"github.com/neotogether/neotogether/internal/middleware"
)

func (s *Server) handleListLocations(c *gin.Context) {
	locations, err := s.deps.Discovery.ListLocations(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, locations)
}

func (s *Server) handleListPeople(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	people, err := s.deps.Discovery.PeopleAtSlot(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, people)
}

func (s *Server) handleExpressInterest(c *gin.Context) {
	var input struct {
		TargetID       string `json:"target_id"`
		AvailabilityID int64  `json:"availability_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(errors.NewValidationError("body", "invalid request body"))
		return
	}
	if input.TargetID == "" || input.AvailabilityID <= 0 {
		c.Error(errors.NewValidationError("body", "target_id and availability_id are required"))
		return
	}

	result, err := s.deps.Matches.ExpressInterest(
		c.Request.Context(), middleware.UserID(c), input.TargetID, input.AvailabilityID)
	if err != nil {
		c.Error(err)
		return
	}

	body := gin.H{
		"mutual_match": result.MutualMatch,
		"message":      "Interest expressed.",
	}
	if result.MutualMatch {
		body["message"] = "It's a match!"
		body["match"] = result.Match
	}
	c.JSON(http.StatusCreated, body)
}

func (s *Server) handleSentInterests(c *gin.Context) {
	sent, err := s.deps.Discovery.SentInterests(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sent)
}

func (s *Server) handleListMatches(c *gin.Context) {
	matches, err := s.deps.Matches.ListMatches(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, matches)
}

func (s *Server) handleProposeTime(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var input struct {
		ProposedDatetime time.Time `json:"proposed_datetime"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.ProposedDatetime.IsZero() {
		c.Error(errors.NewValidationError("proposed_datetime", "proposed_datetime is required (RFC 3339)"))
		return
	}

	match, err := s.deps.Matches.ProposeTime(
		c.Request.Context(), id, middleware.UserID(c), input.ProposedDatetime)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, match)
}

func (s *Server) handleConfirmMatch(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	match, err := s.deps.Matches.Confirm(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, match)
}
