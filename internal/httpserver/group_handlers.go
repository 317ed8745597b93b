package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neotogether/neotogether/internal/errors"
	"github.com/neotogether/neotogether/internal/middleware"
)

func (s *Server) handleCreateGroup(c *gin.Context) {
	var input struct {
		AvailabilityID int64 `json:"availability_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.AvailabilityID <= 0 {
		c.Error(errors.NewValidationError("availability_id", "availability_id is required"))
		return
	}

	group, err := s.deps.Groups.CreateGroup(c.Request.Context(), middleware.UserID(c), input.AvailabilityID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

func (s *Server) handleMyGroups(c *gin.Context) {
	groups, err := s.deps.Groups.MyGroups(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (s *Server) handleRequestJoin(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	request, err := s.deps.Groups.RequestJoin(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

func (s *Server) handleJoinRequests(c *gin.Context) {
	requests, err := s.deps.Groups.PendingJoinRequests(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, requests)
}

func (s *Server) handleAcceptJoin(c *gin.Context) {
	s.resolveJoin(c, true)
}

func (s *Server) handleDeclineJoin(c *gin.Context) {
	s.resolveJoin(c, false)
}

func (s *Server) resolveJoin(c *gin.Context, accept bool) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	request, err := s.deps.Groups.Resolve(c.Request.Context(), id, middleware.UserID(c), accept)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, request)
}
