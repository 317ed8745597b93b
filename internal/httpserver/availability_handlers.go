package httpserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/neotogether/neotogether/internal/errors"
	"github.com/neotogether/neotogether/internal/middleware"
	"github.com/neotogether/neotogether/internal/services"
)

// idParam parses the :id path segment.
func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.Error(errors.NewValidationError("id", "id must be a positive integer"))
		return 0, false
	}
	return id, true
}

func (s *Server) handleCreateAvailability(c *gin.Context) {
	var input services.AvailabilityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(errors.NewValidationError("body", "invalid request body"))
		return
	}

	slot, err := s.deps.Availability.Create(c.Request.Context(), middleware.UserID(c), input)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, slot)
}

func (s *Server) handleListAvailability(c *gin.Context) {
	slots, err := s.deps.Availability.ListMine(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

func (s *Server) handleGetAvailability(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	slot, err := s.deps.Availability.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

func (s *Server) handleUpdateAvailability(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var input services.AvailabilityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(errors.NewValidationError("body", "invalid request body"))
		return
	}

	slot, err := s.deps.Availability.Update(c.Request.Context(), middleware.UserID(c), id, input)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

func (s *Server) handleDeleteAvailability(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := s.deps.Availability.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Availability deleted."})
}
