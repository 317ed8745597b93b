package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neotogether/neotogether/internal/errors"
	"github.com/neotogether/neotogether/internal/middleware"
	"github.com/neotogether/neotogether/internal/services"
)

func (s *Server) handleMe(c *gin.Context) {
	user, err := s.deps.Users.GetWithInterests(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) handleToggleAvailability(c *gin.Context) {
	isAvailable, err := s.deps.Users.ToggleAvailability(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_available": isAvailable})
}

func (s *Server) handleUpdatePreferences(c *gin.Context) {
	var update services.PreferencesUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.Error(errors.NewValidationError("body", "invalid request body"))
		return
	}

	user, err := s.deps.Users.UpdatePreferences(c.Request.Context(), middleware.UserID(c), update)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) handleUpdateEmail(c *gin.Context) {
	var input struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.Email == "" {
		c.Error(errors.NewValidationError("email", "email is required"))
		return
	}

	if err := s.deps.Users.UpdateEmail(c.Request.Context(), middleware.UserID(c), input.Email); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email updated."})
}

func (s *Server) handleSetInterests(c *gin.Context) {
	var input struct {
		InterestIDs []int64 `json:"interest_ids"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(errors.NewValidationError("body", "invalid request body"))
		return
	}

	interests, err := s.deps.Interests.SetUserInterests(c.Request.Context(), middleware.UserID(c), input.InterestIDs)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interests": interests})
}

func (s *Server) handleListInterests(c *gin.Context) {
	interests, err := s.deps.Interests.ListCatalog(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, interests)
}
