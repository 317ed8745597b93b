package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neotogether/neotogether/internal/auth"
	"github.com/neotogether/neotogether/internal/errors"
	"github.com/neotogether/neotogether/internal/services"
)

func (s *Server) handleSignup(c *gin.Context) {
	var input services.SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(errors.NewValidationError("body", "invalid request body"))
		return
	}

	result, err := s.deps.Auth.Signup(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":        result.User,
		"private_key": result.PrivateKey,
	})
}

func (s *Server) handleSignupWithEmail(c *gin.Context) {
	var input services.SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(errors.NewValidationError("body", "invalid request body"))
		return
	}
	if err := s.deps.Auth.SignupWithEmail(c.Request.Context(), input); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Account created! Check your email for a login link.",
		"check_email": true,
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	var input struct {
		FirstName  string `json:"first_name"`
		PrivateKey string `json:"private_key"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Error(errors.NewValidationError("body", "invalid request body"))
		return
	}
	if input.FirstName == "" || input.PrivateKey == "" {
		c.Error(errors.NewValidationError("body", "first_name and private_key are required"))
		return
	}

	token, err := s.deps.Auth.Login(c.Request.Context(), input.FirstName, input.PrivateKey)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (s *Server) handleRequestMagicLink(c *gin.Context) {
	var input struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.Email == "" {
		c.Error(errors.NewValidationError("email", "email is required"))
		return
	}

	if err := s.deps.Auth.RequestMagicLink(c.Request.Context(), input.Email); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "If that email is registered, a login link is on its way.",
	})
}

func (s *Server) handleVerifyMagicLink(c *gin.Context) {
	var input struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.Token == "" {
		c.Error(errors.NewValidationError("token", "token is required"))
		return
	}

	token, err := s.deps.Auth.VerifyMagicLink(c.Request.Context(), input.Token)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (s *Server) handleApprovedNames(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"names": auth.ApprovedNames()})
}
