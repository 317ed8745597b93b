package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/neotogether/neotogether/internal/auth"
	"github.com/neotogether/neotogether/internal/middleware"
	"github.com/neotogether/neotogether/internal/monitoring"
	"github.com/neotogether/neotogether/internal/services"
)

// Deps carries everything the HTTP layer needs.
type Deps struct {
	Users        *services.UserService
	Auth         *services.AuthService
	Interests    *services.InterestService
	Availability *services.AvailabilityService
	Discovery    *services.DiscoveryService
	Matches      *services.MatchService
	Groups       *services.GroupService
	Health       *monitoring.HealthChecker
	TokenOpts    auth.TokenOptions
}

// Server is the HTTP front for the meetup API.
type Server struct {
	router *gin.Engine
	http   *http.Server
	deps   Deps
}

// New builds the router with all routes registered.
func New(port string, debug bool, deps Deps) *Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		otelgin.Middleware("neo-together"),
		middleware.RequestLogging("/health"),
		middleware.ErrorHandler(),
	)

	s := &Server{
		router: router,
		deps:   deps,
		http: &http.Server{
			Addr:              ":" + port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)

	authGroup := s.router.Group("/auth")
	{
		limiter := middleware.NewRateLimitMiddleware(10, 6*time.Second)
		authGroup.Use(limiter.Handler())
		authGroup.POST("/signup", s.handleSignup)
		authGroup.POST("/signup-with-email", s.handleSignupWithEmail)
		authGroup.POST("/login", s.handleLogin)
		authGroup.POST("/request-magic-link", s.handleRequestMagicLink)
		authGroup.POST("/verify-magic-link", s.handleVerifyMagicLink)
		authGroup.GET("/approved-names", s.handleApprovedNames)
	}

	api := s.router.Group("/", middleware.RequireAuth(s.deps.TokenOpts))
	{
		api.GET("/users/me", s.handleMe)
		api.PATCH("/users/me/availability", s.handleToggleAvailability)
		api.PATCH("/users/me/preferences", s.handleUpdatePreferences)
		api.PATCH("/users/me/email", s.handleUpdateEmail)
		api.PUT("/users/me/interests", s.handleSetInterests)

		api.GET("/interests", s.handleListInterests)

		api.POST("/availability", s.handleCreateAvailability)
		api.GET("/availability", s.handleListAvailability)
		api.GET("/availability/:id", s.handleGetAvailability)
		api.PATCH("/availability/:id", s.handleUpdateAvailability)
		api.DELETE("/availability/:id", s.handleDeleteAvailability)

		api.GET("/discover/locations", s.handleListLocations)
		api.GET("/discover/locations/:id/people", s.handleListPeople)
		api.POST("/discover/interest", s.handleExpressInterest)
		api.GET("/discover/interests/sent", s.handleSentInterests)
		api.GET("/discover/matches", s.handleListMatches)
		api.POST("/discover/matches/:id/propose-time", s.handleProposeTime)
		api.POST("/discover/matches/:id/confirm", s.handleConfirmMatch)

		api.POST("/groups", s.handleCreateGroup)
		api.GET("/groups", s.handleMyGroups)
		api.GET("/groups/join-requests", s.handleJoinRequests)
		api.POST("/groups/:id/join", s.handleRequestJoin)
		api.POST("/groups/join-requests/:id/accept", s.handleAcceptJoin)
		api.POST("/groups/join-requests/:id/decline", s.handleDeclineJoin)
	}
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
