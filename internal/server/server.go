package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/example/revtrack/internal/database"
	"github.com/example/revtrack/internal/review"
)

// userIDHeader carries the already-resolved user identity. Authentication
// happens upstream; this service only consumes the resulting identifier.
const userIDHeader = "X-User-ID"

// Server is the HTTP transport for the review engine
type Server struct {
	echoServer *echo.Echo
	service    *review.Service
	sheets     *database.SheetRepository
	settings   *database.UserSettingsRepository
}

// New creates the HTTP server and registers all routes
func New(service *review.Service, sheets *database.SheetRepository, settings *database.UserSettingsRepository) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	s := &Server{
		echoServer: e,
		service:    service,
		sheets:     sheets,
		settings:   settings,
	}

	api := e.Group("/api/v1", s.requireUser)
	api.POST("/review/intake", s.intake)
	api.POST("/review/confirm", s.confirm)
	api.POST("/review/sweep", s.sweep)
	api.GET("/review/due", s.dueNow)
	api.DELETE("/review/items/:problemID", s.remove)
	api.GET("/review/snapshot", s.snapshot)
	api.GET("/sheets", s.listSheets)
	api.PUT("/settings/notifications", s.updateNotificationSettings)

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	return s
}

// Start begins serving on the given address; it blocks until shutdown
func (s *Server) Start(addr string) error {
	return s.echoServer.Start(addr)
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echoServer.Shutdown(ctx)
}

// Echo exposes the underlying echo instance for tests
func (s *Server) Echo() *echo.Echo {
	return s.echoServer
}

// requireUser extracts the resolved user identifier from the request header
func (s *Server) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := c.Request().Header.Get(userIDHeader)
		if userID == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing "+userIDHeader+" header")
		}
		c.Set("userID", userID)
		return next(c)
	}
}

// httpError maps the service error taxonomy onto status codes
func httpError(err error) error {
	switch {
	case errors.Is(err, review.ErrInvalidSheet):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, review.ErrItemNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, review.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, review.ErrStorageUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
