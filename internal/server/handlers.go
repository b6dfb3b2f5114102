package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/example/revtrack/pkg/models"
)

type intakeRequest struct {
	ProblemID int64 `json:"problem_id"`
}

type confirmRequest struct {
	ProblemID int64 `json:"problem_id"`
	Confirmed bool  `json:"confirmed"`
}

type notificationSettingsRequest struct {
	TelegramChatID       int64 `json:"telegram_chat_id"`
	NotificationHour     int   `json:"notification_hour"`
	NotificationsEnabled bool  `json:"notifications_enabled"`
}

type snapshotResponse struct {
	Created  bool              `json:"created,omitempty"`
	Snapshot *models.ReviewSet `json:"snapshot"`
}

func requestUser(c echo.Context) string {
	return c.Get("userID").(string)
}

func requestSheet(c echo.Context) (string, error) {
	sheet := c.QueryParam("sheet")
	if sheet == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "missing sheet query parameter")
	}
	return sheet, nil
}

func (s *Server) intake(c echo.Context) error {
	sheet, err := requestSheet(c)
	if err != nil {
		return err
	}
	var req intakeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	userID := requestUser(c)

	_, created, err := s.service.Intake(ctx, userID, sheet, req.ProblemID, time.Now())
	if err != nil {
		return httpError(err)
	}

	snapshot, err := s.service.Snapshot(ctx, userID, sheet)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, snapshotResponse{Created: created, Snapshot: snapshot})
}

func (s *Server) confirm(c echo.Context) error {
	sheet, err := requestSheet(c)
	if err != nil {
		return err
	}
	var req confirmRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	userID := requestUser(c)

	if _, err := s.service.Confirm(ctx, userID, sheet, req.ProblemID, req.Confirmed, time.Now()); err != nil {
		return httpError(err)
	}

	snapshot, err := s.service.Snapshot(ctx, userID, sheet)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, snapshotResponse{Snapshot: snapshot})
}

func (s *Server) sweep(c echo.Context) error {
	sheet, err := requestSheet(c)
	if err != nil {
		return err
	}

	result, err := s.service.Sweep(c.Request().Context(), requestUser(c), sheet, time.Now())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) dueNow(c echo.Context) error {
	sheet, err := requestSheet(c)
	if err != nil {
		return err
	}

	due, err := s.service.DueNow(c.Request().Context(), requestUser(c), sheet, time.Now())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, due)
}

func (s *Server) remove(c echo.Context) error {
	sheet, err := requestSheet(c)
	if err != nil {
		return err
	}
	problemID, err := strconv.ParseInt(c.Param("problemID"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid problem id")
	}

	if err := s.service.Remove(c.Request().Context(), requestUser(c), sheet, problemID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"removed": true})
}

func (s *Server) snapshot(c echo.Context) error {
	sheet, err := requestSheet(c)
	if err != nil {
		return err
	}

	snapshot, err := s.service.Snapshot(c.Request().Context(), requestUser(c), sheet)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, snapshotResponse{Snapshot: snapshot})
}

func (s *Server) listSheets(c echo.Context) error {
	sheets, err := s.sheets.GetAll(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sheets)
}

func (s *Server) updateNotificationSettings(c echo.Context) error {
	var req notificationSettingsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.NotificationHour < 0 || req.NotificationHour > 23 {
		return echo.NewHTTPError(http.StatusBadRequest, "notification_hour must be between 0 and 23")
	}

	settings := &models.UserSettings{
		UserID:               requestUser(c),
		TelegramChatID:       req.TelegramChatID,
		NotificationHour:     req.NotificationHour,
		NotificationsEnabled: req.NotificationsEnabled,
	}
	if err := s.settings.Upsert(c.Request().Context(), settings); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, settings)
}
