package scheduler

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/revtrack/internal/database"
	"github.com/example/revtrack/internal/review"
)

// Константы для настроек уведомлений по умолчанию
const (
	DefaultNotificationStartHour = 8  // Время начала уведомлений (8:00)
	DefaultNotificationEndHour   = 22 // Время окончания уведомлений (22:00)
)

// Notifier sends due-review reminders to users
type Notifier interface {
	SendDueReminder(chatID int64, userID string, dueCounts map[string]int) error
}

// Scheduler runs the periodic sweep over every active (user, sheet) pair and
// dispatches reminder notifications
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *review.Service
	items     *database.ReviewItemRepository
	settings  *database.UserSettingsRepository
	notifier  Notifier
}

// New creates a new scheduler instance. notifier may be nil; sweeps still
// run, reminders are skipped.
func New(service *review.Service, items *database.ReviewItemRepository, settings *database.UserSettingsRepository, notifier Notifier) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		items:     items,
		settings:  settings,
		notifier:  notifier,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() {
	// Hourly sweep keeps stage membership current even when nobody queries
	s.scheduler.Every(1).Hour().Do(s.sweepAndRemind)

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// sweepAndRemind sweeps every active pair, then sends one summary reminder
// per opted-in user whose preferred hour matches the current one
func (s *Scheduler) sweepAndRemind() {
	ctx := context.Background()
	now := time.Now()

	pairs, err := s.items.ActivePairs(ctx)
	if err != nil {
		log.Printf("Error listing active pairs: %v", err)
		return
	}

	// Счётчики "к повторению" на пользователя и лист
	dueByUser := make(map[string]map[string]int)

	for _, pair := range pairs {
		due, err := s.service.DueNow(ctx, pair.UserID, pair.Sheet, now)
		if err != nil {
			log.Printf("Error sweeping %s/%s: %v", pair.UserID, pair.Sheet, err)
			continue
		}
		if len(due) == 0 {
			continue
		}
		if dueByUser[pair.UserID] == nil {
			dueByUser[pair.UserID] = make(map[string]int)
		}
		dueByUser[pair.UserID][pair.Sheet] = len(due)
	}

	if s.notifier == nil || len(dueByUser) == 0 {
		return
	}

	currentHour := now.Hour()
	if !withinNotificationWindow(currentHour) {
		log.Printf("Current hour %d is outside notification hours, skipping reminders", currentHour)
		return
	}

	users, err := s.settings.ListForHour(ctx, currentHour)
	if err != nil {
		log.Printf("Error getting users for notification: %v", err)
		return
	}

	for _, user := range users {
		counts, ok := dueByUser[user.UserID]
		if !ok {
			continue
		}
		if err := s.notifier.SendDueReminder(user.TelegramChatID, user.UserID, counts); err != nil {
			log.Printf("Error sending reminder to user %s: %v", user.UserID, err)
		}
	}
}

// RunManualCheck forces a sweep and reminder for a specific user and sheet
func (s *Scheduler) RunManualCheck(ctx context.Context, userID, sheet string) error {
	due, err := s.service.DueNow(ctx, userID, sheet, time.Now())
	if err != nil {
		return err
	}
	if len(due) == 0 || s.notifier == nil {
		return nil
	}

	settings, err := s.settings.Get(ctx, userID)
	if err != nil {
		return err
	}
	if settings == nil || !settings.NotificationsEnabled || settings.TelegramChatID == 0 {
		return nil
	}
	return s.notifier.SendDueReminder(settings.TelegramChatID, userID, map[string]int{sheet: len(due)})
}

// withinNotificationWindow checks the global quiet-hours window. The bounds
// can be overridden with NOTIFICATION_START_HOUR / NOTIFICATION_END_HOUR.
func withinNotificationWindow(currentHour int) bool {
	startHour := DefaultNotificationStartHour
	endHour := DefaultNotificationEndHour

	if startHourStr := os.Getenv("NOTIFICATION_START_HOUR"); startHourStr != "" {
		if h, err := strconv.Atoi(startHourStr); err == nil && h >= 0 && h <= 23 {
			startHour = h
		}
	}
	if endHourStr := os.Getenv("NOTIFICATION_END_HOUR"); endHourStr != "" {
		if h, err := strconv.Atoi(endHourStr); err == nil && h >= 0 && h <= 23 {
			endHour = h
		}
	}

	return currentHour >= startHour && currentHour <= endHour
}
