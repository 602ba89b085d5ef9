package scheduler

import (
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/example/prepbot/internal/database"
	"github.com/example/prepbot/internal/quiz"
	"github.com/example/prepbot/pkg/models"
	"github.com/go-co-op/gocron"
)

// Константы для настроек уведомлений по умолчанию
const (
	DefaultNotificationStartHour = 4  // Время начала уведомлений (8:00)
	DefaultNotificationEndHour   = 18 // Время окончания уведомлений (22:00)
)

// Quiz results older than this are purged by the nightly cleanup job.
const resultRetention = 90 * 24 * time.Hour

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	quizzes   *quiz.Manager
	bank      *quiz.Bank
	rng       *rand.Rand
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminders(userID int64, count int) error
	SendPracticeQuestion(userID int64, question models.QuizQuestion) error
}

// New creates a new scheduler instance
func New(notifier Notifier, quizzes *quiz.Manager, bank *quiz.Bank) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		notifier:  notifier,
		quizzes:   quizzes,
		bank:      bank,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() {
	// Schedule hourly check for users who need notifications
	s.scheduler.Every(1).Hour().Do(s.checkAndSendReminders)

	// Daily practice question for all active users
	s.scheduler.Every(1).Day().At("09:00").Do(s.sendDailyPractice)

	// Nightly cleanup of stale sessions and old quiz results
	s.scheduler.Every(1).Day().At("03:00").Do(s.runCleanup)

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// checkAndSendReminders checks for users who need reminders and sends them
func (s *Scheduler) checkAndSendReminders() {
	currentHour := time.Now().Hour()

	// Используем значения по умолчанию
	startHour := DefaultNotificationStartHour
	endHour := DefaultNotificationEndHour

	// Проверяем, задано ли время в переменных окружения
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

	// Проверяем, находится ли текущий час в диапазоне времени для отправки уведомлений
	if currentHour < startHour || currentHour > endHour {
		log.Printf("Current hour %d is outside notification hours (%d-%d), skipping reminders",
			currentHour, startHour, endHour)
		return
	}

	userRepo := database.NewUserRepository()
	progressRepo := database.NewProgressRepository()

	// Get users who should receive notifications at the current hour
	users, err := userRepo.GetUsersForNotification(currentHour)
	if err != nil {
		log.Printf("Error getting users for notification: %v", err)
		return
	}

	for _, user := range users {
		due, err := progressRepo.CountDue(user.ID)
		if err != nil {
			log.Printf("Error counting due items for user %d: %v", user.ID, err)
			continue
		}

		if due > 0 {
			// Don't send more than the user's daily preference
			count := due
			if count > user.ItemsPerDay {
				count = user.ItemsPerDay
			}

			if err := s.notifier.SendReminders(user.ID, count); err != nil {
				log.Printf("Error sending reminder to user %d: %v", user.ID, err)
			}
		}
	}
}

// sendDailyPractice picks one random question and broadcasts it to users
// who have notifications enabled.
func (s *Scheduler) sendDailyPractice() {
	questions := s.bank.RandomQuestions(1, nil, s.rng)
	if len(questions) == 0 {
		log.Printf("Practice broadcast skipped: question bank is empty")
		return
	}

	userRepo := database.NewUserRepository()
	users, err := userRepo.GetAllActive()
	if err != nil {
		log.Printf("Error getting users for practice broadcast: %v", err)
		return
	}

	for _, user := range users {
		if err := s.notifier.SendPracticeQuestion(user.ID, questions[0]); err != nil {
			log.Printf("Error sending practice question to user %d: %v", user.ID, err)
		}
	}
}

// runCleanup evicts abandoned quiz sessions and purges old results.
// EvictStale logs its own count.
func (s *Scheduler) runCleanup() {
	s.quizzes.EvictStale()

	resultRepo := database.NewQuizResultRepository()
	purged, err := resultRepo.PurgeOlderThan(time.Now().Add(-resultRetention))
	if err != nil {
		log.Printf("Error purging old quiz results: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("Purged %d quiz results older than %s", purged, resultRetention)
	}
}

// RunManualCheck forces a reminder check for a specific user
func (s *Scheduler) RunManualCheck(userID int64) error {
	progressRepo := database.NewProgressRepository()

	due, err := progressRepo.CountDue(userID)
	if err != nil {
		return err
	}

	if due > 0 {
		return s.notifier.SendReminders(userID, due)
	}

	return nil
}
