package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/dkrylov/finplan/internal/engine"
	"github.com/dkrylov/finplan/internal/models"
	"github.com/dkrylov/finplan/internal/notify"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler runs the daily forecast check: it looks ahead over the
// configured horizon, mails a warning when any day goes negative and
// reminds about payments projected for tomorrow.
type Scheduler struct {
	service      *Service
	sender       *notify.Sender
	log          *logrus.Logger
	cron         *cron.Cron
	spec         string
	forecastDays int
}

// NewScheduler initializes a new scheduler
func NewScheduler(svc *Service, sender *notify.Sender, log *logrus.Logger, spec string, forecastDays int) *Scheduler {
	return &Scheduler{
		service:      svc,
		sender:       sender,
		log:          log,
		cron:         cron.New(),
		spec:         spec,
		forecastDays: forecastDays,
	}
}

// Start registers the daily job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runDailyCheck); err != nil {
		return fmt.Errorf("failed to schedule daily check: %w", err)
	}
	s.cron.Start()
	s.log.Infof("Daily forecast check scheduled: %q", s.spec)
	return nil
}

// Stop stops the cron loop.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) runDailyCheck() {
	if !s.sender.Enabled() {
		s.log.Debug("Notifications disabled, skipping daily check")
		return
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	start := engine.FormatDate(today)
	end := engine.FormatDate(today.AddDate(0, 0, s.forecastDays))

	// Baseline 0 makes the check relative: any day below zero means
	// projected expenses outrun projected income on the horizon.
	forecast, err := s.service.Forecast(start, end, 0)
	if err != nil {
		s.log.Errorf("Daily check failed: %v", err)
		return
	}

	if danger := dangerDays(forecast.Balances); len(danger) > 0 {
		if err := s.sender.SendLowBalanceWarning(danger); err != nil {
			s.log.Errorf("Failed to send low balance warning: %v", err)
		}
	}

	tomorrow := engine.FormatDate(today.AddDate(0, 0, 1))
	for _, tx := range forecast.Transactions {
		if tx.Status == models.StatusProjected && tx.Type == models.TypeExpense && tx.ScheduledDate == tomorrow {
			if err := s.sender.SendPaymentReminder(tx); err != nil {
				s.log.Errorf("Failed to send payment reminder for %s: %v", tx.Name, err)
			}
		}
	}
}

func dangerDays(balances map[string]models.DayBalance) []models.DayBalance {
	var days []models.DayBalance
	for _, day := range balances {
		if day.Status == models.BalanceDanger {
			days = append(days, day)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}
