package notify

import (
	"fmt"
	"net/smtp"

	"github.com/dkrylov/finplan/internal/config"
	"github.com/dkrylov/finplan/internal/models"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending forecast notifications via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

// Enabled reports whether SMTP is configured at all.
func (s *Sender) Enabled() bool {
	return s.cfg.SMTPHost != "" && s.cfg.NotifyEmail != ""
}

// SendLowBalanceWarning sends a warning listing the forecast days whose
// projected balance falls below zero or the warning threshold.
func (s *Sender) SendLowBalanceWarning(days []models.DayBalance) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{s.cfg.NotifyEmail}
	e.Subject = "Low Balance Forecast Warning"

	body := "Your balance forecast has days that need attention:\n\n"
	for _, day := range days {
		body += fmt.Sprintf("  %s: projected balance %.2f (%s)\n", day.Date, day.ClosingBalance, day.Status)
	}
	body += "\nReview your upcoming expenses to avoid an overdraft.\n\nBest regards,\nFinplan"
	e.Text = []byte(body)

	if err := s.send(e); err != nil {
		s.logger.Errorf("Failed to send low balance warning: %v", err)
		return fmt.Errorf("failed to send low balance warning: %w", err)
	}
	s.logger.Infof("Low balance warning sent for %d day(s)", len(days))
	return nil
}

// SendPaymentReminder sends a reminder for an upcoming projected payment.
func (s *Sender) SendPaymentReminder(tx models.Transaction) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{s.cfg.NotifyEmail}
	e.Subject = "Upcoming Payment Reminder"

	body := fmt.Sprintf(
		"This is a reminder that %q (%.2f) is due on %s.\n",
		tx.Name, tx.ProjectedAmount, tx.ScheduledDate,
	)
	if tx.Breakdown != nil {
		body += fmt.Sprintf(
			"Payment %d of %d: %.2f principal, %.2f interest, %.2f remaining.\n",
			tx.Breakdown.PaymentNumber, tx.Breakdown.TotalPayments,
			tx.Breakdown.PrincipalPaid, tx.Breakdown.InterestPaid, tx.Breakdown.RemainingBalance,
		)
	}
	body += "Please ensure sufficient funds are available.\n\nBest regards,\nFinplan"
	e.Text = []byte(body)

	if err := s.send(e); err != nil {
		s.logger.Errorf("Failed to send payment reminder for %s: %v", tx.Name, err)
		return fmt.Errorf("failed to send payment reminder: %w", err)
	}
	s.logger.Infof("Payment reminder sent: %s due %s", tx.Name, tx.ScheduledDate)
	return nil
}

func (s *Sender) send(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	return e.Send(addr, auth)
}
