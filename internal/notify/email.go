package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/segyhp/fee-ledger/internal/config"
	"github.com/segyhp/fee-ledger/internal/domain"
	"github.com/segyhp/fee-ledger/pkg/utils"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Notifier delivers fee reminders to a statement's billing contact
type Notifier interface {
	SendReminder(statement *domain.FeeStatement) error
}

// Sender handles sending emails via SMTP
type Sender struct {
	cfg      config.SMTPConfig
	currency string
	logger   *logrus.Logger
	send     func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewSender creates a new email sender
func NewSender(cfg config.SMTPConfig, currency string, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:      cfg,
		currency: currency,
		logger:   logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// SendReminder e-mails an upcoming or overdue notice for the statement
func (s *Sender) SendReminder(statement *domain.FeeStatement) error {
	if statement.ContactEmail == "" {
		return fmt.Errorf("statement %s has no contact email", statement.StatementNumber)
	}

	e := s.compose(statement)

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := s.send(e, addr, auth); err != nil {
		s.logger.WithError(err).WithField("statement_number", statement.StatementNumber).
			Errorf("Failed to send fee reminder to %s", statement.ContactEmail)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.WithField("statement_number", statement.StatementNumber).
		Infof("Email sent to %s: %s", statement.ContactEmail, e.Subject)
	return nil
}

func (s *Sender) compose(statement *domain.FeeStatement) *email.Email {
	e := email.NewEmail()
	e.From = s.cfg.From
	e.To = []string{statement.ContactEmail}
	e.Subject = Subject(statement)
	e.Text = []byte(Body(statement, s.currency))
	return e
}

// Subject returns the reminder subject line for a statement
func Subject(statement *domain.FeeStatement) string {
	if statement.Status == domain.StatementStatusOverdue {
		return fmt.Sprintf("Overdue school fees: statement %s", statement.StatementNumber)
	}
	return fmt.Sprintf("School fees reminder: statement %s", statement.StatementNumber)
}

// Body renders the plain-text reminder for a statement
func Body(statement *domain.FeeStatement, currency string) string {
	var b strings.Builder

	b.WriteString("Dear Parent/Guardian,\n\n")
	if statement.Status == domain.StatementStatusOverdue {
		fmt.Fprintf(&b,
			"Fee statement %s for student %s was due on %s and is now overdue.\n",
			statement.StatementNumber, statement.StudentID, statement.DueDate.Format("2006-01-02"))
	} else {
		fmt.Fprintf(&b,
			"This is a reminder that fee statement %s for student %s is due on %s.\n",
			statement.StatementNumber, statement.StudentID, statement.DueDate.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "Total billed: %s\n", utils.FormatMoney(statement.TotalAmount, currency))
	fmt.Fprintf(&b, "Amount paid: %s\n", utils.FormatMoney(statement.PaidAmount, currency))
	fmt.Fprintf(&b, "Outstanding balance: %s\n", utils.FormatMoney(statement.Balance, currency))
	b.WriteString("\nPlease quote the statement number with your payment.\n")
	b.WriteString("\nBest regards,\nBursar's Office")

	return b.String()
}
