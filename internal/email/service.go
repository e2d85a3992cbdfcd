package email

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/saudemente/clinic-api/internal/config"
)

// Notifier sends the operational notices the clinic staff act on. When
// email is disabled in config every send becomes a no-op, so callers
// never have to branch.
type Notifier interface {
	SendAuthorizationPending(to, patientName, code string) error
	SendReportReleased(to, patientName string) error
	SendPayoutsMarkedPaid(to, doctorName, month string) error
}

type Service struct {
	cfg    config.EmailConfig
	dialer *gomail.Dialer
}

func NewService(cfg config.EmailConfig) *Service {
	return &Service{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (s *Service) SendAuthorizationPending(to, patientName, code string) error {
	subject := fmt.Sprintf("Authorization %s awaiting approval", code)
	body := fmt.Sprintf(
		"A new authorization (code %s) for patient %s was registered and is awaiting approval.",
		code, patientName,
	)
	return s.send(to, subject, body)
}

func (s *Service) SendReportReleased(to, patientName string) error {
	subject := fmt.Sprintf("Report released for %s", patientName)
	body := fmt.Sprintf(
		"The evaluation report for patient %s has been released for delivery.",
		patientName,
	)
	return s.send(to, subject, body)
}

func (s *Service) SendPayoutsMarkedPaid(to, doctorName, month string) error {
	subject := fmt.Sprintf("Payouts for %s marked as paid", month)
	body := fmt.Sprintf(
		"The calculated payouts for %s covering %s were marked as paid.",
		doctorName, month,
	)
	return s.send(to, subject, body)
}

func (s *Service) send(to, subject, body string) error {
	if !s.cfg.Enabled {
		log.Debug().Str("to", to).Str("subject", subject).Msg("email disabled, skipping send")
		return nil
	}
	if to == "" {
		to = s.cfg.AdminEmail
	}
	if to == "" {
		return fmt.Errorf("no recipient configured")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
