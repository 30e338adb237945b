package alert

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/agendalink/gateway/internal/config"
	"github.com/agendalink/gateway/internal/model"
	"github.com/agendalink/gateway/pkg/logger"
)

// Mailer emails operators when a dual-mode write lands on the primary
// but fails to sync to the secondary. Sending is asynchronous and best
// effort; the booking already succeeded by the time an alert goes out.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	to     []string
	log    *logger.Logger
}

func NewMailer(cfg config.EmailConfig, log *logger.Logger) *Mailer {
	if cfg.Host == "" || len(cfg.AlertsTo) == 0 {
		return nil
	}
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		to:     cfg.AlertsTo,
		log:    log.WithComponent("alert"),
	}
}

func (m *Mailer) NotifyPartialSync(client *model.Client, integrationType model.IntegrationType, operation string, cause error) {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.to...)
	msg.SetHeader("Subject", fmt.Sprintf("[gateway] partial sync failure for %s", client.Name))
	msg.SetBody("text/plain", fmt.Sprintf(
		"Client: %s (%s)\nIntegration: %s\nOperation: %s\nError: %v\n\n"+
			"The primary booking succeeded; the secondary copy needs manual review.",
		client.Name, client.ID, integrationType, operation, cause,
	))

	go func() {
		if err := m.dialer.DialAndSend(msg); err != nil {
			m.log.Error(err, "could not send partial sync alert",
				"client_id", client.ID.String(),
				"integration", string(integrationType),
			)
		}
	}()
}
