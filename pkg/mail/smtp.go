package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"krib-booking/pkg/utils"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// SMTPMailer sends HTML mail through a plain SMTP relay
type SMTPMailer struct {
	addr   string
	from   string
	auth   smtp.Auth
	sendFn func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(config utils.EmailConfig) *SMTPMailer {
	var auth smtp.Auth
	if config.User != "" && config.Password != "" {
		auth = smtp.PlainAuth("", config.User, config.Password, config.Host)
	}

	from := config.From
	if from == "" {
		from = "no-reply@localhost"
	}

	return &SMTPMailer{
		addr:   fmt.Sprintf("%s:%d", config.Host, config.Port),
		from:   from,
		auth:   auth,
		sendFn: smtp.SendMail,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := m.sendFn(m.addr, m.auth, m.from, []string{msg.To}, m.render(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

func (m *SMTPMailer) render(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\nTo: %s\r\nSubject: %s\r\n", m.from, msg.To, msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}
