package email

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer delivers plain-text mail over SMTP. The sender address comes
// from configuration so notification mail is always attributable.
type Mailer struct {
	from string
	addr string
	auth smtp.Auth
}

func New(address string, password string, host string, port int, from string) *Mailer {
	var auth smtp.Auth
	if address != "" {
		auth = smtp.PlainAuth("", address, password, host)
	}

	return &Mailer{
		from: from,
		addr: fmt.Sprintf("%s:%d", host, port),
		auth: auth,
	}
}

func (m *Mailer) Send(to string, subject string, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}
