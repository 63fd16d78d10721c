package utils

import (
	"bytes"
	"errors"
	"fmt"
	"net/smtp"
	"sort"
	"strings"
)

var ErrEmailNotConfigured = errors.New("email configuration not set")

type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
	FromName string
}

// Mailer sends HTML email over SMTP with PLAIN auth.
type Mailer struct {
	cfg      SMTPConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(cfg SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg, sendMail: smtp.SendMail}
}

func (m *Mailer) Configured() bool {
	return m.cfg.Host != "" && m.cfg.Port != "" && m.cfg.From != ""
}

func (m *Mailer) Send(to []string, subject, body string) error {
	if !m.Configured() {
		return ErrEmailNotConfigured
	}
	if len(to) == 0 {
		return errors.New("no recipients")
	}

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}

	msg := buildMessage(m.cfg.FromName, m.cfg.From, to, subject, body)
	if err := m.sendMail(m.cfg.Host+":"+m.cfg.Port, auth, m.cfg.From, to, msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func buildMessage(fromName, from string, to []string, subject, body string) []byte {
	headers := map[string]string{
		"From":         fmt.Sprintf("%s <%s>", fromName, from),
		"To":           strings.Join(to, ","),
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=UTF-8",
		"X-Mailer":     "Rosetta-Mailer",
	}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, k := range keys {
		fmt.Fprintf(&buf, "%s: %s\r\n", k, headers[k])
	}
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.Bytes()
}
