// Package transport implements the email delivery Send(notification)
// (spec.md §4.7) depends on. No example in the pack wires a third-party
// mail SDK (other_examples' sendgrid_client.go never actually imports one,
// it only sketches the call shape in comments), so this sits on stdlib
// net/smtp, with a deterministic mock mode for environments without a real
// SMTP relay configured — mirroring the teacher's fakePaymentOutcome style
// of making an external dependency's outcome reproducible.
package transport

import (
	"crypto/sha256"
	"fmt"
	"net/smtp"
)

type Email struct {
	To      string
	Subject string
	Body    string
}

// Transport sends one email, returning an error on delivery failure.
type Transport interface {
	Send(email Email) error
}

// SMTP delivers via a real SMTP relay.
type SMTP struct {
	Addr string
	Auth smtp.Auth
	From string
}

func NewSMTP(addr, from, username, password, host string) *SMTP {
	return &SMTP{Addr: addr, From: from, Auth: smtp.PlainAuth("", username, password, host)}
}

func (t *SMTP) Send(email Email) error {
	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\n\r\n%s\r\n", email.To, email.Subject, email.Body))
	return smtp.SendMail(t.Addr, t.Auth, t.From, []string{email.To}, msg)
}

// Mock deterministically succeeds or fails based on a hash of the
// recipient address and subject, for environments with no SMTP relay configured
// (local development, tests). Roughly 9 in 10 deliveries succeed.
type Mock struct{}

func (Mock) Send(email Email) error {
	sum := sha256.Sum256([]byte(email.To + email.Subject))
	if sum[0] < 230 {
		return nil
	}
	return fmt.Errorf("transport: mock delivery failure for %s", email.To)
}
