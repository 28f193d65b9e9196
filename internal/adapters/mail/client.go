/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package mail

import (
    "context"
    "fmt"

    "github.com/HamedShams/advisory-pulse/internal/config"
    "github.com/rs/zerolog"
    gomail "github.com/wneessen/go-mail"
)

// Client sends plain-text mail over SMTP with STARTTLS. One call carries
// the whole batch to every recipient; any recipient failing fails the call,
// so the run treats the batch as unsent and retries next time.
type Client struct {
    host string
    port int
    user string
    pass string
    to   []string
    log  zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
    return &Client{
        host: cfg.SMTPHost,
        port: cfg.SMTPPort,
        user: cfg.SMTPUsername,
        pass: cfg.SMTPPassword,
        to:   cfg.EmailRecipients,
        log:  log,
    }
}

func (c *Client) Send(ctx context.Context, subject, body string) error {
    if c.host == "" || c.user == "" { return fmt.Errorf("mail: missing smtp host or username") }
    if len(c.to) == 0 { return fmt.Errorf("mail: no recipients configured") }

    m := gomail.NewMsg()
    if err := m.From(c.user); err != nil { return fmt.Errorf("mail: from %q: %w", c.user, err) }
    if err := m.To(c.to...); err != nil { return fmt.Errorf("mail: to %v: %w", c.to, err) }
    m.Subject(subject)
    m.SetBodyString(gomail.TypeTextPlain, body)

    cl, err := gomail.NewClient(c.host,
        gomail.WithPort(c.port),
        gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
        gomail.WithUsername(c.user),
        gomail.WithPassword(c.pass),
        gomail.WithTLSPolicy(gomail.TLSMandatory),
    )
    if err != nil { return fmt.Errorf("mail: client: %w", err) }
    if err := cl.DialAndSendWithContext(ctx, m); err != nil {
        return fmt.Errorf("mail: send: %w", err)
    }
    c.log.Info().Int("recipients", len(c.to)).Str("subject", subject).Msg("email sent")
    return nil
}
