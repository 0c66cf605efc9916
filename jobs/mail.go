package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/rentdesk/rentdesk/internal/jobs"
)

// Mailer delivers a plain text message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends mail through an unauthenticated SMTP relay such as Mailpit.
type SMTPMailer struct {
	Addr string
	From string
}

// NewSMTPMailer builds a mailer for host:port.
func NewSMTPMailer(host string, port int, from string) *SMTPMailer {
	return &SMTPMailer{Addr: net.JoinHostPort(host, strconv.Itoa(port)), From: from}
}

// Send implements Mailer.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if m == nil || m.Addr == "" {
		return errors.New("smtp mailer: not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := strings.Join([]string{
		"From: " + m.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}, "\r\n")
	return smtp.SendMail(m.Addr, nil, m.From, []string{to}, []byte(msg))
}

// ActivationMailJob sends the activation link to a freshly registered user.
type ActivationMailJob struct {
	Mailer  Mailer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewActivationMailJob initialises the activation mail handler.
func NewActivationMailJob(mailer Mailer, logger *slog.Logger, metrics *jobmetrics.Metrics) *ActivationMailJob {
	return &ActivationMailJob{Mailer: mailer, Logger: logger, Metrics: metrics}
}

// Handle processes TaskTypeActivationMail tasks.
func (j *ActivationMailJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Mailer == nil {
		return errors.New("activation mail: handler not configured")
	}
	var payload ActivationMailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("activation mail: decode payload: %w", asynq.SkipRetry)
	}
	if payload.Email == "" || payload.Link == "" {
		return fmt.Errorf("activation mail: incomplete payload: %w", asynq.SkipRetry)
	}

	tracker := j.Metrics.Track(TaskTypeActivationMail)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("user_id", payload.UserID))
	if !payload.ExpiresAt.IsZero() && time.Now().After(payload.ExpiresAt) {
		logger.Warn("activation token expired before delivery")
		return nil
	}
	if err := j.Mailer.Send(ctx, payload.Email, activationSubject, activationBody(payload)); err != nil {
		logger.Error("send activation mail", slog.Any("error", err))
		return err
	}
	logger.Info("activation mail sent")
	return nil
}

func (j *ActivationMailJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeActivationMail))
	}
	return slog.Default().With(slog.String("job", TaskTypeActivationMail))
}

const activationSubject = "Activate your RentDesk account"

func activationBody(p ActivationMailPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", p.Username)
	b.WriteString("Use the link below to activate your account:\n\n")
	b.WriteString(p.Link + "\n\n")
	if !p.ExpiresAt.IsZero() {
		fmt.Fprintf(&b, "The link is valid until %s.\n", p.ExpiresAt.UTC().Format(time.RFC1123))
	}
	return b.String()
}
