package sender

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type SendResult struct {
	MessageID string
	SentAt    time.Time
}

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) (SendResult, error)
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, msg string) (SendResult, error)
}

// LogSender stands in for an unconfigured channel and only records that a
// message would have been sent.
type LogSender struct {
	Logger *zap.Logger
}

func (l LogSender) SendEmail(_ context.Context, to, subject, _ string) (SendResult, error) {
	l.Logger.Info("Email channel not configured, message dropped", zap.String("to", to), zap.String("subject", subject))
	return SendResult{MessageID: "log", SentAt: time.Now()}, nil
}

func (l LogSender) SendSMS(_ context.Context, to, _ string) (SendResult, error) {
	l.Logger.Info("SMS channel not configured, message dropped", zap.String("to", to))
	return SendResult{MessageID: "log", SentAt: time.Now()}, nil
}
