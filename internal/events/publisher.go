package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	SubjectNotificationPrefix = "notifications."
	SubjectModeration         = "moderation.actions"
	SubjectBookingStatus      = "bookings.status"
)

// NotificationSubject returns the subject a notification of the given type is published on
func NotificationSubject(notificationType string) string {
	return SubjectNotificationPrefix + notificationType
}

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close()
}

type NATSPublisher struct {
	conn *nats.Conn
	log  *zap.Logger
}

func NewNATSPublisher(url string, log *zap.Logger) (*NATSPublisher, error) {
	log = log.Named("nats")
	opts := []nats.Option{
		nats.Name("elocation-api"),
		nats.Timeout(10 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info("nats connection closed")
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	log.Info("connected to nats", zap.String("url", conn.ConnectedUrl()))
	return &NATSPublisher{conn: conn, log: log}, nil
}

func (p *NATSPublisher) Publish(_ context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event for %s: %w", subject, err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = payload
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	p.log.Debug("event published", zap.String("subject", subject), zap.Int("bytes", len(payload)))
	return nil
}

// Close drains pending messages before closing the connection
func (p *NATSPublisher) Close() {
	if p.conn == nil || p.conn.IsClosed() {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.log.Error("failed to drain nats connection", zap.Error(err))
		p.conn.Close()
	}
}

// NopPublisher discards events when NATS_URL is unset
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }
func (NopPublisher) Close()                                             {}
