package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"
)

const (
	AttendanceStreamName = "ATTENDANCE"
	CheckInSubjectBase   = "attendance.checkin.verified"
)

// Producer publishes attendance events to NATS JetStream.
type Producer struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *zap.Logger
}

func NewProducer(natsURL string, logger *zap.Logger) (*Producer, error) {
	nc, err := nats.Connect(natsURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	return &Producer{nc: nc, js: js, logger: logger.Named("queue")}, nil
}

// EnsureStream creates the attendance stream if it doesn't exist.
func (p *Producer) EnsureStream(ctx context.Context) error {
	cfg := jetstream.StreamConfig{
		Name:        AttendanceStreamName,
		Subjects:    []string{CheckInSubjectBase + ".>"},
		Retention:   jetstream.InterestPolicy,
		MaxAge:      7 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Duplicates:  2 * time.Minute,
		Description: "Confirmed face check-ins awaiting attendance bookkeeping",
	}

	opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := p.js.CreateOrUpdateStream(opCtx, cfg); err != nil {
		return fmt.Errorf("create stream %s: %w", cfg.Name, err)
	}
	p.logger.Info("ensured NATS stream", zap.String("name", cfg.Name))
	return nil
}

// CheckInSubject is the subject confirmed check-ins of userID are published on.
func CheckInSubject(userID string) string {
	return fmt.Sprintf("%s.%s", CheckInSubjectBase, userID)
}

// PublishCheckIn publishes a confirmed check-in. It is published once; a failure is
// returned to the caller.
func (p *Producer) PublishCheckIn(ctx context.Context, userID string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal check-in event: %w", err)
	}

	if _, err := p.js.Publish(ctx, CheckInSubject(userID), payload); err != nil {
		return fmt.Errorf("publish check-in event: %w", err)
	}
	return nil
}

func (p *Producer) Ping() error {
	if !p.nc.IsConnected() {
		return fmt.Errorf("nats not connected")
	}
	return nil
}

func (p *Producer) Close() {
	p.nc.Close()
}
