package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Veraticus/customs-ai/internal/model"
)

// NATSPublisher publishes snapshots as JSON to a subject.
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
	owned   bool
}

// NewNATSPublisher wraps an existing connection.
func NewNATSPublisher(nc *nats.Conn, subject string) *NATSPublisher {
	return &NATSPublisher{nc: nc, subject: subject}
}

// ConnectNATS dials url and returns a publisher that owns the connection.
func ConnectNATS(url, subject string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("customs-monitor"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{nc: nc, subject: subject, owned: true}, nil
}

const flushTimeout = 5 * time.Second

// Publish sends snap and flushes the connection.
func (p *NATSPublisher) Publish(ctx context.Context, snap *model.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.subject, err)
	}
	return p.nc.FlushTimeout(flushTimeout)
}

// Close drains the connection if the publisher opened it.
func (p *NATSPublisher) Close() error {
	if !p.owned {
		return nil
	}
	return p.nc.Drain()
}
