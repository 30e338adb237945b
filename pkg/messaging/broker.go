package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// LogEvent is the request-log record fanned out to external sinks. The
// sink is append-only; nothing downstream feeds back into dispatch.
type LogEvent struct {
	ClientID    string `json:"client_id"`
	Integration string `json:"integration,omitempty"`
	Operation   string `json:"operation"`
	Status      int    `json:"status"`
	DurationMs  int64  `json:"duration_ms"`
	Success     bool   `json:"success"`
	ErrorKind   string `json:"error_kind,omitempty"`
}

// LogChannel is the channel request-log events are published on.
const LogChannel = "gateway.request_logs"
