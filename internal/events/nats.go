package events

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSSinkConfig holds configuration for the NATS event sink.
type NATSSinkConfig struct {
	// URL is the NATS server address, e.g. nats://localhost:4222.
	URL string

	// SubjectPrefix prefixes published subjects.
	// Default: "decisiond.events"
	SubjectPrefix string
}

// ApplyDefaults sets default values for unset fields.
func (c *NATSSinkConfig) ApplyDefaults() {
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = "decisiond.events"
	}
}

// NATSSink republishes bus events to NATS as JSON messages on
// <prefix>.<type> subjects (colons in the type mapped to dots).
//
// The sink is strictly optional: a publish failure is logged and the
// event dropped, never surfaced to the decision path.
type NATSSink struct {
	conn   *nats.Conn
	config NATSSinkConfig
	logger *zap.Logger
	busID  int
	done   chan struct{}
}

// natsEvent is the wire shape of a published event.
type natsEvent struct {
	Type string         `json:"type"`
	At   time.Time      `json:"at"`
	Data map[string]any `json:"data,omitempty"`
}

// NewNATSSink connects to NATS and starts forwarding all events from
// the bus. Close releases the subscription and connection.
func NewNATSSink(bus *Bus, config NATSSinkConfig, logger *zap.Logger) (*NATSSink, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	config.ApplyDefaults()
	if config.URL == "" {
		return nil, fmt.Errorf("nats sink: URL required")
	}

	conn, err := nats.Connect(config.URL,
		nats.Name("decisiond-events"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS %s: %w", config.URL, err)
	}

	id, ch := bus.Subscribe()
	s := &NATSSink{
		conn:   conn,
		config: config,
		logger: logger,
		busID:  id,
		done:   make(chan struct{}),
	}
	go s.forward(ch)
	return s, nil
}

func (s *NATSSink) forward(ch <-chan Event) {
	defer close(s.done)
	for ev := range ch {
		payload, err := json.Marshal(natsEvent{
			Type: string(ev.Type),
			At:   ev.At,
			Data: ev.Data,
		})
		if err != nil {
			s.logger.Warn("failed to marshal event", zap.String("type", string(ev.Type)), zap.Error(err))
			continue
		}
		subject := s.config.SubjectPrefix + "." + strings.ReplaceAll(string(ev.Type), ":", ".")
		if err := s.conn.Publish(subject, payload); err != nil {
			s.logger.Warn("failed to publish event", zap.String("subject", subject), zap.Error(err))
		}
	}
}

// Close detaches the sink from the bus and drains the connection.
func (s *NATSSink) Close(bus *Bus) {
	bus.Unsubscribe(s.busID)
	<-s.done
	if err := s.conn.Drain(); err != nil {
		s.logger.Warn("failed to drain NATS connection", zap.Error(err))
	}
}
