package mqtt

import (
	"fmt"
	"log/slog"
	"time"

	"soilmon/internal/config"
)

// Publisher sends raw payloads to the configured topic. It is what a field
// gateway does, and is used by the simulate command.
type Publisher struct {
	*conn
}

// NewPublisher uses cfg.MQTTClientID with a "-pub" suffix so it can share a
// broker with a Subscriber built from the same config.
func NewPublisher(cfg config.Config, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: newConn(cfg, cfg.MQTTClientID+"-pub", logger, nil)}
}

// Publish sends payload with QoS 1 and waits for the broker to acknowledge.
func (p *Publisher) Publish(payload []byte) error {
	if !p.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	topic := p.cfg.MQTTTopic
	token := p.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		p.logger.Error("failed to publish", "topic", topic, "error", err)
		return fmt.Errorf("publish: %w", err)
	}

	p.logger.Debug("published", "topic", topic, "size", len(payload))
	return nil
}

// Disconnect closes the connection. Idempotent; afterwards Connect returns
// ErrStopped.
func (p *Publisher) Disconnect() {
	if !p.stop() {
		return
	}
	p.client.Disconnect(250)
	p.setConnected(false)
	p.logger.Info("mqtt publisher disconnected")
}
