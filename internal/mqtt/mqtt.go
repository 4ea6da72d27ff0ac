package mqtt

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"soilmon/internal/config"
	"soilmon/internal/metrics"
)

// MessageHandler receives every payload published on the subscribed topic.
// A returned error is logged; the message is not redelivered.
type MessageHandler func(topic string, payload []byte) error

type Subscriber struct {
	*conn

	handlerMu sync.RWMutex
	handler   MessageHandler
}

// SetMessageHandler replaces the handler. Safe to call before or after Connect.
func (s *Subscriber) SetMessageHandler(handler func(topic string, payload []byte) error) {
	s.handlerMu.Lock()
	s.handler = handler
	s.handlerMu.Unlock()
}

func NewSubscriber(cfg config.Config, logger *slog.Logger, m *metrics.Metrics) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Subscriber{}
	// A clean session drops subscriptions, so resubscribe on every connect.
	s.conn = newConn(cfg, cfg.MQTTClientID, logger, func() {
		if err := s.subscribe(); err != nil {
			logger.Error("mqtt subscribe failed", "topic", cfg.MQTTTopic, "error", err)
		}
	})
	s.onState = m.SetMQTTConnected
	return s
}

func (s *Subscriber) subscribe() error {
	topic := s.cfg.MQTTTopic
	qos := byte(1)

	token := s.client.Subscribe(topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		s.handleMessage(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	s.logger.Info("subscribed to mqtt topic", "topic", topic, "qos", qos)
	return nil
}

func (s *Subscriber) handleMessage(topic string, payload []byte) {
	s.logger.Debug("received mqtt message", "topic", topic, "size", len(payload))

	s.handlerMu.RLock()
	handler := s.handler
	s.handlerMu.RUnlock()

	if handler == nil {
		s.logger.Warn("no handler for mqtt message", "topic", topic)
		return
	}
	if err := handler(topic, payload); err != nil {
		s.logger.Error("message handler failed",
			"topic", topic,
			"error", err,
		)
	}
}

// Disconnect stops the subscriber and closes the MQTT connection.
// Idempotent and safe to call multiple times.
func (s *Subscriber) Disconnect() {
	if !s.stop() {
		return
	}

	if s.IsConnected() {
		token := s.client.Unsubscribe(s.cfg.MQTTTopic)
		token.WaitTimeout(2 * time.Second)
	}

	// Disconnect without holding s.mu to avoid lock contention/deadlocks.
	s.client.Disconnect(250)

	s.setConnected(false)
	s.logger.Info("mqtt subscriber disconnected")
}
