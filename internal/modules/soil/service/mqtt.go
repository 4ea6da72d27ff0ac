package service

import (
	"context"
	"errors"

	"soilmon/internal/modules/soil/types"
)

// MessageSubscriber is the part of the MQTT subscriber the soil module needs.
type MessageSubscriber interface {
	SetMessageHandler(handler func(topic string, payload []byte) error)
}

// Register attaches the ingest pipeline to sub.
func (s *Service) Register(sub MessageSubscriber) {
	s.registerMQTTHandler(sub)
}

// registerMQTTHandler drops bad readings with a warning. Only write failures
// are returned, so the subscriber logs them as errors.
func (s *Service) registerMQTTHandler(sub MessageSubscriber) {
	sub.SetMessageHandler(func(topic string, payload []byte) error {
		written, err := s.Ingest(context.Background(), payload)

		var verr *types.ValidationError
		if errors.As(err, &verr) {
			s.logger.Warn("invalid soil reading",
				"topic", topic,
				"missing", verr.Missing,
				"invalid", verr.Invalid,
				"error", err,
			)
			return nil
		}
		if err != nil {
			return err
		}

		if written {
			s.logger.Debug("stored soil reading", "topic", topic)
		}
		return nil
	})
}
