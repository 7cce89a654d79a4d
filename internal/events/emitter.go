package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/r0zar/innkeeper/internal/core/domain"
)

// Config holds NATS connection configuration.
type Config struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// ValidationEvent is published after every finalized validation run.
type ValidationEvent struct {
	QuestID      string                  `json:"quest_id"`
	ValidationID string                  `json:"validation_id"`
	Status       domain.ValidationStatus `json:"status"`
	CriteriaType domain.CriteriaType     `json:"criteria_type"`
	AddressCount int                     `json:"address_count"`
	Timestamp    int64                   `json:"timestamp"`
}

// Emitter publishes validation outcomes. Emission is best effort: a failed
// emit never fails the validation that produced it.
type Emitter interface {
	EmitValidation(event ValidationEvent) error
	Close() error
}

// NATSEmitter publishes validation events to a NATS subject.
type NATSEmitter struct {
	conn          *nats.Conn
	subjectPrefix string
}

// NewNATSEmitter connects to NATS.
func NewNATSEmitter(cfg Config) (*NATSEmitter, error) {
	conn, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = "innkeeper"
	}
	return &NATSEmitter{conn: conn, subjectPrefix: prefix}, nil
}

func (e *NATSEmitter) EmitValidation(event ValidationEvent) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("%s.validations.%s", e.subjectPrefix, event.Status)
	return e.conn.Publish(subject, data)
}

func (e *NATSEmitter) Close() error {
	if e.conn != nil {
		e.conn.Close()
	}
	return nil
}

// LogEmitter writes validation events to the log. Used when NATS is not
// configured.
type LogEmitter struct{}

func (e *LogEmitter) EmitValidation(event ValidationEvent) error {
	slog.Info("validation finished",
		"quest_id", event.QuestID,
		"validation_id", event.ValidationID,
		"status", event.Status,
		"addresses", event.AddressCount,
	)
	return nil
}

func (e *LogEmitter) Close() error { return nil }
