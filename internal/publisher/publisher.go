// Package publisher emits settlement events for downstream consumers.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/yourusername/race-reconciler/internal/config"
	"github.com/yourusername/race-reconciler/internal/settlement"
)

// EventSettled is the type of event published when a bet is settled
const EventSettled = "bet.settled"

// SettledEvent describes one settlement decision
type SettledEvent struct {
	Type             string    `json:"type"`
	RunID            string    `json:"run_id"`
	BetID            string    `json:"bet_id"`
	Status           string    `json:"status"`
	Returns          float64   `json:"returns"`
	ProfitLoss       float64   `json:"profit_loss"`
	SPIndustry       *float64  `json:"sp_industry,omitempty"`
	OvrBtn           *float64  `json:"ovr_btn,omitempty"`
	ClosingLineValue *float64  `json:"closing_line_value,omitempty"`
	CLVStake         *float64  `json:"clv_stake,omitempty"`
	FinPos           string    `json:"fin_pos"`
	DeclaredLegs     int       `json:"declared_legs"`
	ResolvedLegs     int       `json:"resolved_legs"`
	DryRun           bool      `json:"dry_run"`
	SettledAt        time.Time `json:"settled_at"`
}

// NewSettledEvent builds the event for s
func NewSettledEvent(runID string, s *settlement.Settlement, dryRun bool, at time.Time) SettledEvent {
	return SettledEvent{
		Type:             EventSettled,
		RunID:            runID,
		BetID:            s.BetID,
		Status:           string(s.Status),
		Returns:          s.Returns,
		ProfitLoss:       s.ProfitLoss,
		SPIndustry:       s.SPIndustry,
		OvrBtn:           s.OvrBtn,
		ClosingLineValue: s.ClosingLineValue,
		CLVStake:         s.CLVStake,
		FinPos:           s.FinPos,
		DeclaredLegs:     s.DeclaredLegs,
		ResolvedLegs:     s.ResolvedLegs,
		DryRun:           dryRun,
		SettledAt:        at.UTC(),
	}
}

// Publisher sends settlement events
type Publisher interface {
	PublishSettled(ctx context.Context, event SettledEvent) error
	Close() error
}

// messageWriter is the subset of *kafka.Writer used here
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes settlement events to a Kafka topic keyed by bet id
type KafkaPublisher struct {
	writer messageWriter
}

// NewWriter creates a Kafka writer for topic
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 100 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
}

// NewKafkaPublisher creates a publisher over brokers and topic
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no brokers configured")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	return &KafkaPublisher{writer: NewWriter(brokers, topic)}, nil
}

// New returns a Kafka publisher when events are enabled and a no-op publisher otherwise
func New(cfg config.EventsConfig) (Publisher, error) {
	if !cfg.Enabled {
		return Noop{}, nil
	}
	return NewKafkaPublisher(cfg.Brokers, cfg.Topic)
}

// PublishSettled writes event to the topic
func (p *KafkaPublisher) PublishSettled(ctx context.Context, event SettledEvent) error {
	if p == nil || p.writer == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal settled event %s: %w", event.BetID, err)
	}
	msg := kafka.Message{
		Key:   []byte(event.BetID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish settled event %s: %w", event.BetID, err)
	}
	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// Noop discards every event
type Noop struct{}

func (Noop) PublishSettled(context.Context, SettledEvent) error { return nil }
func (Noop) Close() error                                       { return nil }
