package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/psds-microservice/helpdesk-service/internal/model"
)

// TicketEventProducer sends ticket lifecycle events; tests substitute a fake.
type TicketEventProducer interface {
	ProduceTicketEvent(ctx context.Context, event string, payload map[string]interface{})
}

// Producer writes ticket events to a Kafka topic (best-effort, never blocks the API).
type Producer struct {
	writer *kafka.Writer
	topic  string
	log    *slog.Logger
}

// NewProducer creates a producer. With no brokers or topic every method is a no-op.
func NewProducer(brokers []string, topic string, log *slog.Logger) *Producer {
	if log == nil {
		log = slog.Default()
	}
	if len(brokers) == 0 || topic == "" {
		return &Producer{log: log}
	}
	return &Producer{
		topic: topic,
		log:   log,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Enabled reports whether events are actually sent.
func (p *Producer) Enabled() bool {
	return p.writer != nil
}

// TicketPayload is the event body for t.
func TicketPayload(t *model.Ticket) map[string]interface{} {
	if t == nil {
		return nil
	}
	payload := map[string]interface{}{
		"ticket_id": t.ID.String(),
		"email":     t.Email,
		"subject":   t.Subject,
		"category":  string(t.Category),
		"status":    string(t.Status),
	}
	if t.AdminNotes != nil {
		payload["admin_notes"] = *t.AdminNotes
	}
	return payload
}

// ProduceTicketEvent writes {"event": event, ...payload} keyed by ticket id.
func (p *Producer) ProduceTicketEvent(ctx context.Context, event string, payload map[string]interface{}) {
	if p.writer == nil {
		return
	}
	msg := map[string]interface{}{"event": event}
	for k, v := range payload {
		msg[k] = v
	}
	body, err := json.Marshal(msg)
	if err != nil {
		p.log.Error("kafka: marshal ticket event", "event", event, "err", err)
		return
	}
	key, _ := payload["ticket_id"].(string)
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: body}); err != nil {
		p.log.Error("kafka: write ticket event", "event", event, "err", err)
	}
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// ParseBrokers splits "host1:9092,host2:9092" into a slice.
func ParseBrokers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
