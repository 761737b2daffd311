package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"roomly/internal/domain"
)

const TypeBookingCreated = "booking.created"

type BookingCreated struct {
	EventID    string    `json:"event_id"`
	BookingID  string    `json:"booking_id"`
	RoomID     string    `json:"room_id"`
	ResidentID string    `json:"resident_id"`
	Resident   string    `json:"resident,omitempty"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	CreatedAt  time.Time `json:"created_at"`
}

type Publisher interface {
	BookingCreated(ctx context.Context, booking domain.Booking) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	w messageWriter
}

// NewKafkaPublisher returns Noop when no brokers are configured.
func NewKafkaPublisher(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		return Noop{}
	}
	return &KafkaPublisher{w: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}}
}

func (p *KafkaPublisher) BookingCreated(ctx context.Context, booking domain.Booking) error {
	msg, err := bookingCreatedMessage(ctx, booking)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

func bookingCreatedMessage(ctx context.Context, booking domain.Booking) (kafka.Message, error) {
	eventID, err := uuid.NewV7()
	if err != nil {
		return kafka.Message{}, err
	}
	ev := BookingCreated{
		EventID:    eventID.String(),
		BookingID:  booking.ID.String(),
		RoomID:     booking.RoomID.String(),
		ResidentID: booking.ResidentID.String(),
		Start:      booking.StartTime.UTC(),
		End:        booking.EndTime.UTC(),
		CreatedAt:  booking.CreatedAt.UTC(),
	}
	if booking.Resident != nil {
		ev.Resident = booking.Resident.Name
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, err
	}

	msg := kafka.Message{
		Key:   []byte(ev.RoomID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(ev.EventID)},
			{Key: "event_type", Value: []byte(TypeBookingCreated)},
		},
	}
	msg.Headers = injectTraceHeaders(ctx, msg.Headers)
	return msg, nil
}

// Noop drops every event.
type Noop struct{}

func (Noop) BookingCreated(context.Context, domain.Booking) error { return nil }
func (Noop) Close() error                                       { return nil }

func injectTraceHeaders(ctx context.Context, headers []kafka.Header) []kafka.Header {
	carrier := &headerCarrier{headers: headers}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier.headers
}

type headerCarrier struct {
	headers []kafka.Header
}

func (c *headerCarrier) Get(key string) string {
	for _, h := range c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.headers))
	for _, h := range c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}

func (c *headerCarrier) Set(key string, value string) {
	for i := range c.headers {
		if c.headers[i].Key == key {
			c.headers[i].Value = []byte(value)
			return
		}
	}
	c.headers = append(c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

var _ propagation.TextMapCarrier = (*headerCarrier)(nil)
