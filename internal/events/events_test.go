package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"roomly/internal/domain"
)

type fakeWriter struct {
	writeFn func(ctx context.Context, msgs ...kafka.Message) error
	closed  bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.writeFn == nil {
		panic("WriteMessages not configured")
	}
	return f.writeFn(ctx, msgs...)
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func header(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestNewKafkaPublisher_NoBrokersIsNoop(t *testing.T) {
	p := NewKafkaPublisher(nil, "topic")
	if _, ok := p.(Noop); !ok {
		t.Fatalf("publisher = %T, want Noop", p)
	}
	if err := p.BookingCreated(context.Background(), domain.Booking{}); err != nil {
		t.Fatalf("Noop error: %v", err)
	}
}

func TestKafkaPublisher_BookingCreated(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "book")
	defer span.End()

	start := time.Date(2026, time.May, 4, 9, 0, 0, 0, time.UTC)
	booking := domain.Booking{
		ID:         uuid.New(),
		RoomID:     uuid.New(),
		ResidentID: uuid.New(),
		StartTime:  start,
		EndTime:    start.Add(time.Hour),
		CreatedAt:  start.Add(-time.Hour),
		Resident:   &domain.Resident{Name: "Anvar"},
	}

	var got []kafka.Message
	w := &fakeWriter{writeFn: func(ctx context.Context, msgs ...kafka.Message) error {
		got = append(got, msgs...)
		return nil
	}}
	p := &KafkaPublisher{w: w}

	if err := p.BookingCreated(ctx, booking); err != nil {
		t.Fatalf("BookingCreated error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("messages = %d, want 1", len(got))
	}
	msg := got[0]
	if string(msg.Key) != booking.RoomID.String() {
		t.Fatalf("key = %s, want room id", msg.Key)
	}
	if header(msg.Headers, "event_type") != TypeBookingCreated {
		t.Fatalf("event_type = %q", header(msg.Headers, "event_type"))
	}
	if header(msg.Headers, "event_id") == "" || header(msg.Headers, "traceparent") == "" {
		t.Fatalf("missing headers: %v", msg.Headers)
	}

	var ev BookingCreated
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		t.Fatalf("payload error: %v", err)
	}
	if ev.BookingID != booking.ID.String() || ev.Resident != "Anvar" || !ev.Start.Equal(start) {
		t.Fatalf("payload = %+v", ev)
	}
	if ev.EventID != header(msg.Headers, "event_id") {
		t.Fatalf("event id mismatch: %s vs %s", ev.EventID, header(msg.Headers, "event_id"))
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Fatalf("Close = %v, closed = %v", err, w.closed)
	}
}

func TestKafkaPublisher_PropagatesWriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := &KafkaPublisher{w: &fakeWriter{writeFn: func(context.Context, ...kafka.Message) error { return boom }}}
	if err := p.BookingCreated(context.Background(), domain.Booking{ID: uuid.New()}); !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
}
