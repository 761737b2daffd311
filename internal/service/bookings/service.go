package bookings

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"roomly/internal/domain"
	"roomly/internal/scheduling"
	"roomly/internal/store"
	"roomly/internal/telemetry"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// RejectedError reports a booking refused by a business rule. It is an
// expected outcome, not a fault.
type RejectedError struct {
	Reason scheduling.Reason
}

func (e *RejectedError) Error() string {
	return "booking rejected: " + string(e.Reason)
}

// DayCache holds booked-interval snapshots per room and local date. Get
// reports the day's version alongside the snapshot; Set stores a snapshot
// only if no Invalidate has happened since that version was read.
type DayCache interface {
	Get(ctx context.Context, roomID uuid.UUID, date scheduling.Date) (intervals []scheduling.Interval, version int64, ok bool, err error)
	Set(ctx context.Context, roomID uuid.UUID, date scheduling.Date, version int64, intervals []scheduling.Interval) error
	Invalidate(ctx context.Context, roomID uuid.UUID, date scheduling.Date) error
}

type noCache struct{}

func (noCache) Get(context.Context, uuid.UUID, scheduling.Date) ([]scheduling.Interval, int64, bool, error) {
	return nil, 0, false, nil
}

func (noCache) Set(context.Context, uuid.UUID, scheduling.Date, int64, []scheduling.Interval) error {
	return nil
}

func (noCache) Invalidate(context.Context, uuid.UUID, scheduling.Date) error {
	return nil
}

type EventPublisher interface {
	BookingCreated(ctx context.Context, booking domain.Booking) error
}

type Service struct {
	repo   store.BookingRepository
	cache  DayCache
	events EventPublisher
	log    *zap.Logger
	now    func() time.Time
	tracer trace.Tracer
}

type Option func(*Service)

func WithCache(c DayCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Service) { s.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo store.BookingRepository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		log:    zap.NewNop(),
		now:    time.Now,
		tracer: telemetry.Tracer("roomly/bookings"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = noCache{}
	}
	s.log = s.log.With(zap.String("component", "bookings"))
	return s
}

type BookInput struct {
	RoomID       uuid.UUID
	ResidentName string
	Start        time.Time
	End          time.Time
}

// Book admits a booking when every rule accepts it. The room's bookings are
// read and written under the room lock, so two concurrent calls can never
// both commit overlapping intervals.
func (s *Service) Book(ctx context.Context, in BookInput) (domain.Booking, error) {
	if in.RoomID == uuid.Nil {
		return domain.Booking{}, validationError("room_id is required")
	}
	name := strings.TrimSpace(in.ResidentName)
	if name == "" {
		return domain.Booking{}, validationError("resident name cannot be blank")
	}
	if len(name) > 150 {
		return domain.Booking{}, validationError("resident name too long")
	}
	if in.Start.IsZero() || in.End.IsZero() {
		return domain.Booking{}, validationError("start and end are required")
	}

	ctx, span := s.tracer.Start(ctx, "bookings.Book", trace.WithAttributes(
		attribute.String("room.id", in.RoomID.String()),
	))
	defer span.End()

	proposed := scheduling.Interval{Start: in.Start, End: in.End}
	var (
		created domain.Booking
		day     scheduling.Date
	)
	err := s.repo.InRoomTransaction(ctx, in.RoomID, func(ctx context.Context, tx store.RoomTx) error {
		room, err := tx.GetRoom(ctx, in.RoomID)
		if err != nil {
			return err
		}
		w, err := room.Window()
		if err != nil {
			return err
		}

		day = scheduling.DateOf(proposed.Start.In(w.Location))
		dayRange := w.Day(day)
		existing, err := tx.ListBookings(ctx, room.ID, dayRange.Start, dayRange.End)
		if err != nil {
			return err
		}

		decision, err := scheduling.ValidateBooking(w, proposed, domain.Intervals(existing), s.now())
		if err != nil {
			return err
		}
		if !decision.Accepted() {
			return &RejectedError{Reason: decision.Reason}
		}

		resident, err := tx.EnsureResident(ctx, name)
		if err != nil {
			return fmt.Errorf("ensure resident: %w", err)
		}
		created, err = tx.CreateBooking(ctx, domain.Booking{
			RoomID:     room.ID,
			ResidentID: resident.ID,
			StartTime:  proposed.Start,
			EndTime:    proposed.End,
			Resident:   &resident,
		})
		if errors.Is(err, store.ErrConflict) {
			return &RejectedError{Reason: scheduling.ReasonRoomAlreadyBooked}
		}
		return err
	})

	var rejected *RejectedError
	switch {
	case errors.As(err, &rejected):
		span.SetAttributes(attribute.String("booking.rejected", string(rejected.Reason)))
		s.log.Info("booking rejected",
			zap.String("room_id", in.RoomID.String()),
			zap.String("reason", string(rejected.Reason)),
		)
		return domain.Booking{}, err
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.Booking{}, err
	}

	if err := s.cache.Invalidate(ctx, created.RoomID, day); err != nil {
		s.log.Warn("day cache invalidation failed", zap.Error(err), zap.String("room_id", created.RoomID.String()))
	}
	if s.events != nil {
		if err := s.events.BookingCreated(ctx, created); err != nil {
			s.log.Warn("booking event publish failed", zap.Error(err), zap.String("booking_id", created.ID.String()))
		}
	}

	s.log.Info("booking created",
		zap.String("booking_id", created.ID.String()),
		zap.String("room_id", created.RoomID.String()),
		zap.Time("start", created.StartTime),
		zap.Time("end", created.EndTime),
	)
	return created, nil
}

type Availability struct {
	Room     domain.Room
	Date     scheduling.Date
	Location *time.Location
	Slots    []scheduling.Interval
}

// FreeSlots lists the free intervals of a room on date, or on today in the
// room's zone when date is nil. Slots are expressed in the room's zone.
func (s *Service) FreeSlots(ctx context.Context, roomID uuid.UUID, date *scheduling.Date) (Availability, error) {
	if roomID == uuid.Nil {
		return Availability{}, validationError("room_id is required")
	}
	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		return Availability{}, err
	}
	w, err := room.Window()
	if err != nil {
		return Availability{}, err
	}

	now := s.now()
	day := w.Today(now)
	if date != nil {
		day = *date
	}

	booked, err := s.dayIntervals(ctx, room.ID, w, day)
	if err != nil {
		return Availability{}, err
	}
	seq, err := scheduling.ComputeFreeSlots(w, day, booked, now)
	if err != nil {
		return Availability{}, err
	}

	slots := slices.Collect(seq)
	for i := range slots {
		slots[i] = slots[i].In(w.Location)
	}
	if slots == nil {
		slots = []scheduling.Interval{}
	}
	return Availability{Room: room, Date: day, Location: w.Location, Slots: slots}, nil
}

func (s *Service) dayIntervals(ctx context.Context, roomID uuid.UUID, w scheduling.OperatingWindow, day scheduling.Date) ([]scheduling.Interval, error) {
	// The version is read before the database so a booking committed in
	// between makes the Set below a no-op.
	cached, version, ok, err := s.cache.Get(ctx, roomID, day)
	if err != nil {
		s.log.Warn("day cache read failed", zap.Error(err), zap.String("room_id", roomID.String()))
	}
	if ok {
		return cached, nil
	}
	cacheable := err == nil

	dayRange := w.Day(day)
	bookings, err := s.repo.ListBookings(ctx, roomID, dayRange.Start, dayRange.End)
	if err != nil {
		return nil, err
	}
	intervals := domain.Intervals(bookings)
	if cacheable {
		if err := s.cache.Set(ctx, roomID, day, version, intervals); err != nil {
			s.log.Warn("day cache write failed", zap.Error(err), zap.String("room_id", roomID.String()))
		}
	}
	return intervals, nil
}

type DayBookings struct {
	Room     domain.Room
	Date     scheduling.Date
	Location *time.Location
	Bookings []domain.Booking
}

// ListBookings returns the bookings of a room that touch date in the room's
// zone, ordered by start.
func (s *Service) ListBookings(ctx context.Context, roomID uuid.UUID, date *scheduling.Date) (DayBookings, error) {
	if roomID == uuid.Nil {
		return DayBookings{}, validationError("room_id is required")
	}
	room, err := s.repo.GetRoom(ctx, roomID)
	if err != nil {
		return DayBookings{}, err
	}
	w, err := room.Window()
	if err != nil {
		return DayBookings{}, err
	}

	day := w.Today(s.now())
	if date != nil {
		day = *date
	}
	dayRange := w.Day(day)
	bookings, err := s.repo.ListBookings(ctx, room.ID, dayRange.Start, dayRange.End)
	if err != nil {
		return DayBookings{}, err
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	return DayBookings{Room: room, Date: day, Location: w.Location, Bookings: bookings}, nil
}
