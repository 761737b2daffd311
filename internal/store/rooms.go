package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"roomly/internal/domain"
)

type RoomFilter struct {
	Search string
	Kind   domain.RoomKind
	Limit  int
	Offset int
}

type RoomRepository interface {
	CreateRoom(ctx context.Context, room domain.Room) (domain.Room, error)
	GetRoom(ctx context.Context, roomID uuid.UUID) (domain.Room, error)
	ListRooms(ctx context.Context, filter RoomFilter) ([]domain.Room, int, error)
}

type BookingRepository interface {
	GetRoom(ctx context.Context, roomID uuid.UUID) (domain.Room, error)
	ListBookings(ctx context.Context, roomID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Booking, error)
	InRoomTransaction(ctx context.Context, roomID uuid.UUID, fn func(ctx context.Context, tx RoomTx) error) error
}

// RoomTx is a unit of work holding the room's write lock. Bookings read
// through it cannot change until the transaction ends.
type RoomTx interface {
	GetRoom(ctx context.Context, roomID uuid.UUID) (domain.Room, error)
	ListBookings(ctx context.Context, roomID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Booking, error)
	EnsureResident(ctx context.Context, name string) (domain.Resident, error)
	CreateBooking(ctx context.Context, booking domain.Booking) (domain.Booking, error)
}
