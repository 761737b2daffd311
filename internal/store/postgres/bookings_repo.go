package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"roomly/internal/domain"
	"roomly/internal/store"
)

type BookingRepo struct {
	db bun.IDB
}

func NewBookingRepo(db bun.IDB) *BookingRepo {
	return &BookingRepo{db: db}
}

type roomTx struct {
	tx bun.Tx
}

func (r *BookingRepo) GetRoom(ctx context.Context, roomID uuid.UUID) (domain.Room, error) {
	return getRoom(ctx, r.db, roomID)
}

func (r *BookingRepo) ListBookings(ctx context.Context, roomID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Booking, error) {
	return listBookings(ctx, r.db, roomID, windowStart, windowEnd)
}

// InRoomTransaction serializes writers per room: the advisory lock is held
// until fn returns and the transaction commits or rolls back.
func (r *BookingRepo) InRoomTransaction(ctx context.Context, roomID uuid.UUID, fn func(ctx context.Context, tx store.RoomTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockRoom(ctx, tx, roomID); err != nil {
			return err
		}
		return fn(ctx, roomTx{tx: tx})
	})
}

func lockRoom(ctx context.Context, tx bun.Tx, roomID uuid.UUID) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", roomLockKey(roomID)).Exec(ctx)
	return err
}

func roomLockKey(roomID uuid.UUID) string {
	return "roomly:room:" + roomID.String()
}

func (r roomTx) GetRoom(ctx context.Context, roomID uuid.UUID) (domain.Room, error) {
	return getRoom(ctx, r.tx, roomID)
}

func (r roomTx) ListBookings(ctx context.Context, roomID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Booking, error) {
	return listBookings(ctx, r.tx, roomID, windowStart, windowEnd)
}

func (r roomTx) EnsureResident(ctx context.Context, name string) (domain.Resident, error) {
	resident := domain.Resident{Name: strings.TrimSpace(name)}
	_, err := r.tx.NewInsert().
		Model(&resident).
		On("CONFLICT (name) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return domain.Resident{}, err
	}

	var existing domain.Resident
	err = r.tx.NewSelect().
		Model(&existing).
		Where("name = ?", resident.Name).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Resident{}, err
	}
	return existing, nil
}

func (r roomTx) CreateBooking(ctx context.Context, booking domain.Booking) (domain.Booking, error) {
	m := domain.Booking{
		ID:         booking.ID,
		RoomID:     booking.RoomID,
		ResidentID: booking.ResidentID,
		StartTime:  booking.StartTime.UTC(),
		EndTime:    booking.EndTime.UTC(),
		CreatedAt:  booking.CreatedAt,
	}

	_, err := r.tx.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		return domain.Booking{}, mapInsertError(err)
	}
	m.Resident = booking.Resident
	return m, nil
}

func mapInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation && pgErr.ConstraintName == bookingsNoOverlap {
		return store.ErrConflict
	}
	return err
}

func listBookings(ctx context.Context, db bun.IDB, roomID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := db.NewSelect().
		Model(&rows).
		Relation("Resident").
		Where("booking.room_id = ?", roomID).
		Where("booking.start_time < ?", windowEnd).
		Where("booking.end_time > ?", windowStart).
		OrderExpr("booking.start_time ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return rows, nil
}
