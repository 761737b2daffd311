package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"roomly/internal/domain"
	"roomly/internal/store"
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"

	roomsNameKindKey  = "rooms_name_kind_key"
	bookingsNoOverlap = "bookings_no_overlap"
)

type RoomRepo struct {
	db bun.IDB
}

// NewRoomRepo accepts a *bun.DB or a bun.Tx.
func NewRoomRepo(db bun.IDB) *RoomRepo {
	return &RoomRepo{db: db}
}

func (r *RoomRepo) CreateRoom(ctx context.Context, room domain.Room) (domain.Room, error) {
	_, err := r.db.NewInsert().Model(&room).Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == roomsNameKindKey {
			return domain.Room{}, store.ErrDuplicate
		}
		return domain.Room{}, err
	}
	return room, nil
}

func (r *RoomRepo) GetRoom(ctx context.Context, roomID uuid.UUID) (domain.Room, error) {
	return getRoom(ctx, r.db, roomID)
}

func (r *RoomRepo) ListRooms(ctx context.Context, filter store.RoomFilter) ([]domain.Room, int, error) {
	var rows []domain.Room
	q := r.db.NewSelect().Model(&rows)
	if s := strings.TrimSpace(filter.Search); s != "" {
		q = q.Where("name ILIKE ?", "%"+escapeLike(s)+"%")
	}
	if filter.Kind != "" {
		q = q.Where("kind = ?", filter.Kind)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	count, err := q.OrderExpr("name ASC, id ASC").ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}
	return rows, count, nil
}

func getRoom(ctx context.Context, db bun.IDB, roomID uuid.UUID) (domain.Room, error) {
	var room domain.Room
	err := db.NewSelect().
		Model(&room).
		Where("id = ?", roomID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Room{}, store.ErrNotFound
		}
		return domain.Room{}, err
	}
	return room, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
