package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"roomly/internal/scheduling"
)

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID         uuid.UUID `bun:"id,pk,type:uuid"`
	RoomID     uuid.UUID `bun:"room_id,notnull,type:uuid"`
	ResidentID uuid.UUID `bun:"resident_id,notnull,type:uuid"`
	StartTime  time.Time `bun:"start_time,notnull"`
	EndTime    time.Time `bun:"end_time,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull"`

	Resident *Resident `bun:"rel:belongs-to,join:resident_id=id"`
}

func (b *Booking) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); !ok {
		return nil
	}
	if b.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		b.ID = id
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	return nil
}

func (b Booking) Interval() scheduling.Interval {
	return scheduling.Interval{Start: b.StartTime, End: b.EndTime}
}

func Intervals(bookings []Booking) []scheduling.Interval {
	out := make([]scheduling.Interval, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.Interval())
	}
	return out
}
