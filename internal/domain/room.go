package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"roomly/internal/scheduling"
)

type RoomKind string

const (
	RoomKindFocus      RoomKind = "focus"
	RoomKindTeam       RoomKind = "team"
	RoomKindConference RoomKind = "conference"
)

func (k RoomKind) Valid() bool {
	switch k {
	case RoomKindFocus, RoomKindTeam, RoomKindConference:
		return true
	}
	return false
}

var (
	DefaultOpensAt  = scheduling.StartOfDay
	DefaultClosesAt = scheduling.EndOfDay
)

type Room struct {
	bun.BaseModel `bun:"table:rooms"`

	ID        uuid.UUID            `bun:"id,pk,type:uuid"`
	Name      string               `bun:"name,notnull"`
	Kind      RoomKind             `bun:"kind,notnull"`
	Capacity  int                  `bun:"capacity,notnull"`
	OpensAt   scheduling.TimeOfDay `bun:"opens_at,notnull,type:time"`
	ClosesAt  scheduling.TimeOfDay `bun:"closes_at,notnull,type:time"`
	Timezone  string               `bun:"timezone,notnull"`
	CreatedAt time.Time            `bun:"created_at,notnull"`
	UpdatedAt time.Time            `bun:"updated_at,notnull"`
}

func (r *Room) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if r.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			r.ID = id
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		r.UpdatedAt = now
	}
	return nil
}

// Window resolves the room's operating hours in its configured zone.
func (r Room) Window() (scheduling.OperatingWindow, error) {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return scheduling.OperatingWindow{}, fmt.Errorf("%w: room %s time zone %q", scheduling.ErrInvalidWindow, r.ID, r.Timezone)
	}
	w := scheduling.OperatingWindow{OpensAt: r.OpensAt, ClosesAt: r.ClosesAt, Location: loc}
	if err := w.Validate(); err != nil {
		return scheduling.OperatingWindow{}, fmt.Errorf("room %s: %w", r.ID, err)
	}
	return w, nil
}
