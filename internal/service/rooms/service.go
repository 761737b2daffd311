package rooms

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"roomly/internal/domain"
	"roomly/internal/scheduling"
	"roomly/internal/store"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 10
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

type Service struct {
	repo        store.RoomRepository
	defaultZone string
}

// NewService wires the room catalogue. defaultZone is assigned to rooms
// created without an explicit time zone.
func NewService(repo store.RoomRepository, defaultZone string) *Service {
	if strings.TrimSpace(defaultZone) == "" {
		defaultZone = "UTC"
	}
	return &Service{repo: repo, defaultZone: defaultZone}
}

type ListInput struct {
	Search   string
	Kind     string
	Page     int
	PageSize int
}

type Page struct {
	Page     int
	Count    int
	PageSize int
	Results  []domain.Room
}

func (s *Service) List(ctx context.Context, in ListInput) (Page, error) {
	page := in.Page
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return Page{}, validationError("page must be at least 1")
	}

	size := in.PageSize
	switch {
	case size == 0:
		size = DefaultPageSize
	case size < 0:
		return Page{}, validationError("page_size must be positive")
	case size > MaxPageSize:
		size = MaxPageSize
	}

	if page-1 > math.MaxInt/size {
		return Page{}, validationError("page out of range")
	}

	kind := domain.RoomKind(strings.ToLower(strings.TrimSpace(in.Kind)))
	if kind != "" && !kind.Valid() {
		return Page{}, validationError("type must be one of focus, team, conference")
	}

	rooms, count, err := s.repo.ListRooms(ctx, store.RoomFilter{
		Search: strings.TrimSpace(in.Search),
		Kind:   kind,
		Limit:  size,
		Offset: (page - 1) * size,
	})
	if err != nil {
		return Page{}, err
	}
	if rooms == nil {
		rooms = []domain.Room{}
	}
	return Page{Page: page, Count: count, PageSize: size, Results: rooms}, nil
}

func (s *Service) Get(ctx context.Context, roomID uuid.UUID) (domain.Room, error) {
	if roomID == uuid.Nil {
		return domain.Room{}, validationError("room_id is required")
	}
	return s.repo.GetRoom(ctx, roomID)
}

type CreateInput struct {
	Name     string
	Kind     string
	Capacity int
	OpensAt  string
	ClosesAt string
	Timezone string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Room, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Room{}, validationError("name is required")
	}
	if len(name) > 200 {
		return domain.Room{}, validationError("name too long")
	}

	kind := domain.RoomKind(strings.ToLower(strings.TrimSpace(in.Kind)))
	if !kind.Valid() {
		return domain.Room{}, validationError("type must be one of focus, team, conference")
	}
	if in.Capacity < 1 {
		return domain.Room{}, validationError("capacity must be at least 1")
	}

	opensAt, err := parseHours(in.OpensAt, domain.DefaultOpensAt)
	if err != nil {
		return domain.Room{}, validationError("invalid opening_time")
	}
	closesAt, err := parseHours(in.ClosesAt, domain.DefaultClosesAt)
	if err != nil {
		return domain.Room{}, validationError("invalid closing_time")
	}
	if closesAt <= opensAt {
		return domain.Room{}, validationError("closing_time must be after opening_time")
	}

	tz := strings.TrimSpace(in.Timezone)
	if tz == "" {
		tz = s.defaultZone
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return domain.Room{}, validationError("invalid time_zone")
	}

	return s.repo.CreateRoom(ctx, domain.Room{
		Name:     name,
		Kind:     kind,
		Capacity: in.Capacity,
		OpensAt:  opensAt,
		ClosesAt: closesAt,
		Timezone: tz,
	})
}

var errSubSecond = errors.New("operating hours have whole-second precision")

// parseHours reads HH:MM[:SS]. Fractional seconds are refused because the
// "time" column stores whole seconds.
func parseHours(v string, fallback scheduling.TimeOfDay) (scheduling.TimeOfDay, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback, nil
	}
	t, err := scheduling.ParseTimeOfDay(v)
	if err != nil {
		return 0, err
	}
	if time.Duration(t)%time.Second != 0 {
		return 0, errSubSecond
	}
	return t, nil
}
