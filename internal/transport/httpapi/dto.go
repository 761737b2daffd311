package httpapi

import (
	"time"

	"roomly/internal/domain"
	"roomly/internal/scheduling"
)

type roomResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Capacity    int    `json:"capacity"`
	OpeningTime string `json:"opening_time"`
	ClosingTime string `json:"closing_time"`
	TimeZone    string `json:"time_zone"`
}

func toRoomResponse(r domain.Room) roomResponse {
	return roomResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Type:        string(r.Kind),
		Capacity:    r.Capacity,
		OpeningTime: r.OpensAt.String(),
		ClosingTime: r.ClosesAt.String(),
		TimeZone:    r.Timezone,
	}
}

type roomPageResponse struct {
	Page     int            `json:"page"`
	Count    int            `json:"count"`
	PageSize int            `json:"page_size"`
	Results  []roomResponse `json:"results"`
}

type createRoomRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Capacity    int    `json:"capacity"`
	OpeningTime string `json:"opening_time"`
	ClosingTime string `json:"closing_time"`
	TimeZone    string `json:"time_zone"`
}

type residentPayload struct {
	Name string `json:"name"`
}

type bookRequest struct {
	Resident residentPayload `json:"resident"`
	Start    string          `json:"start"`
	End      string          `json:"end"`
}

type bookingResponse struct {
	ID       string          `json:"id"`
	RoomID   string          `json:"room_id"`
	Resident residentPayload `json:"resident"`
	Start    time.Time       `json:"start"`
	End      time.Time       `json:"end"`
}

func toBookingResponse(b domain.Booking, loc *time.Location) bookingResponse {
	out := bookingResponse{
		ID:     b.ID.String(),
		RoomID: b.RoomID.String(),
		Start:  b.StartTime.In(loc),
		End:    b.EndTime.In(loc),
	}
	if b.Resident != nil {
		out.Resident.Name = b.Resident.Name
	}
	return out
}

type slotResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type availabilityResponse struct {
	RoomID   string         `json:"room_id"`
	Date     string         `json:"date"`
	TimeZone string         `json:"time_zone"`
	Slots    []slotResponse `json:"slots"`
	Message  string         `json:"message,omitempty"`
}

func toSlots(intervals []scheduling.Interval) []slotResponse {
	out := make([]slotResponse, 0, len(intervals))
	for _, iv := range intervals {
		out = append(out, slotResponse{Start: iv.Start, End: iv.End})
	}
	return out
}

type dayBookingsResponse struct {
	RoomID   string            `json:"room_id"`
	Date     string            `json:"date"`
	TimeZone string            `json:"time_zone"`
	Bookings []bookingResponse `json:"bookings"`
}
