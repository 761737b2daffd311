package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"roomly/internal/domain"
	"roomly/internal/scheduling"
	"roomly/internal/service/bookings"
	"roomly/internal/service/rooms"
)

type roomsService interface {
	List(ctx context.Context, in rooms.ListInput) (rooms.Page, error)
	Get(ctx context.Context, roomID uuid.UUID) (domain.Room, error)
	Create(ctx context.Context, in rooms.CreateInput) (domain.Room, error)
}

type bookingsService interface {
	Book(ctx context.Context, in bookings.BookInput) (domain.Booking, error)
	FreeSlots(ctx context.Context, roomID uuid.UUID, date *scheduling.Date) (bookings.Availability, error)
	ListBookings(ctx context.Context, roomID uuid.UUID, date *scheduling.Date) (bookings.DayBookings, error)
}

type handlers struct {
	rooms    roomsService
	bookings bookingsService
}

func (h *handlers) listRooms(c *gin.Context) {
	page, ok := intQuery(c, "page")
	if !ok {
		return
	}
	size, ok := intQuery(c, "page_size")
	if !ok {
		return
	}

	res, err := h.rooms.List(c.Request.Context(), rooms.ListInput{
		Search:   c.Query("search"),
		Kind:     c.Query("type"),
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	out := roomPageResponse{Page: res.Page, Count: res.Count, PageSize: res.PageSize, Results: make([]roomResponse, 0, len(res.Results))}
	for _, r := range res.Results {
		out.Results = append(out.Results, toRoomResponse(r))
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) createRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}

	room, err := h.rooms.Create(c.Request.Context(), rooms.CreateInput{
		Name:     req.Name,
		Kind:     req.Type,
		Capacity: req.Capacity,
		OpensAt:  req.OpeningTime,
		ClosesAt: req.ClosingTime,
		Timezone: req.TimeZone,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	loggerFrom(c).Info("room created", zap.String("room_id", room.ID.String()), zap.String("name", room.Name))
	c.JSON(http.StatusCreated, toRoomResponse(room))
}

func (h *handlers) getRoom(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	room, err := h.rooms.Get(c.Request.Context(), roomID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRoomResponse(room))
}

func (h *handlers) bookRoom(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	req, ok := bindBookRequest(c)
	if !ok {
		return
	}

	room, err := h.rooms.Get(c.Request.Context(), roomID)
	if err != nil {
		writeError(c, err)
		return
	}
	loc, err := time.LoadLocation(room.Timezone)
	if err != nil {
		writeError(c, err)
		return
	}

	start, err := parseBookingTime(req.Start, loc)
	if err != nil {
		badRequest(c, "start must be RFC 3339 or DD-MM-YYYY HH:MM:SS")
		return
	}
	end, err := parseBookingTime(req.End, loc)
	if err != nil {
		badRequest(c, "end must be RFC 3339 or DD-MM-YYYY HH:MM:SS")
		return
	}

	booking, err := h.bookings.Book(c.Request.Context(), bookings.BookInput{
		RoomID:       roomID,
		ResidentName: req.Resident.Name,
		Start:        start,
		End:          end,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "room booked successfully",
		"booking": toBookingResponse(booking, loc),
	})
}

func (h *handlers) availability(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	date, ok := dateQuery(c)
	if !ok {
		return
	}

	res, err := h.bookings.FreeSlots(c.Request.Context(), roomID, date)
	if err != nil {
		writeError(c, err)
		return
	}

	out := availabilityResponse{
		RoomID:   res.Room.ID.String(),
		Date:     res.Date.String(),
		TimeZone: res.Location.String(),
		Slots:    toSlots(res.Slots),
	}
	if len(out.Slots) == 0 {
		out.Message = "no free time on " + res.Date.String() + " in room " + res.Room.Name
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) roomBookings(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}
	date, ok := dateQuery(c)
	if !ok {
		return
	}

	res, err := h.bookings.ListBookings(c.Request.Context(), roomID, date)
	if err != nil {
		writeError(c, err)
		return
	}

	out := dayBookingsResponse{
		RoomID:   res.Room.ID.String(),
		Date:     res.Date.String(),
		TimeZone: res.Location.String(),
		Bookings: make([]bookingResponse, 0, len(res.Bookings)),
	}
	for _, b := range res.Bookings {
		out.Bookings = append(out.Bookings, toBookingResponse(b, res.Location))
	}
	c.JSON(http.StatusOK, out)
}

// bindBookRequest accepts JSON bodies and HTML form posts using the
// "resident.name" field.
func bindBookRequest(c *gin.Context) (bookRequest, bool) {
	var req bookRequest
	switch c.ContentType() {
	case gin.MIMEPOSTForm, gin.MIMEMultipartPOSTForm:
		req.Resident.Name = c.PostForm("resident.name")
		req.Start = c.PostForm("start")
		req.End = c.PostForm("end")
	default:
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "malformed request body")
			return bookRequest{}, false
		}
	}
	if strings.TrimSpace(req.Start) == "" || strings.TrimSpace(req.End) == "" {
		badRequest(c, "start and end are required")
		return bookRequest{}, false
	}
	return req, true
}

var localBookingLayouts = []string{
	"02-01-2006 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseBookingTime reads an absolute RFC 3339 instant, or a wall-clock time
// interpreted in the room's zone.
func parseBookingTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	for _, layout := range localBookingLayouts {
		if lt, lerr := time.ParseInLocation(layout, s, loc); lerr == nil {
			return lt, nil
		}
	}
	return time.Time{}, err
}

func roomIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "room id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func intQuery(c *gin.Context, key string) (int, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, key+" must be an integer")
		return 0, false
	}
	return n, true
}

// dateQuery reads ?date=YYYY-MM-DD, falling back to ?search=. A nil result
// means today in the room's zone.
func dateQuery(c *gin.Context) (*scheduling.Date, bool) {
	raw := strings.TrimSpace(c.Query("date"))
	if raw == "" {
		raw = strings.TrimSpace(c.Query("search"))
	}
	if raw == "" {
		return nil, true
	}
	d, err := scheduling.ParseDate(raw)
	if err != nil {
		badRequest(c, "date must be YYYY-MM-DD")
		return nil, false
	}
	return &d, true
}
