package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"roomly/internal/scheduling"
	"roomly/internal/service/bookings"
	"roomly/internal/service/rooms"
	"roomly/internal/store"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var rejectionMessages = map[scheduling.Reason]string{
	scheduling.ReasonPastDate:              "you cannot book a room for a past date",
	scheduling.ReasonEndBeforeStart:        "start must be before end",
	scheduling.ReasonMultiDay:              "a room can be booked for at most one day",
	scheduling.ReasonOutsideOperatingHours: "the booking is outside the room's operating hours",
	scheduling.ReasonRoomAlreadyBooked:     "sorry, the room is already booked for the selected time",
}

func badRequest(c *gin.Context, msg string) {
	loggerFrom(c).Warn("invalid request", zap.String("reason", msg))
	c.JSON(http.StatusBadRequest, errorBody{Error: msg, Code: "INVALID_REQUEST"})
}

// writeError maps service errors onto HTTP responses. Business rejections and
// bad input are logged quietly; anything else is a fault.
func writeError(c *gin.Context, err error) {
	log := loggerFrom(c)

	var rejected *bookings.RejectedError
	if errors.As(err, &rejected) {
		status := http.StatusBadRequest
		if rejected.Reason == scheduling.ReasonRoomAlreadyBooked {
			status = http.StatusConflict
		}
		msg, ok := rejectionMessages[rejected.Reason]
		if !ok {
			msg = "booking rejected"
		}
		c.JSON(status, errorBody{Error: msg, Code: string(rejected.Reason)})
		return
	}

	var bookingErr *bookings.ValidationError
	if errors.As(err, &bookingErr) {
		badRequest(c, bookingErr.Error())
		return
	}
	var roomErr *rooms.ValidationError
	if errors.As(err, &roomErr) {
		badRequest(c, roomErr.Error())
		return
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, errorBody{Error: "not found", Code: "NOT_FOUND"})
	case errors.Is(err, store.ErrDuplicate):
		c.JSON(http.StatusConflict, errorBody{Error: "this room already exists", Code: "ROOM_EXISTS"})
	default:
		log.Error("request failed", zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, errorBody{Error: "internal error", Code: "INTERNAL"})
	}
}
