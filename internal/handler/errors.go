package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Eursukkul/discovery-service/internal/service"
)

// httpError maps service errors onto status codes. Store failures keep
// their cause in Internal for the error handler's log.
func httpError(err error) error {
	code := http.StatusInternalServerError
	msg := "internal server error"

	switch {
	case errors.Is(err, service.ErrEventNotFound),
		errors.Is(err, service.ErrRsvpNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrRelationNotFound):
		code, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrHostCannotRsvp):
		code, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, service.ErrAlreadyRsvped),
		errors.Is(err, service.ErrRsvpConflict),
		errors.Is(err, service.ErrEventNotOpen),
		errors.Is(err, service.ErrCapacityBelowParticipants):
		code, msg = http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrInvalidRsvp),
		errors.Is(err, service.ErrInvalidEvent),
		errors.Is(err, service.ErrInvalidFeedQuery),
		errors.Is(err, service.ErrInvalidRelation),
		errors.Is(err, service.ErrNotOrganization):
		code, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrTransientStore):
		code, msg = http.StatusServiceUnavailable, "service temporarily unavailable"
	}

	return &echo.HTTPError{Code: code, Message: msg, Internal: err}
}

func parseID(c echo.Context, what string) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+what+" id")
	}
	return uint(id), nil
}
