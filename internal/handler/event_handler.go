package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Eursukkul/discovery-service/internal/dto"
	"github.com/Eursukkul/discovery-service/internal/middleware"
	"github.com/Eursukkul/discovery-service/internal/service"
)

type EventHandler struct {
	svc service.EventService
}

func NewEventHandler(svc service.EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

func (h *EventHandler) RegisterRoutes(g *echo.Group) {
	events := g.Group("/events")
	events.POST("", h.CreateEvent)
	events.GET("/:id", h.GetEvent)
	events.PATCH("/:id", h.UpdateEvent)
	events.DELETE("/:id", h.DeleteEvent)
}

func (h *EventHandler) CreateEvent(c echo.Context) error {
	var req dto.CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Location.Coordinates) != 2 {
		return echo.NewHTTPError(http.StatusBadRequest, "location.coordinates must be [longitude, latitude]")
	}

	event, err := h.svc.CreateEvent(c.Request().Context(), service.CreateEventInput{
		Title:         req.Title,
		Description:   req.Description,
		StartDateTime: req.StartDateTime,
		EndDateTime:   req.EndDateTime,
		Capacity:      req.Capacity,
		Status:        req.Status,
		Visibility:    req.Visibility,
		Address:       req.Location.Address,
		Longitude:     req.Location.Coordinates[0],
		Latitude:      req.Location.Coordinates[1],
		Tags:          req.Tags,
		Images:        req.Images,
		CreatedBy:     middleware.UserID(c),
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, dto.ToEventResponse(event))
}

func (h *EventHandler) GetEvent(c echo.Context) error {
	id, err := parseID(c, "event")
	if err != nil {
		return err
	}

	event, err := h.svc.GetEvent(c.Request().Context(), id, middleware.UserID(c))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.ToEventResponse(event))
}

func (h *EventHandler) UpdateEvent(c echo.Context) error {
	id, err := parseID(c, "event")
	if err != nil {
		return err
	}

	var req dto.UpdateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	in := service.UpdateEventInput{
		Title:         req.Title,
		Description:   req.Description,
		StartDateTime: req.StartDateTime,
		EndDateTime:   req.EndDateTime,
		ClearEnd:      req.ClearEndDateTime,
		Capacity:      req.Capacity,
		ClearCapacity: req.ClearCapacity,
		Status:        req.Status,
		Visibility:    req.Visibility,
		Tags:          req.Tags,
		Images:        req.Images,
	}
	if loc := req.Location; loc != nil {
		in.Address = &loc.Address
		if loc.Coordinates != nil {
			if len(loc.Coordinates) != 2 {
				return echo.NewHTTPError(http.StatusBadRequest, "location.coordinates must be [longitude, latitude]")
			}
			in.Longitude = &loc.Coordinates[0]
			in.Latitude = &loc.Coordinates[1]
		}
	}

	event, err := h.svc.UpdateEvent(c.Request().Context(), id, middleware.UserID(c), in)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.ToEventResponse(event))
}

func (h *EventHandler) DeleteEvent(c echo.Context) error {
	id, err := parseID(c, "event")
	if err != nil {
		return err
	}

	if err := h.svc.DeleteEvent(c.Request().Context(), id, middleware.UserID(c)); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}
