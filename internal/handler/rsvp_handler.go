package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Eursukkul/discovery-service/internal/dto"
	"github.com/Eursukkul/discovery-service/internal/middleware"
	"github.com/Eursukkul/discovery-service/internal/models"
	"github.com/Eursukkul/discovery-service/internal/service"
)

type RsvpHandler struct {
	svc service.RsvpService
}

func NewRsvpHandler(svc service.RsvpService) *RsvpHandler {
	return &RsvpHandler{svc: svc}
}

func (h *RsvpHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/events/:id/rsvps", h.CreateRsvp)
	g.GET("/events/:id/rsvps", h.ListEventRsvps)

	g.GET("/rsvps/:id", h.GetRsvp)
	g.PATCH("/rsvps/:id", h.UpdateRsvp)
	g.DELETE("/rsvps/:id", h.DeleteRsvp)

	g.GET("/me/rsvps", h.ListMyRsvps)
}

// CreateRsvp answers 201 for both seated and waitlisted RSVPs; the status
// in the body tells them apart.
func (h *RsvpHandler) CreateRsvp(c echo.Context) error {
	eventID, err := parseID(c, "event")
	if err != nil {
		return err
	}

	var req dto.CreateRsvpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	rsvp, err := h.svc.CreateRsvp(c.Request().Context(), service.CreateRsvpInput{
		EventID:  eventID,
		UserID:   middleware.UserID(c),
		Status:   req.Status,
		PlusOnes: req.PlusOnes,
		Notes:    req.Notes,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, dto.ToRsvpResponse(rsvp))
}

func (h *RsvpHandler) ListEventRsvps(c echo.Context) error {
	eventID, err := parseID(c, "event")
	if err != nil {
		return err
	}

	var status *models.RsvpStatus
	if s := c.QueryParam("status"); s != "" {
		rs := models.RsvpStatus(s)
		status = &rs
	}

	rsvps, err := h.svc.ListEventRsvps(c.Request().Context(), eventID, middleware.UserID(c), status)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.ToRsvpResponses(rsvps))
}

func (h *RsvpHandler) GetRsvp(c echo.Context) error {
	id, err := parseID(c, "rsvp")
	if err != nil {
		return err
	}

	rsvp, err := h.svc.GetRsvp(c.Request().Context(), id, middleware.UserID(c))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.ToRsvpResponse(rsvp))
}

func (h *RsvpHandler) UpdateRsvp(c echo.Context) error {
	id, err := parseID(c, "rsvp")
	if err != nil {
		return err
	}

	var req dto.UpdateRsvpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	rsvp, err := h.svc.UpdateRsvp(c.Request().Context(), id, middleware.UserID(c), service.UpdateRsvpInput{
		Status:   req.Status,
		PlusOnes: req.PlusOnes,
		Notes:    req.Notes,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.ToRsvpResponse(rsvp))
}

func (h *RsvpHandler) DeleteRsvp(c echo.Context) error {
	id, err := parseID(c, "rsvp")
	if err != nil {
		return err
	}

	if err := h.svc.DeleteRsvp(c.Request().Context(), id, middleware.UserID(c)); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *RsvpHandler) ListMyRsvps(c echo.Context) error {
	rsvps, err := h.svc.ListUserRsvps(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.ToRsvpResponses(rsvps))
}
