package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Eursukkul/discovery-service/internal/dto"
	"github.com/Eursukkul/discovery-service/internal/middleware"
	"github.com/Eursukkul/discovery-service/internal/models"
	"github.com/Eursukkul/discovery-service/internal/service"
)

type RelationHandler struct {
	svc service.RelationService
}

func NewRelationHandler(svc service.RelationService) *RelationHandler {
	return &RelationHandler{svc: svc}
}

func (h *RelationHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/organizations/:id/follow", h.Follow)
	g.DELETE("/organizations/:id/follow", h.Unfollow)
	g.DELETE("/followers/:id", h.RemoveFollower)

	conns := g.Group("/connections")
	conns.POST("", h.RequestConnection)
	conns.POST("/:id/accept", h.respond(h.svc.AcceptConnection))
	conns.POST("/:id/decline", h.respond(h.svc.DeclineConnection))
	conns.POST("/:id/block", h.respond(h.svc.BlockConnection))
	conns.DELETE("/:id", h.RemoveConnection)
}

func (h *RelationHandler) Follow(c echo.Context) error {
	follow, err := h.svc.Follow(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, dto.ToFollowResponse(follow))
}

func (h *RelationHandler) Unfollow(c echo.Context) error {
	if err := h.svc.Unfollow(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RemoveFollower is called by an organization to drop one of its followers.
func (h *RelationHandler) RemoveFollower(c echo.Context) error {
	if err := h.svc.RemoveFollower(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *RelationHandler) RequestConnection(c echo.Context) error {
	var req dto.ConnectionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.RecipientID = strings.TrimSpace(req.RecipientID)
	if req.RecipientID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "recipient_id is required")
	}

	conn, err := h.svc.RequestConnection(c.Request().Context(), middleware.UserID(c), req.RecipientID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, dto.ToConnectionResponse(conn))
}

type connectionAction func(ctx context.Context, id uint, userID string) (*models.Connection, error)

func (h *RelationHandler) respond(action connectionAction) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := parseID(c, "connection")
		if err != nil {
			return err
		}
		conn, err := action(c.Request().Context(), id, middleware.UserID(c))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(http.StatusOK, dto.ToConnectionResponse(conn))
	}
}

func (h *RelationHandler) RemoveConnection(c echo.Context) error {
	id, err := parseID(c, "connection")
	if err != nil {
		return err
	}
	if err := h.svc.RemoveConnection(c.Request().Context(), id, middleware.UserID(c)); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
