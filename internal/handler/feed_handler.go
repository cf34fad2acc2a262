package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Eursukkul/discovery-service/internal/dto"
	"github.com/Eursukkul/discovery-service/internal/middleware"
	"github.com/Eursukkul/discovery-service/internal/service"
)

type FeedHandler struct {
	svc service.FeedService
}

func NewFeedHandler(svc service.FeedService) *FeedHandler {
	return &FeedHandler{svc: svc}
}

func (h *FeedHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// GetFeed serves /feed?lng=&lat=&radius=&limit=. radius is in miles.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	lng, errLng := strconv.ParseFloat(c.QueryParam("lng"), 64)
	lat, errLat := strconv.ParseFloat(c.QueryParam("lat"), 64)
	radius, errRadius := strconv.ParseFloat(c.QueryParam("radius"), 64)
	if errLng != nil || errLat != nil || errRadius != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "lng, lat and radius must be numbers")
	}

	limit := 0
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		limit = n
	}

	items, err := h.svc.GetDiscoveryFeed(c.Request().Context(), service.FeedQuery{
		UserID:      middleware.UserID(c),
		Longitude:   lng,
		Latitude:    lat,
		RadiusMiles: radius,
		Limit:       limit,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, dto.ToFeedResponse(items))
}
