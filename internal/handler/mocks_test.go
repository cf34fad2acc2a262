package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Eursukkul/discovery-service/internal/middleware"
	"github.com/Eursukkul/discovery-service/internal/models"
	"github.com/Eursukkul/discovery-service/internal/service"
)

// --- Mock FeedService ---

type mockFeedService struct {
	feedFn func(ctx context.Context, q service.FeedQuery) ([]service.FeedItem, error)
}

func (m *mockFeedService) GetDiscoveryFeed(ctx context.Context, q service.FeedQuery) ([]service.FeedItem, error) {
	return m.feedFn(ctx, q)
}

// --- Mock EventService ---

type mockEventService struct {
	createFn func(ctx context.Context, in service.CreateEventInput) (*models.Event, error)
	getFn    func(ctx context.Context, id uint, requesterID string) (*models.Event, error)
	updateFn func(ctx context.Context, id uint, requesterID string, in service.UpdateEventInput) (*models.Event, error)
	deleteFn func(ctx context.Context, id uint, requesterID string) error
}

func (m *mockEventService) CreateEvent(ctx context.Context, in service.CreateEventInput) (*models.Event, error) {
	return m.createFn(ctx, in)
}
func (m *mockEventService) GetEvent(ctx context.Context, id uint, requesterID string) (*models.Event, error) {
	return m.getFn(ctx, id, requesterID)
}
func (m *mockEventService) UpdateEvent(ctx context.Context, id uint, requesterID string, in service.UpdateEventInput) (*models.Event, error) {
	return m.updateFn(ctx, id, requesterID, in)
}
func (m *mockEventService) DeleteEvent(ctx context.Context, id uint, requesterID string) error {
	return m.deleteFn(ctx, id, requesterID)
}

// --- Mock RsvpService ---

type mockRsvpService struct {
	createFn    func(ctx context.Context, in service.CreateRsvpInput) (*models.Rsvp, error)
	updateFn    func(ctx context.Context, id uint, requesterID string, in service.UpdateRsvpInput) (*models.Rsvp, error)
	deleteFn    func(ctx context.Context, id uint, requesterID string) error
	getFn       func(ctx context.Context, id uint, requesterID string) (*models.Rsvp, error)
	listEventFn func(ctx context.Context, eventID uint, requesterID string, status *models.RsvpStatus) ([]models.Rsvp, error)
	listUserFn  func(ctx context.Context, userID string) ([]models.Rsvp, error)
}

func (m *mockRsvpService) CreateRsvp(ctx context.Context, in service.CreateRsvpInput) (*models.Rsvp, error) {
	return m.createFn(ctx, in)
}
func (m *mockRsvpService) UpdateRsvp(ctx context.Context, id uint, requesterID string, in service.UpdateRsvpInput) (*models.Rsvp, error) {
	return m.updateFn(ctx, id, requesterID, in)
}
func (m *mockRsvpService) DeleteRsvp(ctx context.Context, id uint, requesterID string) error {
	return m.deleteFn(ctx, id, requesterID)
}
func (m *mockRsvpService) GetRsvp(ctx context.Context, id uint, requesterID string) (*models.Rsvp, error) {
	return m.getFn(ctx, id, requesterID)
}
func (m *mockRsvpService) ListEventRsvps(ctx context.Context, eventID uint, requesterID string, status *models.RsvpStatus) ([]models.Rsvp, error) {
	return m.listEventFn(ctx, eventID, requesterID, status)
}
func (m *mockRsvpService) ListUserRsvps(ctx context.Context, userID string) ([]models.Rsvp, error) {
	return m.listUserFn(ctx, userID)
}
func (m *mockRsvpService) PromoteWaitlist(ctx context.Context, eventID uint) (int, error) {
	return 0, nil
}

// --- Mock RelationService ---

type mockRelationService struct {
	followFn         func(ctx context.Context, followerID, organizationID string) (*models.Follow, error)
	unfollowFn       func(ctx context.Context, followerID, organizationID string) error
	removeFollowerFn func(ctx context.Context, organizationID, followerID string) error
	requestFn        func(ctx context.Context, requesterID, recipientID string) (*models.Connection, error)
	acceptFn         func(ctx context.Context, id uint, userID string) (*models.Connection, error)
	declineFn        func(ctx context.Context, id uint, userID string) (*models.Connection, error)
	blockFn          func(ctx context.Context, id uint, userID string) (*models.Connection, error)
	removeFn         func(ctx context.Context, id uint, userID string) error
}

func (m *mockRelationService) Follow(ctx context.Context, followerID, organizationID string) (*models.Follow, error) {
	return m.followFn(ctx, followerID, organizationID)
}
func (m *mockRelationService) Unfollow(ctx context.Context, followerID, organizationID string) error {
	return m.unfollowFn(ctx, followerID, organizationID)
}
func (m *mockRelationService) RemoveFollower(ctx context.Context, organizationID, followerID string) error {
	return m.removeFollowerFn(ctx, organizationID, followerID)
}
func (m *mockRelationService) RequestConnection(ctx context.Context, requesterID, recipientID string) (*models.Connection, error) {
	return m.requestFn(ctx, requesterID, recipientID)
}
func (m *mockRelationService) AcceptConnection(ctx context.Context, id uint, userID string) (*models.Connection, error) {
	return m.acceptFn(ctx, id, userID)
}
func (m *mockRelationService) DeclineConnection(ctx context.Context, id uint, userID string) (*models.Connection, error) {
	return m.declineFn(ctx, id, userID)
}
func (m *mockRelationService) BlockConnection(ctx context.Context, id uint, userID string) (*models.Connection, error) {
	return m.blockFn(ctx, id, userID)
}
func (m *mockRelationService) RemoveConnection(ctx context.Context, id uint, userID string) error {
	return m.removeFn(ctx, id, userID)
}

// --- helpers ---

type routeRegistrar interface {
	RegisterRoutes(g *echo.Group)
}

func newServer(handlers ...routeRegistrar) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	api := e.Group("/api/v1", middleware.RequireUser(""))
	for _, h := range handlers {
		h.RegisterRoutes(api)
	}
	return e
}

func do(e *echo.Echo, method, path, userID, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if userID != "" {
		req.Header.Set(middleware.HeaderUserID, userID)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

