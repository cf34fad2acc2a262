package dto

import (
	"math"
	"time"

	"github.com/Eursukkul/discovery-service/internal/geo"
	"github.com/Eursukkul/discovery-service/internal/models"
	"github.com/Eursukkul/discovery-service/internal/service"
)

type LocationResponse struct {
	Address     string     `json:"address"`
	Coordinates [2]float64 `json:"coordinates"`
}

type EventResponse struct {
	ID               uint               `json:"id"`
	Title            string             `json:"title"`
	Slug             string             `json:"slug"`
	Description      string             `json:"description"`
	StartDateTime    time.Time          `json:"start_date_time"`
	EndDateTime      *time.Time         `json:"end_date_time,omitempty"`
	Capacity         *int               `json:"capacity"`
	ParticipantCount int                `json:"participant_count"`
	SeatsAvailable   *int               `json:"seats_available"`
	Status           models.EventStatus `json:"status"`
	Visibility       models.Visibility  `json:"visibility"`
	Location         LocationResponse   `json:"location"`
	Tags             []string           `json:"tags"`
	Images           []string           `json:"images"`
	CreatedBy        string             `json:"created_by"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

type FeedItemResponse struct {
	EventResponse
	Creator       models.CreatorSummary `json:"creator"`
	DistanceMiles float64               `json:"distance_miles"`
}

type RsvpResponse struct {
	ID        uint              `json:"id"`
	EventID   uint              `json:"event_id"`
	UserID    string            `json:"user_id"`
	Status    models.RsvpStatus `json:"status"`
	PlusOnes  int               `json:"plus_ones"`
	Seats     int               `json:"seats"`
	Notes     string            `json:"notes,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

type FollowResponse struct {
	FollowerID     string                `json:"follower_id"`
	OrganizationID string                `json:"organization_id"`
	Status         models.RelationStatus `json:"status"`
}

type ConnectionResponse struct {
	ID          uint                  `json:"id"`
	RequesterID string                `json:"requester_id"`
	RecipientID string                `json:"recipient_id"`
	Status      models.RelationStatus `json:"status"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToEventResponse(e *models.Event) EventResponse {
	resp := EventResponse{
		ID:               e.ID,
		Title:            e.Title,
		Slug:             e.Slug,
		Description:      e.Description,
		StartDateTime:    e.StartDateTime,
		EndDateTime:      e.EndDateTime,
		Capacity:         e.Capacity,
		ParticipantCount: e.ParticipantCount,
		Status:           e.Status,
		Visibility:       e.Visibility,
		Location: LocationResponse{
			Address:     e.Location.Address,
			Coordinates: geo.Point{Longitude: e.Location.Longitude, Latitude: e.Location.Latitude}.Coordinates(),
		},
		Tags:      nonNil(e.Tags),
		Images:    nonNil(e.Images),
		CreatedBy: e.CreatedBy,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
	if left := e.SeatsAvailable(); left >= 0 {
		resp.SeatsAvailable = &left
	}
	return resp
}

func ToFeedResponse(items []service.FeedItem) []FeedItemResponse {
	resp := make([]FeedItemResponse, len(items))
	for i, it := range items {
		resp[i] = FeedItemResponse{
			EventResponse: ToEventResponse(&it.Event),
			Creator:       it.Creator,
			DistanceMiles: math.Round(it.DistanceMiles*100) / 100,
		}
	}
	return resp
}

func ToRsvpResponse(r *models.Rsvp) RsvpResponse {
	return RsvpResponse{
		ID:        r.ID,
		EventID:   r.EventID,
		UserID:    r.UserID,
		Status:    r.Status,
		PlusOnes:  r.PlusOnes,
		Seats:     r.Seats(),
		Notes:     r.Notes,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func ToRsvpResponses(rsvps []models.Rsvp) []RsvpResponse {
	resp := make([]RsvpResponse, len(rsvps))
	for i := range rsvps {
		resp[i] = ToRsvpResponse(&rsvps[i])
	}
	return resp
}

func ToFollowResponse(f *models.Follow) FollowResponse {
	return FollowResponse{FollowerID: f.FollowerID, OrganizationID: f.OrganizationID, Status: f.Status}
}

func ToConnectionResponse(c *models.Connection) ConnectionResponse {
	return ConnectionResponse{ID: c.ID, RequesterID: c.RequesterID, RecipientID: c.RecipientID, Status: c.Status}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
