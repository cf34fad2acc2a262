package dto

import (
	"time"

	"github.com/Eursukkul/discovery-service/internal/models"
)

// LocationRequest carries coordinates as [longitude, latitude].
type LocationRequest struct {
	Address     string    `json:"address"`
	Coordinates []float64 `json:"coordinates"`
}

type CreateEventRequest struct {
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	StartDateTime time.Time          `json:"start_date_time"`
	EndDateTime   *time.Time         `json:"end_date_time"`
	Capacity      *int               `json:"capacity"`
	Status        models.EventStatus `json:"status"`
	Visibility    models.Visibility  `json:"visibility"`
	Location      LocationRequest    `json:"location"`
	Tags          []string           `json:"tags"`
	Images        []string           `json:"images"`
}

// UpdateEventRequest is a partial update; omitted fields are left alone.
type UpdateEventRequest struct {
	Title            *string             `json:"title"`
	Description      *string             `json:"description"`
	StartDateTime    *time.Time          `json:"start_date_time"`
	EndDateTime      *time.Time          `json:"end_date_time"`
	ClearEndDateTime bool                `json:"clear_end_date_time"`
	Capacity         *int                `json:"capacity"`
	ClearCapacity    bool                `json:"clear_capacity"`
	Status           *models.EventStatus `json:"status"`
	Visibility       *models.Visibility  `json:"visibility"`
	Location         *LocationRequest    `json:"location"`
	Tags             []string            `json:"tags"`
	Images           []string            `json:"images"`
}

type CreateRsvpRequest struct {
	Status   models.RsvpStatus `json:"status"`
	PlusOnes int               `json:"plus_ones"`
	Notes    string            `json:"notes"`
}

type UpdateRsvpRequest struct {
	Status   *models.RsvpStatus `json:"status"`
	PlusOnes *int               `json:"plus_ones"`
	Notes    *string            `json:"notes"`
}

type ConnectionRequest struct {
	RecipientID string `json:"recipient_id"`
}
