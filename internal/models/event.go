package models

import (
	"time"

	"github.com/lib/pq"
)

type EventStatus string

const (
	EventPublished EventStatus = "published"
	EventPast      EventStatus = "past"
	EventDraft     EventStatus = "draft"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventPublished, EventPast, EventDraft:
		return true
	}
	return false
}

type Visibility string

const (
	VisibilityPublic      Visibility = "public"
	VisibilityMutuals     Visibility = "mutuals"
	VisibilityFollowers   Visibility = "followers"
	VisibilityFriends     Visibility = "friends"
	VisibilityConnections Visibility = "connections"
	VisibilityPrivate     Visibility = "private"
)

func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityMutuals, VisibilityFollowers, VisibilityFriends, VisibilityConnections, VisibilityPrivate:
		return true
	}
	return false
}

// Location is stored inline on the events table with a location_ prefix.
type Location struct {
	Address   string  `gorm:"size:500" json:"address"`
	Longitude float64 `gorm:"not null" json:"longitude"`
	Latitude  float64 `gorm:"not null;check:chk_events_coordinates,location_latitude BETWEEN -90 AND 90 AND location_longitude BETWEEN -180 AND 180" json:"latitude"`
}

type Event struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Title            string         `gorm:"not null;size:255" json:"title"`
	Slug             string         `gorm:"size:255;index" json:"slug"`
	Description      string         `gorm:"type:text" json:"description"`
	StartDateTime    time.Time      `gorm:"not null;index" json:"start_date_time"`
	EndDateTime      *time.Time     `json:"end_date_time,omitempty"`
	Capacity         *int           `json:"capacity,omitempty"`
	ParticipantCount int            `gorm:"not null;default:0;check:chk_events_participants,participant_count >= 0 AND (capacity IS NULL OR participant_count <= capacity)" json:"participant_count"`
	Status           EventStatus    `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	Visibility       Visibility     `gorm:"type:varchar(20);not null;default:'public'" json:"visibility"`
	Location         Location       `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	Tags             pq.StringArray `gorm:"type:text[]" json:"tags"`
	Images           pq.StringArray `gorm:"type:text[]" json:"images"`
	CreatedBy        string         `gorm:"not null;size:64;index" json:"created_by"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// FeedCutoff is the instant an event stops counting as upcoming: its end when
// set, otherwise its start.
func (e *Event) FeedCutoff() time.Time {
	if e.EndDateTime != nil {
		return *e.EndDateTime
	}
	return e.StartDateTime
}

// SeatsAvailable returns -1 for events without a capacity limit.
func (e *Event) SeatsAvailable() int {
	if e.Capacity == nil {
		return -1
	}
	if left := *e.Capacity - e.ParticipantCount; left > 0 {
		return left
	}
	return 0
}
