package models

import "time"

type RsvpStatus string

const (
	RsvpGoing      RsvpStatus = "going"
	RsvpInterested RsvpStatus = "interested"
	RsvpWaitlist   RsvpStatus = "waitlist"
)

func (s RsvpStatus) Valid() bool {
	switch s {
	case RsvpGoing, RsvpInterested, RsvpWaitlist:
		return true
	}
	return false
}

type Rsvp struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	EventID   uint       `gorm:"not null;uniqueIndex:idx_rsvps_event_user" json:"event_id"`
	UserID    string     `gorm:"not null;size:64;uniqueIndex:idx_rsvps_event_user;index" json:"user_id"`
	Status    RsvpStatus `gorm:"type:varchar(20);not null;default:'going'" json:"status"`
	PlusOnes  int        `gorm:"not null;default:0;check:chk_rsvps_plus_ones,plus_ones >= 0" json:"plus_ones"`
	Notes     string     `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Event *Event `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"-"`
}

// SeatsFor is the number of capacity slots an RSVP in the given state holds.
// Only going RSVPs consume seats.
func SeatsFor(status RsvpStatus, plusOnes int) int {
	if status != RsvpGoing {
		return 0
	}
	return 1 + plusOnes
}

func (r *Rsvp) Seats() int {
	return SeatsFor(r.Status, r.PlusOnes)
}
