package service

import (
	"errors"
	"fmt"
)

var (
	ErrEventNotFound             = errors.New("event not found")
	ErrRsvpNotFound              = errors.New("rsvp not found")
	ErrUserNotFound              = errors.New("user not found")
	ErrRelationNotFound          = errors.New("relation not found")
	ErrForbidden                 = errors.New("requester does not own this resource")
	ErrHostCannotRsvp            = errors.New("hosts cannot rsvp to their own events")
	ErrEventNotOpen              = errors.New("event is not accepting rsvps")
	ErrAlreadyRsvped             = errors.New("user already has an rsvp for this event")
	ErrRsvpConflict              = errors.New("rsvp was modified concurrently, retry")
	ErrInvalidRsvp               = errors.New("invalid rsvp")
	ErrInvalidEvent              = errors.New("invalid event")
	ErrCapacityBelowParticipants = errors.New("capacity is below the confirmed participant count")
	ErrInvalidFeedQuery          = errors.New("invalid feed query")
	ErrNotOrganization           = errors.New("only organizations can be followed")
	ErrInvalidRelation           = errors.New("invalid relation")
	ErrTransientStore            = errors.New("store unavailable")
)

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrTransientStore, err)
}
