package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Eursukkul/discovery-service/internal/models"
	"github.com/Eursukkul/discovery-service/internal/repository"
	"github.com/Eursukkul/discovery-service/internal/visibility"
)

// promotionBatch bounds how many waitlisted RSVPs one release looks at.
const promotionBatch = 50

type RsvpOptions struct {
	MaxPlusOnes int
	// AutoPromote moves waitlisted RSVPs to going whenever seats free up.
	AutoPromote bool
}

func DefaultRsvpOptions() RsvpOptions {
	return RsvpOptions{MaxPlusOnes: 10, AutoPromote: true}
}

type CreateRsvpInput struct {
	EventID  uint
	UserID   string
	Status   models.RsvpStatus
	PlusOnes int
	Notes    string
}

// UpdateRsvpInput carries a partial update. Nil fields keep their value.
type UpdateRsvpInput struct {
	Status   *models.RsvpStatus
	PlusOnes *int
	Notes    *string
}

type RsvpService interface {
	CreateRsvp(ctx context.Context, in CreateRsvpInput) (*models.Rsvp, error)
	UpdateRsvp(ctx context.Context, id uint, requesterID string, in UpdateRsvpInput) (*models.Rsvp, error)
	DeleteRsvp(ctx context.Context, id uint, requesterID string) error
	GetRsvp(ctx context.Context, id uint, requesterID string) (*models.Rsvp, error)
	ListEventRsvps(ctx context.Context, eventID uint, requesterID string, status *models.RsvpStatus) ([]models.Rsvp, error)
	ListUserRsvps(ctx context.Context, userID string) ([]models.Rsvp, error)
	PromoteWaitlist(ctx context.Context, eventID uint) (int, error)
}

type rsvpService struct {
	events repository.EventRepository
	rsvps  repository.RsvpRepository
	social *SocialGraph
	opts   RsvpOptions
}

func NewRsvpService(events repository.EventRepository, rsvps repository.RsvpRepository, social *SocialGraph, opts RsvpOptions) RsvpService {
	return &rsvpService{events: events, rsvps: rsvps, social: social, opts: opts}
}

func (s *rsvpService) validate(status models.RsvpStatus, plusOnes int) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidRsvp, status)
	}
	if plusOnes < 0 || plusOnes > s.opts.MaxPlusOnes {
		return fmt.Errorf("%w: plus_ones must be between 0 and %d", ErrInvalidRsvp, s.opts.MaxPlusOnes)
	}
	return nil
}

func (s *rsvpService) CreateRsvp(ctx context.Context, in CreateRsvpInput) (*models.Rsvp, error) {
	if in.Status == "" {
		in.Status = models.RsvpGoing
	}
	if err := s.validate(in.Status, in.PlusOnes); err != nil {
		return nil, err
	}

	event, err := s.events.FindByID(ctx, in.EventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, storeErr("load event", err)
	}
	if event.CreatedBy == in.UserID {
		return nil, ErrHostCannotRsvp
	}
	visible, err := s.canSee(ctx, in.UserID, event)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, ErrEventNotFound
	}
	if event.Status != models.EventPublished {
		return nil, ErrEventNotOpen
	}

	rsvp := &models.Rsvp{
		EventID:  event.ID,
		UserID:   in.UserID,
		Status:   in.Status,
		PlusOnes: in.PlusOnes,
		Notes:    in.Notes,
	}

	reserved := 0
	if seats := rsvp.Seats(); seats > 0 {
		ok, err := s.events.TryReserveSeats(ctx, event.ID, seats)
		if err != nil {
			return nil, storeErr("reserve seats", err)
		}
		if ok {
			reserved = seats
		} else {
			rsvp.Status = models.RsvpWaitlist
			slog.InfoContext(ctx, "event full, rsvp waitlisted",
				"event_id", event.ID, "user_id", in.UserID, "seats", seats)
		}
	}

	if err := s.rsvps.Create(ctx, rsvp); err != nil {
		s.compensate(ctx, event.ID, reserved, "create rsvp")
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyRsvped
		}
		return nil, storeErr("persist rsvp", err)
	}
	return rsvp, nil
}

func (s *rsvpService) UpdateRsvp(ctx context.Context, id uint, requesterID string, in UpdateRsvpInput) (*models.Rsvp, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.UserID != requesterID {
		return nil, ErrForbidden
	}

	next := *current
	next.Event = nil
	if in.Status != nil {
		next.Status = *in.Status
	}
	if in.PlusOnes != nil {
		next.PlusOnes = *in.PlusOnes
	}
	if in.Notes != nil {
		next.Notes = *in.Notes
	}
	if err := s.validate(next.Status, next.PlusOnes); err != nil {
		return nil, err
	}

	oldSeats := current.Seats()
	reserved, release := 0, 0
	switch diff := next.Seats() - oldSeats; {
	case diff > 0:
		ok, err := s.events.TryReserveSeats(ctx, current.EventID, diff)
		if err != nil {
			return nil, storeErr("reserve seats", err)
		}
		if ok {
			reserved = diff
		} else {
			// the request as a whole does not fit: the RSVP drops to the
			// waitlist and gives back whatever it held.
			next.Status = models.RsvpWaitlist
			release = oldSeats
		}
	case diff < 0:
		release = -diff
	}

	if err := s.rsvps.UpdateIfUnchanged(ctx, &next, current.Status, current.PlusOnes); err != nil {
		s.compensate(ctx, current.EventID, reserved, "update rsvp")
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrRsvpConflict
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrRsvpNotFound
		}
		return nil, storeErr("persist rsvp", err)
	}

	if release > 0 {
		if err := s.events.ReleaseSeats(context.WithoutCancel(ctx), current.EventID, release); err != nil {
			slog.ErrorContext(ctx, "capacity reconciliation required",
				"event_id", current.EventID, "seats", release, "op", "update rsvp", "error", err)
		} else {
			s.afterRelease(ctx, current.EventID)
		}
	}
	return &next, nil
}

func (s *rsvpService) DeleteRsvp(ctx context.Context, id uint, requesterID string) error {
	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if current.UserID != requesterID {
		return ErrForbidden
	}

	removed, err := s.rsvps.Remove(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRsvpNotFound
		}
		return storeErr("remove rsvp", err)
	}
	if removed.Seats() > 0 {
		s.afterRelease(ctx, removed.EventID)
	}
	return nil
}

// GetRsvp is limited to the RSVP holder and the event host. An RSVP on an
// event the requester cannot see is reported as missing.
func (s *rsvpService) GetRsvp(ctx context.Context, id uint, requesterID string) (*models.Rsvp, error) {
	rsvp, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if rsvp.UserID == requesterID {
		return rsvp, nil
	}

	event, err := s.viewEvent(ctx, rsvp.EventID, requesterID)
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return nil, ErrRsvpNotFound
		}
		return nil, err
	}
	if event.CreatedBy != requesterID {
		return nil, ErrForbidden
	}
	return rsvp, nil
}

// ListEventRsvps lists the attendees of an event the requester can see.
// Notes are only returned to the host and to their author.
func (s *rsvpService) ListEventRsvps(ctx context.Context, eventID uint, requesterID string, status *models.RsvpStatus) ([]models.Rsvp, error) {
	if status != nil && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidRsvp, *status)
	}
	event, err := s.viewEvent(ctx, eventID, requesterID)
	if err != nil {
		return nil, err
	}
	rsvps, err := s.rsvps.FindByEventID(ctx, eventID, status)
	if err != nil {
		return nil, storeErr("list rsvps", err)
	}
	if event.CreatedBy != requesterID {
		for i := range rsvps {
			if rsvps[i].UserID != requesterID {
				rsvps[i].Notes = ""
			}
		}
	}
	return rsvps, nil
}

func (s *rsvpService) ListUserRsvps(ctx context.Context, userID string) ([]models.Rsvp, error) {
	rsvps, err := s.rsvps.FindByUserID(ctx, userID)
	if err != nil {
		return nil, storeErr("list rsvps", err)
	}
	return rsvps, nil
}

// PromoteWaitlist moves waitlisted RSVPs to going, oldest first, until the
// next one in line does not fit. It returns how many were promoted.
func (s *rsvpService) PromoteWaitlist(ctx context.Context, eventID uint) (int, error) {
	queue, err := s.rsvps.FindWaitlisted(ctx, eventID, promotionBatch)
	if err != nil {
		return 0, storeErr("load waitlist", err)
	}

	promoted := 0
	for _, r := range queue {
		seats := models.SeatsFor(models.RsvpGoing, r.PlusOnes)
		ok, err := s.events.TryReserveSeats(ctx, eventID, seats)
		if err != nil {
			return promoted, storeErr("reserve seats", err)
		}
		if !ok {
			break
		}

		next := r
		next.Event = nil
		next.Status = models.RsvpGoing
		if err := s.rsvps.UpdateIfUnchanged(ctx, &next, r.Status, r.PlusOnes); err != nil {
			s.compensate(ctx, eventID, seats, "promote waitlist")
			if errors.Is(err, repository.ErrConflict) || errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return promoted, storeErr("promote rsvp", err)
		}
		promoted++
		slog.InfoContext(ctx, "waitlisted rsvp promoted",
			"event_id", eventID, "rsvp_id", r.ID, "user_id", r.UserID, "seats", seats)
	}
	return promoted, nil
}

func (s *rsvpService) load(ctx context.Context, id uint) (*models.Rsvp, error) {
	rsvp, err := s.rsvps.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRsvpNotFound
		}
		return nil, storeErr("load rsvp", err)
	}
	return rsvp, nil
}

// viewEvent loads an event for reading. Drafts are visible to their host
// only; events the requester cannot see are ErrEventNotFound.
func (s *rsvpService) viewEvent(ctx context.Context, eventID uint, requesterID string) (*models.Event, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, storeErr("load event", err)
	}
	if event.CreatedBy == requesterID {
		return event, nil
	}
	if event.Status == models.EventDraft {
		return nil, ErrEventNotFound
	}
	visible, err := s.canSee(ctx, requesterID, event)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, ErrEventNotFound
	}
	return event, nil
}

func (s *rsvpService) canSee(ctx context.Context, userID string, event *models.Event) (bool, error) {
	if s.social == nil || event.Visibility == models.VisibilityPublic {
		return true, nil
	}
	snap, err := s.social.Snapshot(ctx, userID)
	if err != nil {
		return false, err
	}
	return visibility.CanSeeAny(event.Visibility, visibility.RelationsOf(userID, event.CreatedBy, snap)), nil
}

// compensate gives back seats reserved for a write that did not persist. It
// runs detached from request cancellation.
func (s *rsvpService) compensate(ctx context.Context, eventID uint, seats int, op string) {
	if seats <= 0 {
		return
	}
	if err := s.events.ReleaseSeats(context.WithoutCancel(ctx), eventID, seats); err != nil {
		slog.ErrorContext(ctx, "capacity reconciliation required",
			"event_id", eventID, "seats", seats, "op", op, "error", err)
	}
}

func (s *rsvpService) afterRelease(ctx context.Context, eventID uint) {
	if !s.opts.AutoPromote {
		return
	}
	if _, err := s.PromoteWaitlist(context.WithoutCancel(ctx), eventID); err != nil {
		slog.WarnContext(ctx, "waitlist promotion failed", "event_id", eventID, "error", err)
	}
}
