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

// CleanupService revokes RSVPs that a severed relation no longer allows.
type CleanupService interface {
	HandleSeverance(ctx context.Context, msg models.RelationSevered) error
}

type cleanupService struct {
	rsvps    repository.RsvpRepository
	social   *SocialGraph
	promoter WaitlistPromoter
}

// NewCleanupService builds the cleanup handler. promoter may be nil to leave
// released seats unclaimed.
func NewCleanupService(rsvps repository.RsvpRepository, social *SocialGraph, promoter WaitlistPromoter) CleanupService {
	return &cleanupService{rsvps: rsvps, social: social, promoter: promoter}
}

// HandleSeverance is safe to run more than once for the same message.
func (s *cleanupService) HandleSeverance(ctx context.Context, msg models.RelationSevered) error {
	if msg.OwnerID == "" || msg.RemovedID == "" {
		return fmt.Errorf("%w: severance needs both parties", ErrInvalidRelation)
	}
	s.social.Invalidate(ctx, msg.OwnerID, msg.RemovedID)

	errs := []error{s.revoke(ctx, msg.OwnerID, msg.RemovedID)}
	if msg.Kind == models.SeveredConnection {
		errs = append(errs, s.revoke(ctx, msg.RemovedID, msg.OwnerID))
	}
	return errors.Join(errs...)
}

// revoke removes memberID's RSVPs on ownerID's events that memberID can no
// longer see.
func (s *cleanupService) revoke(ctx context.Context, ownerID, memberID string) error {
	rsvps, err := s.rsvps.FindByUserOnCreatorEvents(ctx, memberID, ownerID)
	if err != nil {
		return storeErr("load rsvps", err)
	}
	if len(rsvps) == 0 {
		return nil
	}

	snap, err := s.social.Fresh(ctx, memberID)
	if err != nil {
		return err
	}
	rels := visibility.RelationsOf(memberID, ownerID, snap)

	var errs []error
	for _, r := range rsvps {
		if r.Event == nil || visibility.CanSeeAny(r.Event.Visibility, rels) {
			continue
		}
		removed, err := s.rsvps.RemoveByEventAndUser(ctx, r.EventID, memberID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			errs = append(errs, storeErr("revoke rsvp", err))
			continue
		}
		slog.InfoContext(ctx, "rsvp revoked after relation severed",
			"event_id", r.EventID, "user_id", memberID, "owner_id", ownerID, "seats_released", removed.Seats())

		if removed.Seats() > 0 && s.promoter != nil {
			if _, err := s.promoter.PromoteWaitlist(ctx, r.EventID); err != nil {
				slog.WarnContext(ctx, "waitlist promotion failed", "event_id", r.EventID, "error", err)
			}
		}
	}
	return errors.Join(errs...)
}
