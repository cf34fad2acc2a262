package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Eursukkul/discovery-service/internal/models"
	"github.com/Eursukkul/discovery-service/internal/repository"
)

// SeveranceRoutingKey is the routing key severance messages are published with.
const SeveranceRoutingKey = "relation.severed"

type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

type RelationService interface {
	Follow(ctx context.Context, followerID, organizationID string) (*models.Follow, error)
	Unfollow(ctx context.Context, followerID, organizationID string) error
	RemoveFollower(ctx context.Context, organizationID, followerID string) error
	RequestConnection(ctx context.Context, requesterID, recipientID string) (*models.Connection, error)
	AcceptConnection(ctx context.Context, id uint, userID string) (*models.Connection, error)
	DeclineConnection(ctx context.Context, id uint, userID string) (*models.Connection, error)
	BlockConnection(ctx context.Context, id uint, userID string) (*models.Connection, error)
	RemoveConnection(ctx context.Context, id uint, userID string) error
}

type relationService struct {
	users     repository.UserRepository
	relations repository.RelationRepository
	social    *SocialGraph
	publisher EventPublisher
	cleanup   CleanupService
	now       func() time.Time
}

// NewRelationService wires the relation writes. publisher may be nil, in
// which case severance cleanup runs in-request through cleanup.
func NewRelationService(users repository.UserRepository, relations repository.RelationRepository, social *SocialGraph, publisher EventPublisher, cleanup CleanupService, now func() time.Time) RelationService {
	if now == nil {
		now = time.Now
	}
	return &relationService{
		users:     users,
		relations: relations,
		social:    social,
		publisher: publisher,
		cleanup:   cleanup,
		now:       now,
	}
}

func (s *relationService) Follow(ctx context.Context, followerID, organizationID string) (*models.Follow, error) {
	if followerID == "" || followerID == organizationID {
		return nil, fmt.Errorf("%w: cannot follow yourself", ErrInvalidRelation)
	}
	org, err := s.findUser(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	if org.UserType != models.UserOrganization {
		return nil, ErrNotOrganization
	}

	follow := &models.Follow{
		FollowerID:     followerID,
		OrganizationID: organizationID,
		Status:         models.RelationAccepted,
	}
	if err := s.relations.UpsertFollow(ctx, follow); err != nil {
		return nil, storeErr("follow", err)
	}
	s.social.Invalidate(ctx, followerID)
	return follow, nil
}

func (s *relationService) Unfollow(ctx context.Context, followerID, organizationID string) error {
	if err := s.deleteFollow(ctx, followerID, organizationID); err != nil {
		return err
	}
	s.sever(ctx, models.SeveredFollow, organizationID, followerID)
	return nil
}

func (s *relationService) RemoveFollower(ctx context.Context, organizationID, followerID string) error {
	if err := s.deleteFollow(ctx, followerID, organizationID); err != nil {
		return err
	}
	s.sever(ctx, models.SeveredFollow, organizationID, followerID)
	return nil
}

func (s *relationService) RequestConnection(ctx context.Context, requesterID, recipientID string) (*models.Connection, error) {
	if requesterID == "" || requesterID == recipientID {
		return nil, fmt.Errorf("%w: cannot connect to yourself", ErrInvalidRelation)
	}
	if _, err := s.findUser(ctx, recipientID); err != nil {
		return nil, err
	}

	existing, err := s.relations.FindConnectionBetween(ctx, requesterID, recipientID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return nil, storeErr("load connection", err)
	case existing.Status == models.RelationBlocked:
		return nil, ErrForbidden
	case existing.Status == models.RelationPending && existing.RecipientID == requesterID:
		// both sides asked: treat the second request as acceptance
		return s.setStatus(ctx, existing, models.RelationAccepted)
	case existing.Status == models.RelationDeclined:
		if err := s.relations.DeleteConnection(ctx, existing.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, storeErr("reset connection", err)
		}
	default:
		return existing, nil
	}

	conn := &models.Connection{
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      models.RelationPending,
	}
	if err := s.relations.CreateConnection(ctx, conn); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: connection already exists", ErrInvalidRelation)
		}
		return nil, storeErr("request connection", err)
	}
	return conn, nil
}

func (s *relationService) AcceptConnection(ctx context.Context, id uint, userID string) (*models.Connection, error) {
	conn, err := s.loadConnection(ctx, id)
	if err != nil {
		return nil, err
	}
	if conn.RecipientID != userID {
		return nil, ErrForbidden
	}
	if conn.Status != models.RelationPending {
		return nil, fmt.Errorf("%w: connection is %s", ErrInvalidRelation, conn.Status)
	}
	return s.setStatus(ctx, conn, models.RelationAccepted)
}

// DeclineConnection turns down a pending request or ends an accepted one.
func (s *relationService) DeclineConnection(ctx context.Context, id uint, userID string) (*models.Connection, error) {
	conn, err := s.loadConnection(ctx, id)
	if err != nil {
		return nil, err
	}
	switch conn.Status {
	case models.RelationPending:
		if conn.RecipientID != userID {
			return nil, ErrForbidden
		}
	case models.RelationAccepted:
		if !conn.Involves(userID) {
			return nil, ErrForbidden
		}
	default:
		return nil, fmt.Errorf("%w: connection is %s", ErrInvalidRelation, conn.Status)
	}

	updated, err := s.setStatus(ctx, conn, models.RelationDeclined)
	if err != nil {
		return nil, err
	}
	s.sever(ctx, models.SeveredConnection, userID, conn.Other(userID))
	return updated, nil
}

func (s *relationService) BlockConnection(ctx context.Context, id uint, userID string) (*models.Connection, error) {
	conn, err := s.loadConnection(ctx, id)
	if err != nil {
		return nil, err
	}
	if !conn.Involves(userID) {
		return nil, ErrForbidden
	}
	updated, err := s.setStatus(ctx, conn, models.RelationBlocked)
	if err != nil {
		return nil, err
	}
	s.sever(ctx, models.SeveredConnection, userID, conn.Other(userID))
	return updated, nil
}

func (s *relationService) RemoveConnection(ctx context.Context, id uint, userID string) error {
	conn, err := s.loadConnection(ctx, id)
	if err != nil {
		return err
	}
	if !conn.Involves(userID) {
		return ErrForbidden
	}
	if err := s.relations.DeleteConnection(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRelationNotFound
		}
		return storeErr("remove connection", err)
	}
	s.sever(ctx, models.SeveredConnection, userID, conn.Other(userID))
	return nil
}

func (s *relationService) deleteFollow(ctx context.Context, followerID, organizationID string) error {
	if err := s.relations.DeleteFollow(ctx, followerID, organizationID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRelationNotFound
		}
		return storeErr("delete follow", err)
	}
	return nil
}

func (s *relationService) setStatus(ctx context.Context, conn *models.Connection, status models.RelationStatus) (*models.Connection, error) {
	if err := s.relations.UpdateConnectionStatus(ctx, conn.ID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRelationNotFound
		}
		return nil, storeErr("update connection", err)
	}
	conn.Status = status
	s.social.Invalidate(ctx, conn.RequesterID, conn.RecipientID)
	return conn, nil
}

func (s *relationService) loadConnection(ctx context.Context, id uint) (*models.Connection, error) {
	conn, err := s.relations.FindConnection(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRelationNotFound
		}
		return nil, storeErr("load connection", err)
	}
	return conn, nil
}

func (s *relationService) findUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeErr("load user", err)
	}
	return user, nil
}

// sever announces that ownerID no longer grants removedID visibility. The
// relation write has already committed, so failures here are logged rather
// than returned.
func (s *relationService) sever(ctx context.Context, kind models.SeveranceKind, ownerID, removedID string) {
	msg := models.RelationSevered{
		MessageID: uuid.NewString(),
		Kind:      kind,
		OwnerID:   ownerID,
		RemovedID: removedID,
		SeveredAt: s.now().UTC(),
	}
	s.social.Invalidate(ctx, ownerID, removedID)

	if s.publisher != nil {
		err := s.publisher.Publish(ctx, SeveranceRoutingKey, msg)
		if err == nil {
			return
		}
		slog.WarnContext(ctx, "publish severance failed, cleaning up in-request",
			"message_id", msg.MessageID, "error", err)
	}
	if s.cleanup == nil {
		return
	}
	if err := s.cleanup.HandleSeverance(context.WithoutCancel(ctx), msg); err != nil {
		slog.ErrorContext(ctx, "severance cleanup failed",
			"message_id", msg.MessageID, "owner_id", ownerID, "removed_id", removedID, "error", err)
	}
}
