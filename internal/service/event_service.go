package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/Eursukkul/discovery-service/internal/geo"
	"github.com/Eursukkul/discovery-service/internal/models"
	"github.com/Eursukkul/discovery-service/internal/repository"
	"github.com/Eursukkul/discovery-service/internal/visibility"
)

type CreateEventInput struct {
	Title         string
	Description   string
	StartDateTime time.Time
	EndDateTime   *time.Time
	Capacity      *int
	Status        models.EventStatus
	Visibility    models.Visibility
	Address       string
	Longitude     float64
	Latitude      float64
	Tags          []string
	Images        []string
	CreatedBy     string
}

// UpdateEventInput is a partial update. ClearEnd and ClearCapacity remove
// the optional end time and capacity limit.
type UpdateEventInput struct {
	Title         *string
	Description   *string
	StartDateTime *time.Time
	EndDateTime   *time.Time
	ClearEnd      bool
	Capacity      *int
	ClearCapacity bool
	Status        *models.EventStatus
	Visibility    *models.Visibility
	Address       *string
	Longitude     *float64
	Latitude      *float64
	Tags          []string
	Images        []string
}

// WaitlistPromoter is satisfied by RsvpService.
type WaitlistPromoter interface {
	PromoteWaitlist(ctx context.Context, eventID uint) (int, error)
}

type EventService interface {
	CreateEvent(ctx context.Context, in CreateEventInput) (*models.Event, error)
	GetEvent(ctx context.Context, id uint, requesterID string) (*models.Event, error)
	UpdateEvent(ctx context.Context, id uint, requesterID string, in UpdateEventInput) (*models.Event, error)
	DeleteEvent(ctx context.Context, id uint, requesterID string) error
}

type eventService struct {
	repo     repository.EventRepository
	social   *SocialGraph
	promoter WaitlistPromoter
}

func NewEventService(repo repository.EventRepository, social *SocialGraph, promoter WaitlistPromoter) EventService {
	return &eventService{repo: repo, social: social, promoter: promoter}
}

func (s *eventService) CreateEvent(ctx context.Context, in CreateEventInput) (*models.Event, error) {
	if in.CreatedBy == "" {
		return nil, fmt.Errorf("%w: creator is required", ErrInvalidEvent)
	}
	if in.Status == "" {
		in.Status = models.EventPublished
	}
	if in.Visibility == "" {
		in.Visibility = models.VisibilityPublic
	}

	event := &models.Event{
		Title:         strings.TrimSpace(in.Title),
		Description:   in.Description,
		StartDateTime: in.StartDateTime,
		EndDateTime:   in.EndDateTime,
		Capacity:      in.Capacity,
		Status:        in.Status,
		Visibility:    in.Visibility,
		Location: models.Location{
			Address:   strings.TrimSpace(in.Address),
			Longitude: in.Longitude,
			Latitude:  in.Latitude,
		},
		Tags:      normalizeTags(in.Tags),
		Images:    in.Images,
		CreatedBy: in.CreatedBy,
	}
	event.Slug = slug.Make(event.Title)
	if err := validateEvent(event); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, storeErr("create event", err)
	}
	slog.InfoContext(ctx, "event created", "event_id", event.ID, "created_by", event.CreatedBy, "visibility", event.Visibility)
	return event, nil
}

// GetEvent hides drafts from everyone but the creator, and events the
// requester may not see are reported as missing.
func (s *eventService) GetEvent(ctx context.Context, id uint, requesterID string) (*models.Event, error) {
	event, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.CreatedBy == requesterID {
		return event, nil
	}
	if event.Status == models.EventDraft {
		return nil, ErrEventNotFound
	}
	if event.Visibility != models.VisibilityPublic && s.social != nil {
		snap, err := s.social.Snapshot(ctx, requesterID)
		if err != nil {
			return nil, err
		}
		if !visibility.CanSeeAny(event.Visibility, visibility.RelationsOf(requesterID, event.CreatedBy, snap)) {
			return nil, ErrEventNotFound
		}
	}
	return event, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, id uint, requesterID string, in UpdateEventInput) (*models.Event, error) {
	event, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.CreatedBy != requesterID {
		return nil, ErrForbidden
	}
	prevCapacity := event.Capacity

	if in.Title != nil {
		event.Title = strings.TrimSpace(*in.Title)
		event.Slug = slug.Make(event.Title)
	}
	if in.Description != nil {
		event.Description = *in.Description
	}
	if in.StartDateTime != nil {
		event.StartDateTime = *in.StartDateTime
	}
	switch {
	case in.ClearEnd:
		event.EndDateTime = nil
	case in.EndDateTime != nil:
		event.EndDateTime = in.EndDateTime
	}
	switch {
	case in.ClearCapacity:
		event.Capacity = nil
	case in.Capacity != nil:
		event.Capacity = in.Capacity
	}
	if in.Status != nil {
		event.Status = *in.Status
	}
	if in.Visibility != nil {
		event.Visibility = *in.Visibility
	}
	if in.Address != nil {
		event.Location.Address = strings.TrimSpace(*in.Address)
	}
	if in.Longitude != nil {
		event.Location.Longitude = *in.Longitude
	}
	if in.Latitude != nil {
		event.Location.Latitude = *in.Latitude
	}
	if in.Tags != nil {
		event.Tags = normalizeTags(in.Tags)
	}
	if in.Images != nil {
		event.Images = in.Images
	}

	if err := validateEvent(event); err != nil {
		return nil, err
	}
	if event.Capacity != nil && *event.Capacity < event.ParticipantCount {
		return nil, ErrCapacityBelowParticipants
	}

	if err := s.repo.Update(ctx, event); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, ErrCapacityBelowParticipants
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrEventNotFound
		}
		return nil, storeErr("update event", err)
	}

	if s.promoter != nil && capacityGrew(prevCapacity, event.Capacity) {
		if _, err := s.promoter.PromoteWaitlist(context.WithoutCancel(ctx), event.ID); err != nil {
			slog.WarnContext(ctx, "waitlist promotion failed", "event_id", event.ID, "error", err)
		}
	}
	return event, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, id uint, requesterID string) error {
	event, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if event.CreatedBy != requesterID {
		return ErrForbidden
	}

	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEventNotFound
		}
		return storeErr("delete event", err)
	}
	slog.InfoContext(ctx, "event deleted", "event_id", id, "rsvps_removed", removed)
	return nil
}

func (s *eventService) load(ctx context.Context, id uint) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, storeErr("load event", err)
	}
	return event, nil
}

func validateEvent(e *models.Event) error {
	switch {
	case e.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidEvent)
	case e.StartDateTime.IsZero():
		return fmt.Errorf("%w: start_date_time is required", ErrInvalidEvent)
	case e.EndDateTime != nil && !e.EndDateTime.After(e.StartDateTime):
		return fmt.Errorf("%w: end_date_time must be after start_date_time", ErrInvalidEvent)
	case e.Capacity != nil && *e.Capacity <= 0:
		return fmt.Errorf("%w: capacity must be greater than zero", ErrInvalidEvent)
	case !e.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrInvalidEvent, e.Status)
	case !e.Visibility.Valid():
		return fmt.Errorf("%w: unknown visibility %q", ErrInvalidEvent, e.Visibility)
	}
	point := geo.Point{Longitude: e.Location.Longitude, Latitude: e.Location.Latitude}
	if err := point.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	return nil
}

// normalizeTags trims, lowercases and de-duplicates while keeping first
// occurrence order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func capacityGrew(prev, next *int) bool {
	switch {
	case next == nil:
		return prev != nil
	case prev == nil:
		return false
	}
	return *next > *prev
}
