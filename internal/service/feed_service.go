package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/Eursukkul/discovery-service/internal/geo"
	"github.com/Eursukkul/discovery-service/internal/models"
	"github.com/Eursukkul/discovery-service/internal/repository"
	"github.com/Eursukkul/discovery-service/internal/visibility"
)

type FeedQuery struct {
	UserID      string
	Longitude   float64
	Latitude    float64
	RadiusMiles float64
	Limit       int
}

// FeedItem is what leaves the assembler: the event, its creator's public
// summary and the distance from the query point in miles.
type FeedItem struct {
	Event         models.Event
	Creator       models.CreatorSummary
	DistanceMiles float64
}

type FeedOptions struct {
	// GraceWindow keeps events in the feed for this long after they end
	// (or start, when they have no end).
	GraceWindow    time.Duration
	MaxRadiusMiles float64
	DefaultLimit   int
	MaxLimit       int
	// CandidateLimit bounds the proximity stage before social filtering.
	CandidateLimit int
}

func DefaultFeedOptions() FeedOptions {
	return FeedOptions{
		GraceWindow:    12 * time.Hour,
		MaxRadiusMiles: 250,
		DefaultLimit:   50,
		MaxLimit:       200,
		CandidateLimit: 1000,
	}
}

type FeedService interface {
	GetDiscoveryFeed(ctx context.Context, q FeedQuery) ([]FeedItem, error)
}

type feedService struct {
	events repository.EventRepository
	users  repository.UserRepository
	social *SocialGraph
	opts   FeedOptions
	now    func() time.Time
}

func NewFeedService(events repository.EventRepository, users repository.UserRepository, social *SocialGraph, opts FeedOptions, now func() time.Time) FeedService {
	if now == nil {
		now = time.Now
	}
	return &feedService{events: events, users: users, social: social, opts: opts, now: now}
}

// candidate carries per-event scratch state between stages. It is never
// returned to callers.
type candidate struct {
	event     models.Event
	distance  float64
	relations []visibility.Relation
}

func (s *feedService) GetDiscoveryFeed(ctx context.Context, q FeedQuery) ([]FeedItem, error) {
	center, limit, err := s.validate(q)
	if err != nil {
		return nil, err
	}
	cutoff := s.now().Add(-s.opts.GraceWindow)

	cands, err := s.proximityStage(ctx, center, q.RadiusMiles, cutoff)
	if err != nil {
		return nil, err
	}
	fetched := len(cands)

	cands = statusStage(cands, cutoff)
	if len(cands) == 0 {
		return []FeedItem{}, nil
	}

	cands, err = s.socialStage(ctx, q.UserID, cands)
	if err != nil {
		return nil, err
	}

	cands = bouncerStage(cands)
	if len(cands) > limit {
		cands = cands[:limit]
	}

	items, err := s.projectionStage(ctx, cands)
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "discovery feed assembled",
		"user_id", q.UserID,
		"radius_miles", q.RadiusMiles,
		"candidates", fetched,
		"visible", len(items),
	)
	return items, nil
}

func (s *feedService) validate(q FeedQuery) (geo.Point, int, error) {
	center := geo.Point{Longitude: q.Longitude, Latitude: q.Latitude}
	if err := center.Validate(); err != nil {
		return center, 0, fmt.Errorf("%w: %w", ErrInvalidFeedQuery, err)
	}
	if !(q.RadiusMiles > 0) {
		return center, 0, fmt.Errorf("%w: radius must be greater than zero", ErrInvalidFeedQuery)
	}
	if s.opts.MaxRadiusMiles > 0 && q.RadiusMiles > s.opts.MaxRadiusMiles {
		return center, 0, fmt.Errorf("%w: radius must not exceed %g miles", ErrInvalidFeedQuery, s.opts.MaxRadiusMiles)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = s.opts.DefaultLimit
	}
	if s.opts.MaxLimit > 0 && limit > s.opts.MaxLimit {
		limit = s.opts.MaxLimit
	}
	return center, limit, nil
}

// proximityStage selects events inside the radius, nearest first. The
// status/time predicate rides along so the store can discard drafts early.
func (s *feedService) proximityStage(ctx context.Context, center geo.Point, radius float64, cutoff time.Time) ([]candidate, error) {
	rows, err := s.events.FindNearby(ctx, repository.NearbyQuery{
		Center:      center,
		RadiusMiles: radius,
		Status:      models.EventPublished,
		EndsAfter:   cutoff,
		Limit:       s.opts.CandidateLimit,
	})
	if err != nil {
		return nil, storeErr("proximity stage", err)
	}

	cands := make([]candidate, 0, len(rows))
	for _, row := range rows {
		cands = append(cands, candidate{event: row.Event, distance: row.DistanceMiles})
	}
	slices.SortStableFunc(cands, func(a, b candidate) int {
		return cmp.Compare(a.distance, b.distance)
	})
	return cands, nil
}

// statusStage keeps published events that have not ended before cutoff.
func statusStage(cands []candidate, cutoff time.Time) []candidate {
	return slices.DeleteFunc(cands, func(c candidate) bool {
		return c.event.Status != models.EventPublished || c.event.FeedCutoff().Before(cutoff)
	})
}

func (s *feedService) socialStage(ctx context.Context, userID string, cands []candidate) ([]candidate, error) {
	snap, err := s.social.Snapshot(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("social stage: %w", err)
	}
	for i := range cands {
		cands[i].relations = visibility.RelationsOf(userID, cands[i].event.CreatedBy, snap)
	}
	return cands, nil
}

func bouncerStage(cands []candidate) []candidate {
	return slices.DeleteFunc(cands, func(c candidate) bool {
		return !visibility.CanSeeAny(c.event.Visibility, c.relations)
	})
}

// projectionStage joins public creator summaries and drops scratch state.
func (s *feedService) projectionStage(ctx context.Context, cands []candidate) ([]FeedItem, error) {
	creatorIDs := make([]string, 0, len(cands))
	for _, c := range cands {
		if !slices.Contains(creatorIDs, c.event.CreatedBy) {
			creatorIDs = append(creatorIDs, c.event.CreatedBy)
		}
	}
	summaries, err := s.users.FindSummaries(ctx, creatorIDs)
	if err != nil {
		return nil, storeErr("projection stage", err)
	}

	items := make([]FeedItem, 0, len(cands))
	for _, c := range cands {
		creator, ok := summaries[c.event.CreatedBy]
		if !ok {
			creator = models.CreatorSummary{ID: c.event.CreatedBy}
		}
		items = append(items, FeedItem{
			Event:         c.event,
			Creator:       creator,
			DistanceMiles: c.distance,
		})
	}
	return items, nil
}
