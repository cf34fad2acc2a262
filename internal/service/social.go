package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Eursukkul/discovery-service/internal/models"
	"github.com/Eursukkul/discovery-service/internal/repository"
)

// SocialCache stores social snapshots for a short time. Misses and cache
// failures both fall through to the relation store.
type SocialCache interface {
	Get(ctx context.Context, userID string) (*models.SocialSnapshot, bool)
	Set(ctx context.Context, snap models.SocialSnapshot)
	Invalidate(ctx context.Context, userIDs ...string)
}

// SocialGraph answers "who is this user connected to and following".
type SocialGraph struct {
	users     repository.UserRepository
	relations repository.RelationRepository
	cache     SocialCache
}

func NewSocialGraph(users repository.UserRepository, relations repository.RelationRepository, cache SocialCache) *SocialGraph {
	return &SocialGraph{users: users, relations: relations, cache: cache}
}

// Snapshot may return data up to the cache TTL old.
func (g *SocialGraph) Snapshot(ctx context.Context, userID string) (models.SocialSnapshot, error) {
	if g.cache != nil {
		if snap, ok := g.cache.Get(ctx, userID); ok {
			return *snap, nil
		}
	}
	snap, known, err := g.load(ctx, userID)
	if err != nil {
		return models.SocialSnapshot{}, err
	}
	if known && g.cache != nil {
		g.cache.Set(ctx, snap)
	}
	return snap, nil
}

// Fresh always reads the relation store.
func (g *SocialGraph) Fresh(ctx context.Context, userID string) (models.SocialSnapshot, error) {
	snap, _, err := g.load(ctx, userID)
	return snap, err
}

func (g *SocialGraph) Invalidate(ctx context.Context, userIDs ...string) {
	if g.cache != nil {
		g.cache.Invalidate(ctx, userIDs...)
	}
}

// load fails open: a user that does not resolve gets an empty snapshot,
// which limits them to public events.
func (g *SocialGraph) load(ctx context.Context, userID string) (models.SocialSnapshot, bool, error) {
	empty := models.SocialSnapshot{UserID: userID}
	if userID == "" {
		return empty, false, nil
	}
	if _, err := g.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			slog.DebugContext(ctx, "social lookup for unknown user, using public-only view", "user_id", userID)
			return empty, false, nil
		}
		return empty, false, storeErr("load user", err)
	}

	connections, err := g.relations.AcceptedConnectionIDs(ctx, userID)
	if err != nil {
		return empty, false, storeErr("load connections", err)
	}
	following, err := g.relations.FollowingIDs(ctx, userID)
	if err != nil {
		return empty, false, storeErr("load follows", err)
	}
	return models.SocialSnapshot{
		UserID:        userID,
		ConnectionIDs: connections,
		FollowingIDs:  following,
	}, true, nil
}
