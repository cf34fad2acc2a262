// Package visibility decides whether a requester may see an event given
// their relation to its creator. It has no dependencies on storage.
package visibility

import (
	"slices"

	"github.com/Eursukkul/discovery-service/internal/models"
)

// Relation is the requester's social relation to an event creator.
type Relation string

const (
	RelationSelf      Relation = "self"
	RelationConnected Relation = "connected"
	RelationFollowed  Relation = "followed"
	RelationNone      Relation = "none"
)

// CanSee is the bouncer decision table. Every case is checked; the order of
// the terms is irrelevant.
func CanSee(v models.Visibility, r Relation) bool {
	return r == RelationSelf ||
		v == models.VisibilityPublic ||
		(isConnectionScoped(v) && r == RelationConnected) ||
		(v == models.VisibilityFollowers && r == RelationFollowed)
}

// CanSeeAny admits the event if any of the relations that hold admits it.
func CanSeeAny(v models.Visibility, rels []Relation) bool {
	if len(rels) == 0 {
		return CanSee(v, RelationNone)
	}
	for _, r := range rels {
		if CanSee(v, r) {
			return true
		}
	}
	return false
}

func isConnectionScoped(v models.Visibility) bool {
	switch v {
	case models.VisibilityMutuals, models.VisibilityFriends, models.VisibilityConnections:
		return true
	}
	return false
}

// RelationsOf lists every relation requesterID has to creatorID according to
// snap. The result is never empty; it is [RelationNone] when nothing holds.
func RelationsOf(requesterID, creatorID string, snap models.SocialSnapshot) []Relation {
	if requesterID != "" && requesterID == creatorID {
		return []Relation{RelationSelf}
	}
	var rels []Relation
	if slices.Contains(snap.ConnectionIDs, creatorID) {
		rels = append(rels, RelationConnected)
	}
	if slices.Contains(snap.FollowingIDs, creatorID) {
		rels = append(rels, RelationFollowed)
	}
	if len(rels) == 0 {
		return []Relation{RelationNone}
	}
	return rels
}

// Primary picks the strongest relation for display: self, connected,
// followed, none.
func Primary(rels []Relation) Relation {
	for _, want := range []Relation{RelationSelf, RelationConnected, RelationFollowed} {
		if slices.Contains(rels, want) {
			return want
		}
	}
	return RelationNone
}
