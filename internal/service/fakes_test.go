package service

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Eursukkul/discovery-service/internal/geo"
	"github.com/Eursukkul/discovery-service/internal/models"
	"github.com/Eursukkul/discovery-service/internal/repository"
)

var testEpoch = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

// memStore backs every fake repository. One mutex guards all tables so the
// conditional seat update behaves like the single SQL statement it stands in
// for.
type memStore struct {
	mu      sync.Mutex
	nextID  uint
	events  map[uint]*models.Event
	rsvps   map[uint]*models.Rsvp
	users   map[string]*models.User
	follows map[[2]string]*models.Follow
	conns   map[uint]*models.Connection

	createRsvpErr error
	updateRsvpErr error
	releaseErr    error
	nearbyErr     error
	releaseCalls  int
}

func newMemStore() *memStore {
	return &memStore{
		events:  map[uint]*models.Event{},
		rsvps:   map[uint]*models.Rsvp{},
		users:   map[string]*models.User{},
		follows: map[[2]string]*models.Follow{},
		conns:   map[uint]*models.Connection{},
	}
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *memStore) addUser(id string, kind models.UserType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = &models.User{ID: id, DisplayName: "User " + id, UserType: kind, PasswordHash: "secret"}
}

func (s *memStore) addEvent(e models.Event) *models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.id()
	if e.Status == "" {
		e.Status = models.EventPublished
	}
	if e.Visibility == "" {
		e.Visibility = models.VisibilityPublic
	}
	if e.StartDateTime.IsZero() {
		e.StartDateTime = testEpoch.Add(48 * time.Hour)
	}
	s.events[e.ID] = &e
	out := e
	return &out
}

func (s *memStore) connect(a, b string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.conns[id] = &models.Connection{ID: id, RequesterID: a, RecipientID: b, Status: models.RelationAccepted}
}

func (s *memStore) follow(userID, orgID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.follows[[2]string{userID, orgID}] = &models.Follow{ID: s.id(), FollowerID: userID, OrganizationID: orgID, Status: models.RelationAccepted}
}

func (s *memStore) participants(eventID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.events[eventID]; ok {
		return e.ParticipantCount
	}
	return -1
}

func (s *memStore) rsvpCount(eventID uint, status models.RsvpStatus) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.rsvps {
		if r.EventID == eventID && r.Status == status {
			n++
		}
	}
	return n
}

func (s *memStore) release(eventID uint, seats int) {
	if e, ok := s.events[eventID]; ok && seats > 0 {
		e.ParticipantCount = max(e.ParticipantCount-seats, 0)
	}
}

// --- events ---

type memEvents struct{ *memStore }

func (f memEvents) Create(_ context.Context, e *models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = f.id()
	cp := *e
	f.events[e.ID] = &cp
	return nil
}

func (f memEvents) FindByID(_ context.Context, id uint) (*models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f memEvents) Update(_ context.Context, e *models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.events[e.ID]
	if !ok || (e.Capacity != nil && cur.ParticipantCount > *e.Capacity) {
		return repository.ErrConflict
	}
	cp := *e
	cp.ParticipantCount = cur.ParticipantCount
	f.events[e.ID] = &cp
	return nil
}

func (f memEvents) Delete(_ context.Context, id uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[id]; !ok {
		return 0, repository.ErrNotFound
	}
	var removed int64
	for rid, r := range f.rsvps {
		if r.EventID == id {
			delete(f.rsvps, rid)
			removed++
		}
	}
	delete(f.events, id)
	return removed, nil
}

func (f memEvents) FindNearby(_ context.Context, q repository.NearbyQuery) ([]repository.NearbyEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nearbyErr != nil {
		return nil, f.nearbyErr
	}
	var out []repository.NearbyEvent
	for _, e := range f.events {
		if e.Status != q.Status || e.FeedCutoff().Before(q.EndsAfter) {
			continue
		}
		d := geo.DistanceMiles(q.Center, geo.Point{Longitude: e.Location.Longitude, Latitude: e.Location.Latitude})
		if d > q.RadiusMiles {
			continue
		}
		out = append(out, repository.NearbyEvent{Event: *e, DistanceMiles: d})
	}
	slices.SortFunc(out, func(a, b repository.NearbyEvent) int {
		return cmp.Or(cmp.Compare(a.DistanceMiles, b.DistanceMiles), cmp.Compare(a.ID, b.ID))
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f memEvents) TryReserveSeats(_ context.Context, id uint, seats int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok || (e.Capacity != nil && e.ParticipantCount+seats > *e.Capacity) {
		return false, nil
	}
	e.ParticipantCount += seats
	return true, nil
}

func (f memEvents) ReleaseSeats(_ context.Context, id uint, seats int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releaseCalls++
	if f.releaseErr != nil {
		return f.releaseErr
	}
	f.release(id, seats)
	return nil
}

// --- rsvps ---

type memRsvps struct{ *memStore }

func (f memRsvps) Create(_ context.Context, r *models.Rsvp) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createRsvpErr != nil {
		return f.createRsvpErr
	}
	for _, existing := range f.rsvps {
		if existing.EventID == r.EventID && existing.UserID == r.UserID {
			return repository.ErrDuplicate
		}
	}
	r.ID = f.id()
	r.CreatedAt = testEpoch.Add(time.Duration(r.ID) * time.Second)
	r.UpdatedAt = r.CreatedAt
	cp := *r
	f.rsvps[r.ID] = &cp
	return nil
}

func (f memRsvps) FindByID(_ context.Context, id uint) (*models.Rsvp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rsvps[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f memRsvps) collect(keep func(*models.Rsvp) bool) []models.Rsvp {
	var out []models.Rsvp
	for _, r := range f.rsvps {
		if keep(r) {
			out = append(out, *r)
		}
	}
	slices.SortFunc(out, func(a, b models.Rsvp) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out
}

func (f memRsvps) FindByEventID(_ context.Context, eventID uint, status *models.RsvpStatus) ([]models.Rsvp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.collect(func(r *models.Rsvp) bool {
		return r.EventID == eventID && (status == nil || r.Status == *status)
	}), nil
}

func (f memRsvps) FindByUserID(_ context.Context, userID string) ([]models.Rsvp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.collect(func(r *models.Rsvp) bool { return r.UserID == userID }), nil
}

func (f memRsvps) FindByUserOnCreatorEvents(_ context.Context, userID, creatorID string) ([]models.Rsvp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.collect(func(r *models.Rsvp) bool {
		e, ok := f.events[r.EventID]
		return r.UserID == userID && ok && e.CreatedBy == creatorID
	})
	for i := range out {
		e := *f.events[out[i].EventID]
		out[i].Event = &e
	}
	return out, nil
}

func (f memRsvps) FindWaitlisted(_ context.Context, eventID uint, limit int) ([]models.Rsvp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.collect(func(r *models.Rsvp) bool {
		return r.EventID == eventID && r.Status == models.RsvpWaitlist
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f memRsvps) UpdateIfUnchanged(_ context.Context, r *models.Rsvp, prevStatus models.RsvpStatus, prevPlusOnes int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateRsvpErr != nil {
		return f.updateRsvpErr
	}
	cur, ok := f.rsvps[r.ID]
	if !ok || cur.Status != prevStatus || cur.PlusOnes != prevPlusOnes {
		return repository.ErrConflict
	}
	cur.Status, cur.PlusOnes, cur.Notes = r.Status, r.PlusOnes, r.Notes
	return nil
}

func (f memRsvps) Remove(_ context.Context, id uint) (*models.Rsvp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remove(func(r *models.Rsvp) bool { return r.ID == id })
}

func (f memRsvps) RemoveByEventAndUser(_ context.Context, eventID uint, userID string) (*models.Rsvp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remove(func(r *models.Rsvp) bool { return r.EventID == eventID && r.UserID == userID })
}

func (f memRsvps) remove(match func(*models.Rsvp) bool) (*models.Rsvp, error) {
	for id, r := range f.rsvps {
		if match(r) {
			delete(f.rsvps, id)
			f.release(r.EventID, r.Seats())
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

// --- relations ---

type memRelations struct{ *memStore }

func (f memRelations) AcceptedConnectionIDs(_ context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.conns {
		if c.Status == models.RelationAccepted && c.Involves(userID) {
			out = append(out, c.Other(userID))
		}
	}
	return out, nil
}

func (f memRelations) FollowingIDs(_ context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for k, fl := range f.follows {
		if k[0] == userID && fl.Status == models.RelationAccepted {
			out = append(out, k[1])
		}
	}
	return out, nil
}

func (f memRelations) UpsertFollow(_ context.Context, fl *models.Follow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]string{fl.FollowerID, fl.OrganizationID}
	if cur, ok := f.follows[key]; ok {
		cur.Status = fl.Status
		fl.ID = cur.ID
		return nil
	}
	fl.ID = f.id()
	cp := *fl
	f.follows[key] = &cp
	return nil
}

func (f memRelations) DeleteFollow(_ context.Context, followerID, organizationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]string{followerID, organizationID}
	if _, ok := f.follows[key]; !ok {
		return repository.ErrNotFound
	}
	delete(f.follows, key)
	return nil
}

func (f memRelations) CreateConnection(_ context.Context, c *models.Connection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cur := range f.conns {
		if cur.RequesterID == c.RequesterID && cur.RecipientID == c.RecipientID {
			return repository.ErrDuplicate
		}
	}
	c.ID = f.id()
	cp := *c
	f.conns[c.ID] = &cp
	return nil
}

func (f memRelations) FindConnection(_ context.Context, id uint) (*models.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conns[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f memRelations) FindConnectionBetween(_ context.Context, a, b string) (*models.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.conns {
		if c.Involves(a) && c.Other(a) == b {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f memRelations) UpdateConnectionStatus(_ context.Context, id uint, status models.RelationStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conns[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Status = status
	return nil
}

func (f memRelations) DeleteConnection(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.conns[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.conns, id)
	return nil
}

// --- users ---

type memUsers struct{ *memStore }

func (f memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	cp.PasswordHash = ""
	return &cp, nil
}

func (f memUsers) FindSummaries(_ context.Context, ids []string) (map[string]models.CreatorSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]models.CreatorSummary{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out[id] = models.CreatorSummary{ID: u.ID, DisplayName: u.DisplayName, AvatarURL: u.AvatarURL}
		}
	}
	return out, nil
}

// --- cache and publisher ---

type memCache struct {
	mu          sync.Mutex
	entries     map[string]models.SocialSnapshot
	invalidated []string
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]models.SocialSnapshot{}}
}

func (c *memCache) Get(_ context.Context, userID string) (*models.SocialSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.entries[userID]
	if !ok {
		return nil, false
	}
	return &snap, true
}

func (c *memCache) Set(_ context.Context, snap models.SocialSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[snap.UserID] = snap
}

func (c *memCache) Invalidate(_ context.Context, userIDs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range userIDs {
		delete(c.entries, id)
		c.invalidated = append(c.invalidated, id)
	}
}

type recordingPublisher struct {
	err  error
	sent []models.RelationSevered
	keys []string
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, payload any) error {
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, routingKey)
	p.sent = append(p.sent, payload.(models.RelationSevered))
	return nil
}

// --- fixture ---

type fixture struct {
	store  *memStore
	cache  *memCache
	social *SocialGraph
	rsvps  RsvpService
}

func newFixture(opts RsvpOptions) *fixture {
	store := newMemStore()
	cache := newMemCache()
	social := NewSocialGraph(memUsers{store}, memRelations{store}, cache)
	return &fixture{
		store:  store,
		cache:  cache,
		social: social,
		rsvps:  NewRsvpService(memEvents{store}, memRsvps{store}, social, opts),
	}
}

func noPromote() RsvpOptions {
	return RsvpOptions{MaxPlusOnes: 10}
}

func intPtr(v int) *int { return &v }

func statusPtr(s models.RsvpStatus) *models.RsvpStatus { return &s }
