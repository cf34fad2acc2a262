package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eursukkul/discovery-service/internal/models"
)

type countingPromoter struct {
	calls []uint
	err   error
}

func (p *countingPromoter) PromoteWaitlist(_ context.Context, eventID uint) (int, error) {
	p.calls = append(p.calls, eventID)
	return 0, p.err
}

func sampleEventInput() CreateEventInput {
	return CreateEventInput{
		Title:         "  Golang Meetup: San Francisco ",
		StartDateTime: testEpoch.Add(24 * time.Hour),
		Capacity:      intPtr(50),
		Address:       "Market St",
		Longitude:     sfLng,
		Latitude:      sfLat,
		Tags:          []string{"Go", "meetup", "go ", ""},
		CreatedBy:     "host",
	}
}

func TestCreateEvent_AppliesDefaults(t *testing.T) {
	f := newFixture(noPromote())
	svc := NewEventService(memEvents{f.store}, f.social, nil)

	event, err := svc.CreateEvent(context.Background(), sampleEventInput())

	require.NoError(t, err)
	assert.NotZero(t, event.ID)
	assert.Equal(t, "Golang Meetup: San Francisco", event.Title)
	assert.Equal(t, "golang-meetup-san-francisco", event.Slug)
	assert.Equal(t, models.EventPublished, event.Status)
	assert.Equal(t, models.VisibilityPublic, event.Visibility)
	assert.Equal(t, []string{"go", "meetup"}, []string(event.Tags))
	assert.Equal(t, 0, event.ParticipantCount)
}

func TestCreateEvent_Validation(t *testing.T) {
	f := newFixture(noPromote())
	svc := NewEventService(memEvents{f.store}, f.social, nil)
	before := testEpoch

	cases := map[string]func(*CreateEventInput){
		"missing title":      func(in *CreateEventInput) { in.Title = "   " },
		"missing start":      func(in *CreateEventInput) { in.StartDateTime = time.Time{} },
		"end before start":   func(in *CreateEventInput) { in.EndDateTime = &before },
		"zero capacity":      func(in *CreateEventInput) { in.Capacity = intPtr(0) },
		"unknown status":     func(in *CreateEventInput) { in.Status = "cancelled" },
		"unknown visibility": func(in *CreateEventInput) { in.Visibility = "secret" },
		"latitude":           func(in *CreateEventInput) { in.Latitude = -95 },
		"missing creator":    func(in *CreateEventInput) { in.CreatedBy = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := sampleEventInput()
			mutate(&in)
			_, err := svc.CreateEvent(context.Background(), in)
			assert.ErrorIs(t, err, ErrInvalidEvent)
		})
	}
}

func TestGetEvent_HidesWhatRequesterCannotSee(t *testing.T) {
	f := newFixture(noPromote())
	f.store.addUser("friend", models.UserIndividual)
	f.store.addUser("stranger", models.UserIndividual)
	f.store.connect("host", "friend")
	svc := NewEventService(memEvents{f.store}, f.social, nil)

	draft := f.store.addEvent(models.Event{Status: models.EventDraft, CreatedBy: "host"})
	friends := f.store.addEvent(models.Event{Visibility: models.VisibilityFriends, CreatedBy: "host"})

	_, err := svc.GetEvent(context.Background(), draft.ID, "friend")
	assert.ErrorIs(t, err, ErrEventNotFound)
	_, err = svc.GetEvent(context.Background(), draft.ID, "host")
	assert.NoError(t, err)

	_, err = svc.GetEvent(context.Background(), friends.ID, "stranger")
	assert.ErrorIs(t, err, ErrEventNotFound)
	_, err = svc.GetEvent(context.Background(), friends.ID, "friend")
	assert.NoError(t, err)
}

func TestUpdateEvent_OwnerOnly(t *testing.T) {
	f := newFixture(noPromote())
	svc := NewEventService(memEvents{f.store}, f.social, nil)
	event := f.store.addEvent(models.Event{Title: "Old", CreatedBy: "host"})
	title := "New"

	_, err := svc.UpdateEvent(context.Background(), event.ID, "intruder", UpdateEventInput{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.UpdateEvent(context.Background(), event.ID, "host", UpdateEventInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
	assert.Equal(t, "new", updated.Slug)
}

func TestUpdateEvent_CapacityBelowParticipants(t *testing.T) {
	ctx := context.Background()
	f := newFixture(noPromote())
	svc := NewEventService(memEvents{f.store}, f.social, nil)
	event := f.store.addEvent(models.Event{Capacity: intPtr(10), CreatedBy: "host"})
	_, err := f.rsvps.CreateRsvp(ctx, CreateRsvpInput{EventID: event.ID, UserID: "a", PlusOnes: 3})
	require.NoError(t, err)

	_, err = svc.UpdateEvent(ctx, event.ID, "host", UpdateEventInput{Capacity: intPtr(3)})
	assert.ErrorIs(t, err, ErrCapacityBelowParticipants)

	updated, err := svc.UpdateEvent(ctx, event.ID, "host", UpdateEventInput{Capacity: intPtr(4)})
	require.NoError(t, err)
	assert.Equal(t, 4, *updated.Capacity)
	assert.Equal(t, 4, f.store.participants(event.ID))
}

func TestUpdateEvent_RaisingCapacityPromotesWaitlist(t *testing.T) {
	f := newFixture(noPromote())
	promoter := &countingPromoter{}
	svc := NewEventService(memEvents{f.store}, f.social, promoter)
	event := f.store.addEvent(models.Event{Capacity: intPtr(10), CreatedBy: "host"})

	_, err := svc.UpdateEvent(context.Background(), event.ID, "host", UpdateEventInput{Capacity: intPtr(5)})
	require.NoError(t, err)
	assert.Empty(t, promoter.calls)

	promoter.err = errors.New("ignored")
	_, err = svc.UpdateEvent(context.Background(), event.ID, "host", UpdateEventInput{ClearCapacity: true})
	require.NoError(t, err)
	assert.Equal(t, []uint{event.ID}, promoter.calls)
}

func TestDeleteEvent_RemovesRsvps(t *testing.T) {
	ctx := context.Background()
	f := newFixture(noPromote())
	svc := NewEventService(memEvents{f.store}, f.social, nil)
	event := f.store.addEvent(models.Event{CreatedBy: "host"})
	_, err := f.rsvps.CreateRsvp(ctx, CreateRsvpInput{EventID: event.ID, UserID: "a"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteEvent(ctx, event.ID, "a"), ErrForbidden)
	require.NoError(t, svc.DeleteEvent(ctx, event.ID, "host"))

	assert.Empty(t, f.store.rsvps)
	assert.ErrorIs(t, svc.DeleteEvent(ctx, event.ID, "host"), ErrEventNotFound)
}

func TestCapacityGrew(t *testing.T) {
	assert.True(t, capacityGrew(intPtr(2), intPtr(3)))
	assert.True(t, capacityGrew(intPtr(2), nil))
	assert.False(t, capacityGrew(intPtr(3), intPtr(2)))
	assert.False(t, capacityGrew(nil, intPtr(2)))
	assert.False(t, capacityGrew(nil, nil))
}
