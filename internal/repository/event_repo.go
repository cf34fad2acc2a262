package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Eursukkul/discovery-service/internal/geo"
	"github.com/Eursukkul/discovery-service/internal/models"
	"gorm.io/gorm"
)

// NearbyQuery selects events around Center. Status and EndsAfter are pushed
// down into the same statement so the candidate set is small before any
// social filtering happens.
type NearbyQuery struct {
	Center      geo.Point
	RadiusMiles float64
	Status      models.EventStatus
	EndsAfter   time.Time
	Limit       int
}

type NearbyEvent struct {
	models.Event
	DistanceMiles float64 `gorm:"column:distance_miles"`
}

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	FindByID(ctx context.Context, id uint) (*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id uint) (int64, error)
	FindNearby(ctx context.Context, q NearbyQuery) ([]NearbyEvent, error)
	TryReserveSeats(ctx context.Context, id uint, seats int) (bool, error)
	ReleaseSeats(ctx context.Context, id uint, seats int) error
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	return translate(r.db.WithContext(ctx).Create(event).Error)
}

func (r *eventRepository) FindByID(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

var editableEventColumns = []string{
	"title", "slug", "description", "start_date_time", "end_date_time", "capacity",
	"status", "visibility", "location_address", "location_longitude", "location_latitude",
	"tags", "images", "updated_at",
}

// Update writes the owner-editable columns. participant_count is never
// written from a stale read, and a capacity below the current count is
// refused with ErrConflict.
func (r *eventRepository) Update(ctx context.Context, event *models.Event) error {
	capacity := 0
	if event.Capacity != nil {
		capacity = *event.Capacity
	}
	res := r.db.WithContext(ctx).
		Model(event).
		Where("(? OR participant_count <= ?)", event.Capacity == nil, capacity).
		Select(editableEventColumns).
		Updates(event)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// Delete removes the event and every RSVP on it in one transaction and
// returns how many RSVPs went with it.
func (r *eventRepository) Delete(ctx context.Context, id uint) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("event_id = ?", id).Delete(&models.Rsvp{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected

		res = tx.Delete(&models.Event{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return 0, translate(err)
	}
	return removed, nil
}

var nearbySQL = fmt.Sprintf(`
SELECT * FROM (
	SELECT e.*,
		2 * %[1]f * ASIN(SQRT(LEAST(1,
			POWER(SIN(RADIANS(e.location_latitude - @lat) / 2), 2) +
			COS(RADIANS(@lat)) * COS(RADIANS(e.location_latitude)) *
			POWER(SIN(RADIANS(e.location_longitude - @lng) / 2), 2)
		))) AS distance_miles
	FROM events e
	WHERE e.location_latitude BETWEEN @min_lat AND @max_lat
	  AND e.location_longitude BETWEEN @min_lng AND @max_lng
	  AND e.status = @status
	  AND COALESCE(e.end_date_time, e.start_date_time) >= @ends_after
) nearby
WHERE nearby.distance_miles <= @radius
ORDER BY nearby.distance_miles ASC, nearby.id ASC
LIMIT @limit`, geo.EarthRadiusMiles)

// FindNearby returns events within the radius ordered nearest first.
func (r *eventRepository) FindNearby(ctx context.Context, q NearbyQuery) ([]NearbyEvent, error) {
	box := geo.BoundingBox(q.Center, q.RadiusMiles)
	var out []NearbyEvent
	err := r.db.WithContext(ctx).Raw(nearbySQL, map[string]any{
		"lat":        q.Center.Latitude,
		"lng":        q.Center.Longitude,
		"min_lat":    box.MinLat,
		"max_lat":    box.MaxLat,
		"min_lng":    box.MinLng,
		"max_lng":    box.MaxLng,
		"status":     q.Status,
		"ends_after": q.EndsAfter,
		"radius":     q.RadiusMiles,
		"limit":      q.Limit,
	}).Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("find nearby events: %w", err)
	}
	return out, nil
}

// TryReserveSeats is the single conditional increment every
// capacity-consuming transition goes through. It reports false when the
// seats do not fit (or the event no longer exists).
func (r *eventRepository) TryReserveSeats(ctx context.Context, id uint, seats int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ? AND (capacity IS NULL OR participant_count + ? <= capacity)", id, seats).
		UpdateColumn("participant_count", gorm.Expr("participant_count + ?", seats))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *eventRepository) ReleaseSeats(ctx context.Context, id uint, seats int) error {
	return releaseSeats(r.db.WithContext(ctx), id, seats)
}

func releaseSeats(tx *gorm.DB, eventID uint, seats int) error {
	if seats <= 0 {
		return nil
	}
	return tx.Model(&models.Event{}).
		Where("id = ?", eventID).
		UpdateColumn("participant_count", gorm.Expr("GREATEST(participant_count - ?, 0)", seats)).
		Error
}
