package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/discovery-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RsvpRepository interface {
	Create(ctx context.Context, rsvp *models.Rsvp) error
	FindByID(ctx context.Context, id uint) (*models.Rsvp, error)
	FindByEventID(ctx context.Context, eventID uint, status *models.RsvpStatus) ([]models.Rsvp, error)
	FindByUserID(ctx context.Context, userID string) ([]models.Rsvp, error)
	FindByUserOnCreatorEvents(ctx context.Context, userID, creatorID string) ([]models.Rsvp, error)
	FindWaitlisted(ctx context.Context, eventID uint, limit int) ([]models.Rsvp, error)
	UpdateIfUnchanged(ctx context.Context, rsvp *models.Rsvp, prevStatus models.RsvpStatus, prevPlusOnes int) error
	Remove(ctx context.Context, id uint) (*models.Rsvp, error)
	RemoveByEventAndUser(ctx context.Context, eventID uint, userID string) (*models.Rsvp, error)
}

type rsvpRepository struct {
	db *gorm.DB
}

func NewRsvpRepository(db *gorm.DB) RsvpRepository {
	return &rsvpRepository{db: db}
}

func (r *rsvpRepository) Create(ctx context.Context, rsvp *models.Rsvp) error {
	return translate(r.db.WithContext(ctx).Create(rsvp).Error)
}

func (r *rsvpRepository) FindByID(ctx context.Context, id uint) (*models.Rsvp, error) {
	var rsvp models.Rsvp
	if err := r.db.WithContext(ctx).First(&rsvp, id).Error; err != nil {
		return nil, translate(err)
	}
	return &rsvp, nil
}

func (r *rsvpRepository) FindByEventID(ctx context.Context, eventID uint, status *models.RsvpStatus) ([]models.Rsvp, error) {
	var rsvps []models.Rsvp
	q := r.db.WithContext(ctx).Where("event_id = ?", eventID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Order("id ASC").Find(&rsvps).Error; err != nil {
		return nil, err
	}
	return rsvps, nil
}

func (r *rsvpRepository) FindByUserID(ctx context.Context, userID string) ([]models.Rsvp, error) {
	var rsvps []models.Rsvp
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&rsvps).Error
	if err != nil {
		return nil, err
	}
	return rsvps, nil
}

// FindByUserOnCreatorEvents returns userID's RSVPs on events created by
// creatorID with the event preloaded.
func (r *rsvpRepository) FindByUserOnCreatorEvents(ctx context.Context, userID, creatorID string) ([]models.Rsvp, error) {
	var rsvps []models.Rsvp
	err := r.db.WithContext(ctx).
		Joins("JOIN events ON events.id = rsvps.event_id").
		Where("rsvps.user_id = ? AND events.created_by = ?", userID, creatorID).
		Preload("Event").
		Order("rsvps.id ASC").
		Find(&rsvps).Error
	if err != nil {
		return nil, err
	}
	return rsvps, nil
}

// FindWaitlisted returns waitlisted RSVPs in promotion order.
func (r *rsvpRepository) FindWaitlisted(ctx context.Context, eventID uint, limit int) ([]models.Rsvp, error) {
	var rsvps []models.Rsvp
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND status = ?", eventID, models.RsvpWaitlist).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&rsvps).Error
	if err != nil {
		return nil, err
	}
	return rsvps, nil
}

// UpdateIfUnchanged persists the new state only if the row still holds the
// status and plus-ones the caller based its seat accounting on.
func (r *rsvpRepository) UpdateIfUnchanged(ctx context.Context, rsvp *models.Rsvp, prevStatus models.RsvpStatus, prevPlusOnes int) error {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&models.Rsvp{}).
		Where("id = ? AND status = ? AND plus_ones = ?", rsvp.ID, prevStatus, prevPlusOnes).
		Updates(map[string]any{
			"status":     rsvp.Status,
			"plus_ones":  rsvp.PlusOnes,
			"notes":      rsvp.Notes,
			"updated_at": now,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	rsvp.UpdatedAt = now
	return nil
}

// Remove deletes the RSVP and releases the seats it held in the same
// transaction. A second call finds nothing to delete and releases nothing.
func (r *rsvpRepository) Remove(ctx context.Context, id uint) (*models.Rsvp, error) {
	return r.removeWhere(ctx, "id = ?", id)
}

func (r *rsvpRepository) RemoveByEventAndUser(ctx context.Context, eventID uint, userID string) (*models.Rsvp, error) {
	return r.removeWhere(ctx, "event_id = ? AND user_id = ?", eventID, userID)
}

func (r *rsvpRepository) removeWhere(ctx context.Context, query string, args ...any) (*models.Rsvp, error) {
	var removed models.Rsvp
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.Returning{}).Where(query, args...).Delete(&removed)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return releaseSeats(tx, removed.EventID, removed.Seats())
	})
	if err != nil {
		return nil, translate(err)
	}
	return &removed, nil
}
