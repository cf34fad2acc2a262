package repository

import (
	"context"

	"github.com/Eursukkul/discovery-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RelationRepository interface {
	AcceptedConnectionIDs(ctx context.Context, userID string) ([]string, error)
	FollowingIDs(ctx context.Context, userID string) ([]string, error)
	UpsertFollow(ctx context.Context, follow *models.Follow) error
	DeleteFollow(ctx context.Context, followerID, organizationID string) error
	CreateConnection(ctx context.Context, conn *models.Connection) error
	FindConnection(ctx context.Context, id uint) (*models.Connection, error)
	FindConnectionBetween(ctx context.Context, a, b string) (*models.Connection, error)
	UpdateConnectionStatus(ctx context.Context, id uint, status models.RelationStatus) error
	DeleteConnection(ctx context.Context, id uint) error
}

type relationRepository struct {
	db *gorm.DB
}

func NewRelationRepository(db *gorm.DB) RelationRepository {
	return &relationRepository{db: db}
}

// AcceptedConnectionIDs returns the counterpart of every accepted connection
// userID is part of, regardless of who asked first.
func (r *relationRepository) AcceptedConnectionIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Connection{}).
		Select("CASE WHEN requester_id = ? THEN recipient_id ELSE requester_id END", userID).
		Where("status = ? AND (requester_id = ? OR recipient_id = ?)", models.RelationAccepted, userID, userID).
		Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *relationRepository) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND status = ?", userID, models.RelationAccepted).
		Pluck("organization_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *relationRepository) UpsertFollow(ctx context.Context, follow *models.Follow) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "follower_id"}, {Name: "organization_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(follow).Error
}

func (r *relationRepository) DeleteFollow(ctx context.Context, followerID, organizationID string) error {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND organization_id = ?", followerID, organizationID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *relationRepository) CreateConnection(ctx context.Context, conn *models.Connection) error {
	return translate(r.db.WithContext(ctx).Create(conn).Error)
}

func (r *relationRepository) FindConnection(ctx context.Context, id uint) (*models.Connection, error) {
	var conn models.Connection
	if err := r.db.WithContext(ctx).First(&conn, id).Error; err != nil {
		return nil, translate(err)
	}
	return &conn, nil
}

func (r *relationRepository) FindConnectionBetween(ctx context.Context, a, b string) (*models.Connection, error) {
	var conn models.Connection
	err := r.db.WithContext(ctx).
		Where("(requester_id = ? AND recipient_id = ?) OR (requester_id = ? AND recipient_id = ?)", a, b, b, a).
		First(&conn).Error
	if err != nil {
		return nil, translate(err)
	}
	return &conn, nil
}

func (r *relationRepository) UpdateConnectionStatus(ctx context.Context, id uint, status models.RelationStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Connection{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *relationRepository) DeleteConnection(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Connection{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
