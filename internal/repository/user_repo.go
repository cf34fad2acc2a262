package repository

import (
	"context"

	"github.com/Eursukkul/discovery-service/internal/models"
	"gorm.io/gorm"
)

// publicUserColumns never includes credentials; every read in this
// repository goes through it.
var publicUserColumns = []string{"id", "display_name", "avatar_url", "user_type", "created_at", "updated_at"}

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindSummaries(ctx context.Context, ids []string) (map[string]models.CreatorSummary, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Select(publicUserColumns).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) FindSummaries(ctx context.Context, ids []string) (map[string]models.CreatorSummary, error) {
	out := make(map[string]models.CreatorSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.CreatorSummary
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("id", "display_name", "avatar_url").
		Where("id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}
