package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rpupo63/foodgram-backend/models"
)

type SubscriptionRepo struct {
	db *gorm.DB
}

func NewSubscriptionRepo(db *gorm.DB) *SubscriptionRepo {
	return &SubscriptionRepo{db}
}

func (r *SubscriptionRepo) Exists(ctx context.Context, userID, authorID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error
	return count > 0, err
}

func (r *SubscriptionRepo) Add(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Omit("User", "Author").Create(sub).Error
}

// Delete removes the edge and reports how many rows went away.
func (r *SubscriptionRepo) Delete(ctx context.Context, userID, authorID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Subscription{})
	return res.RowsAffected, res.Error
}

// AuthorsOf pages through the authors userID follows, newest subscription first.
func (r *SubscriptionRepo) AuthorsOf(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.User, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var authors []models.User
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN subscriptions ON subscriptions.author_id = users.id").
		Where("subscriptions.user_id = ?", userID).
		Order("subscriptions.created_at DESC").Order("users.id ASC").
		Offset(offset).Limit(limit).
		Find(&authors).Error
	return authors, total, err
}

// SubscribedAmong returns which of authorIDs userID follows.
func (r *SubscriptionRepo) SubscribedAmong(ctx context.Context, userID uuid.UUID, authorIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool, len(authorIDs))
	if len(authorIDs) == 0 {
		return out, nil
	}

	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ? AND author_id IN ?", userID, authorIDs).
		Pluck("author_id", &ids).Error
	for _, id := range ids {
		out[id] = true
	}
	return out, err
}
