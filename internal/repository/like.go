package repository

import (
	"context"

	"warbler/internal/cache"
	"warbler/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository defines persistence operations for the likes relation.
type LikeRepository interface {
	Toggle(ctx context.Context, userID, messageID uint) (bool, error)
	IsLiked(ctx context.Context, userID, messageID uint) (bool, error)
	CountForMessage(ctx context.Context, messageID uint) (int64, error)
	LikedMessageIDs(ctx context.Context, userID uint, messageIDs []uint) ([]uint, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository returns a new LikeRepository implementation.
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

// Toggle removes the (user, message) like if it exists and creates it otherwise,
// reporting whether the message is liked afterwards. When a concurrent request
// inserts the same pair first, the unique index rejects this insert and the
// message is reported as liked.
func (r *likeRepository) Toggle(ctx context.Context, userID, messageID uint) (bool, error) {
	var liked bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND message_id = ?", userID, messageID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = false
			return nil
		}
		like := models.Like{UserID: userID, MessageID: messageID}
		if err := tx.Omit(clause.Associations).Create(&like).Error; err != nil {
			return err
		}
		liked = true
		return nil
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return true, nil
		}
		return false, models.NewInternalError(err)
	}
	cache.InvalidateStats(ctx, userID)
	return liked, nil
}

func (r *likeRepository) IsLiked(ctx context.Context, userID, messageID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *likeRepository) CountForMessage(ctx context.Context, messageID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("message_id = ?", messageID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// LikedMessageIDs returns the subset of messageIDs that userID has liked.
func (r *likeRepository) LikedMessageIDs(ctx context.Context, userID uint, messageIDs []uint) ([]uint, error) {
	if userID == 0 || len(messageIDs) == 0 {
		return nil, nil
	}
	var liked []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND message_id IN ?", userID, messageIDs).
		Pluck("message_id", &liked).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return liked, nil
}
