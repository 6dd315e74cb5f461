package store

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"loco-dispatcher/internal/model"
)

// SaveSubscription creates or replaces a push subscription and the set of
// locomotives it watches. Unknown locomotive ids are ignored.
func (s *gormStore) SaveSubscription(ctx context.Context, sub model.PushSubscription, locomotiveIDs []int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Create(&sub).Error; err != nil {
			return err
		}

		var locos []*model.Locomotive
		if len(locomotiveIDs) > 0 {
			if err := tx.Select("id").Find(&locos, locomotiveIDs).Error; err != nil {
				return err
			}
		}
		return tx.Model(&sub).Association("Locomotives").Replace(locos)
	})
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := model.PushSubscription{Endpoint: endpoint}
		if err := tx.Model(&sub).Association("Locomotives").Clear(); err != nil {
			return err
		}
		return tx.Delete(&sub).Error
	})
}

// SubscriptionLocomotives returns the ids watched by endpoint, or ErrNotFound.
func (s *gormStore) SubscriptionLocomotives(ctx context.Context, endpoint string) ([]int64, error) {
	var sub model.PushSubscription
	if err := s.db.WithContext(ctx).Preload("Locomotives").First(&sub, "endpoint = ?", endpoint).Error; err != nil {
		return nil, notFound(err, "subscription", 0)
	}
	ids := make([]int64, len(sub.Locomotives))
	for i, l := range sub.Locomotives {
		ids[i] = l.ID
	}
	return ids, nil
}

// Subscribers returns the subscriptions watching a locomotive.
func (s *gormStore) Subscribers(ctx context.Context, locomotiveID int64) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN subscription_locomotive_mapping slm ON slm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("slm.locomotive_id = ?", locomotiveID).
		Find(&subs).Error
	return subs, err
}
