package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"loco-dispatcher/internal/model"
)

// AdvanceLifecycle moves assignments along planned -> active -> completed by
// wall-clock time and keeps locomotive status in step. Conflict and
// violation rows are left alone, as are locomotives in service or repair.
func (s *gormStore) AdvanceLifecycle(ctx context.Context, now time.Time) (LifecycleResult, error) {
	now = now.UTC()
	var res LifecycleResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		done := tx.Model(&model.Assignment{}).
			Where("status IN ? AND end_time <= ?", []model.AssignmentStatus{model.AssignmentPlanned, model.AssignmentActive}, now).
			Update("status", model.AssignmentCompleted)
		if done.Error != nil {
			return done.Error
		}
		res.Completed = done.RowsAffected

		started := tx.Model(&model.Assignment{}).
			Where("status = ? AND start_time <= ? AND end_time > ?", model.AssignmentPlanned, now, now).
			Update("status", model.AssignmentActive)
		if started.Error != nil {
			return started.Error
		}
		res.Activated = started.RowsAffected

		running := tx.Model(&model.Assignment{}).
			Select("locomotive_id").
			Where("status = ?", model.AssignmentActive)

		enroute := tx.Model(&model.Locomotive{}).
			Where("status = ? AND id IN (?)", model.LocoIdle, running).
			Update("status", model.LocoEnroute)
		if enroute.Error != nil {
			return enroute.Error
		}
		res.Enroute = enroute.RowsAffected

		idled := tx.Model(&model.Locomotive{}).
			Where("status = ? AND id NOT IN (?)", model.LocoEnroute, running).
			Update("status", model.LocoIdle)
		if idled.Error != nil {
			return idled.Error
		}
		res.Idled = idled.RowsAffected
		return nil
	})
	return res, err
}
