package store

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"loco-dispatcher/internal/dispatch"
	"loco-dispatcher/internal/model"
)

// CreateAssignment classifies and inserts one assignment. The locomotive's
// lock is held from the overlap query until commit, so of two concurrent
// overlapping writes the second always sees the first.
func (s *gormStore) CreateAssignment(ctx context.Context, in NewAssignment) (*CreatedAssignment, error) {
	iv := dispatch.Interval{Start: in.Start.UTC(), End: in.End.UTC()}
	if !iv.Valid() {
		return nil, ErrInvalidInterval
	}
	if in.DistanceKm != nil && *in.DistanceKm < 0 {
		return nil, fmt.Errorf("%w: distance_km must not be negative", ErrValidation)
	}

	unlock, err := s.locker.Lock(ctx, in.LocomotiveID)
	if err != nil {
		return nil, fmt.Errorf("lock locomotive %d: %w", in.LocomotiveID, err)
	}
	defer unlock()

	var created CreatedAssignment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loco model.Locomotive
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&loco, in.LocomotiveID).Error; err != nil {
			return notFound(err, "locomotive", in.LocomotiveID)
		}
		var train model.Train
		if err := tx.Select("id").First(&train, in.TrainID).Error; err != nil {
			return notFound(err, "train", in.TrainID)
		}
		var shoulder model.Shoulder
		if err := tx.Select("id").First(&shoulder, in.ShoulderID).Error; err != nil {
			return notFound(err, "shoulder", in.ShoulderID)
		}

		a := model.Assignment{
			LocomotiveID: loco.ID,
			TrainID:      train.ID,
			ShoulderID:   shoulder.ID,
			StartTime:    iv.Start,
			EndTime:      iv.End,
			Note:         in.Note,
			DistanceKm:   in.DistanceKm,
		}
		cls, err := insertClassified(tx, loco, &a)
		if err != nil {
			return err
		}
		created = CreatedAssignment{Assignment: a, Classification: cls}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created.Classification.Conflict() {
		log.Printf("assignment %d for locomotive %d recorded as conflict: %s",
			created.Assignment.ID, in.LocomotiveID, *created.Classification.Reason)
	}
	return &created, nil
}

// overlapping loads the locomotive's assignments intersecting iv.
func overlapping(tx *gorm.DB, locomotiveID int64, iv dispatch.Interval) ([]model.Assignment, error) {
	var rows []model.Assignment
	err := tx.Select("id", "locomotive_id", "start_time", "end_time").
		Where("locomotive_id = ? AND start_time < ? AND end_time > ?", locomotiveID, iv.End, iv.Start).
		Order("start_time, id").
		Find(&rows).Error
	return rows, err
}

// insertClassified runs the conflict check for a and inserts it with the
// resulting status. The caller must hold the locomotive's lock.
func insertClassified(tx *gorm.DB, loco model.Locomotive, a *model.Assignment) (dispatch.Classification, error) {
	iv := dispatch.Interval{Start: a.StartTime, End: a.EndTime}
	existing, err := overlapping(tx, loco.ID, iv)
	if err != nil {
		return dispatch.Classification{}, err
	}

	cls := dispatch.Classify(iv, 0, existing)
	a.Status = cls.Status
	a.ConflictReason = cls.Reason
	if a.DistanceKm != nil {
		fuel := dispatch.RequiredFuel(loco, *a.DistanceKm)
		a.RequiredFuel = &fuel
	}

	if err := tx.Omit(clause.Associations).Create(a).Error; err != nil {
		return dispatch.Classification{}, err
	}
	return cls, nil
}
