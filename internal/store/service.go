package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"loco-dispatcher/internal/model"
)

// RecordService applies a completed service to a locomotive: wear counters
// reset, consumables refill per service type, and the locomotive moves to
// the service station. The log row is written in the same transaction.
func (s *gormStore) RecordService(ctx context.Context, req ServiceRequest) (*model.ServiceLog, error) {
	if req.Type == "" {
		req.Type = model.ServiceInspection
	}
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown service_type %q", ErrValidation, req.Type)
	}
	at := req.At
	if at.IsZero() {
		at = s.now()
	}
	at = at.UTC()

	unlock, err := s.locker.Lock(ctx, req.LocomotiveID)
	if err != nil {
		return nil, fmt.Errorf("lock locomotive %d: %w", req.LocomotiveID, err)
	}
	defer unlock()

	var entry model.ServiceLog
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loco model.Locomotive
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&loco, req.LocomotiveID).Error; err != nil {
			return notFound(err, "locomotive", req.LocomotiveID)
		}

		stationID := req.StationID
		if stationID == 0 && loco.CurrentStationID != nil {
			stationID = *loco.CurrentStationID
		}
		if stationID == 0 {
			return fmt.Errorf("%w: station_id is required", ErrValidation)
		}
		var station model.Station
		if err := tx.Select("id").First(&station, stationID).Error; err != nil {
			return notFound(err, "station", stationID)
		}

		entry = model.ServiceLog{
			LocomotiveID: loco.ID,
			StationID:    station.ID,
			ServiceType:  req.Type,
			PerformedAt:  at,
		}
		updates := map[string]any{
			"run_km_since_service":    0,
			"run_hours_since_service": 0,
			"last_service_at":         at,
			"current_station_id":      station.ID,
		}
		if req.Type == model.ServiceFuel || req.Type == model.ServiceFull {
			entry.FuelAdded = loco.FuelCapacity - loco.FuelCurrent
			updates["fuel_current"] = loco.FuelCapacity
		}
		if req.Type == model.ServiceSand || req.Type == model.ServiceFull {
			entry.SandAdded = model.DefaultSandLevel - loco.SandLevel
			updates["sand_level"] = model.DefaultSandLevel
		}

		point, err := servicePoint(tx, station.ID, req.Type)
		if err != nil {
			return err
		}
		if point != nil {
			entry.ServicePointID = &point.ID
		}

		if err := tx.Model(&model.Locomotive{}).Where("id = ?", loco.ID).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("locomotive %d serviced (%s) at station %d", req.LocomotiveID, req.Type, entry.StationID)
	return &entry, nil
}

// servicePoint picks the station's facility for the service type. A full
// service may use any facility.
func servicePoint(tx *gorm.DB, stationID int64, t model.ServiceType) (*model.ServicePoint, error) {
	q := tx.Where("station_id = ?", stationID)
	if t != model.ServiceFull {
		q = q.Where("type = ?", t)
	}
	var point model.ServicePoint
	err := q.Order("id").First(&point).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &point, nil
}
