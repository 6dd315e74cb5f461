package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"loco-dispatcher/internal/model"
	"loco-dispatcher/internal/parse"
)

const (
	importedRouteDescription = "Imported Route"
	importedShoulderKm       = 100
	importedShoulderTurnMins = 60
)

// importCounts are the entities created while inserting one row.
type importCounts struct {
	locomotives, stations, trains int
}

// ImportAssignments inserts every parsed row in a single transaction. A row
// that fails at the database is rolled back to its savepoint and reported
// alongside the parse errors; any other failure aborts the whole batch.
func (s *gormStore) ImportAssignments(ctx context.Context, rows []parse.Result) (*ImportSummary, error) {
	summary := &ImportSummary{BatchID: uuid.NewString(), Errors: []parse.RowError{}}

	var valid []*parse.Row
	for _, r := range rows {
		if r.Err != nil {
			summary.Errors = append(summary.Errors, *r.Err)
			continue
		}
		valid = append(valid, r.Row)
	}

	s.importMu.Lock()
	defer s.importMu.Unlock()

	held, err := s.lockExisting(ctx, valid)
	defer func() {
		for _, unlock := range held {
			unlock()
		}
	}()
	if err != nil {
		return nil, err
	}

	conflicted := make(map[int64]bool)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range valid {
			if err := ctx.Err(); err != nil {
				return err
			}

			sp := fmt.Sprintf("import_row_%d", row.Index)
			if err := tx.SavePoint(sp).Error; err != nil {
				return err
			}

			var counts importCounts
			a, err := s.importRow(ctx, tx, row, held, &counts)
			if err != nil {
				if rbErr := tx.RollbackTo(sp).Error; rbErr != nil {
					return rbErr
				}
				log.Printf("import %s: row %d rejected: %v", summary.BatchID, row.Index, err)
				summary.Errors = append(summary.Errors, parse.RowError{Index: row.Index, Message: err.Error(), Raw: row.Raw})
				continue
			}

			summary.ImportedRows++
			summary.CreatedLocomotives += counts.locomotives
			summary.CreatedStations += counts.stations
			summary.CreatedTrains += counts.trains
			if a.Status == model.AssignmentConflict {
				summary.ConflictsCount++
				if !conflicted[a.LocomotiveID] {
					conflicted[a.LocomotiveID] = true
					summary.ConflictLocomotives = append(summary.ConflictLocomotives, a.LocomotiveID)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", summary.BatchID, err)
	}

	sort.SliceStable(summary.Errors, func(i, j int) bool {
		return summary.Errors[i].Index < summary.Errors[j].Index
	})
	log.Printf("import %s: %d rows imported, %d conflicts, %d errors",
		summary.BatchID, summary.ImportedRows, summary.ConflictsCount, len(summary.Errors))
	return summary, nil
}

// lockExisting takes the locks of every already-stored locomotive the batch
// touches, in id order. Locomotives created by the batch stay invisible to
// other writers until commit and need no lock.
func (s *gormStore) lockExisting(ctx context.Context, rows []*parse.Row) (map[int64]func(), error) {
	held := make(map[int64]func())
	if len(rows) == 0 {
		return held, nil
	}

	numbers := make([]string, 0, len(rows))
	for _, r := range rows {
		numbers = append(numbers, r.LocomotiveNumber)
	}
	var ids []int64
	if err := s.db.WithContext(ctx).Model(&model.Locomotive{}).
		Where("number IN ?", numbers).Order("id").Pluck("id", &ids).Error; err != nil {
		return held, err
	}

	for _, id := range ids {
		unlock, err := s.locker.Lock(ctx, id)
		if err != nil {
			return held, fmt.Errorf("lock locomotive %d: %w", id, err)
		}
		held[id] = unlock
	}
	return held, nil
}

func (s *gormStore) importRow(ctx context.Context, tx *gorm.DB, row *parse.Row, held map[int64]func(), counts *importCounts) (*model.Assignment, error) {
	from, err := importStation(tx, row.FromStation, counts)
	if err != nil {
		return nil, err
	}
	to, err := importStation(tx, row.ToStation, counts)
	if err != nil {
		return nil, err
	}

	loco, created, err := importLocomotive(tx, row, from.ID)
	if err != nil {
		return nil, err
	}
	if created {
		counts.locomotives++
	} else if _, ok := held[loco.ID]; !ok {
		unlock, err := s.locker.Lock(ctx, loco.ID)
		if err != nil {
			return nil, err
		}
		held[loco.ID] = unlock
	}

	train, err := importTrain(tx, row.TrainNumber, counts)
	if err != nil {
		return nil, err
	}
	shoulder, err := importShoulder(tx, from.ID, to.ID)
	if err != nil {
		return nil, err
	}

	a := model.Assignment{
		LocomotiveID: loco.ID,
		TrainID:      train.ID,
		ShoulderID:   shoulder.ID,
		StartTime:    row.Start.UTC(),
		EndTime:      row.End.UTC(),
		Note:         row.Note,
		DistanceKm:   row.DistanceKm,
	}
	if _, err := insertClassified(tx, loco, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// importStation finds a station by its derived code, refreshing the name,
// or creates it.
func importStation(tx *gorm.DB, name string, counts *importCounts) (model.Station, error) {
	code := parse.StationCode(name)
	var st model.Station
	err := tx.Where("code = ?", code).First(&st).Error
	switch {
	case err == nil:
		if st.Name != name {
			if err := tx.Model(&st).Update("name", name).Error; err != nil {
				return st, err
			}
		}
		return st, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return st, err
	}

	st = model.Station{Name: name, Code: code}
	if err := tx.Create(&st).Error; err != nil {
		return st, err
	}
	counts.stations++
	return st, nil
}

// importLocomotive finds a locomotive by number or creates it at the row's
// origin station. An existing locomotive takes the row's depot, and its
// model when the stored one is unknown.
func importLocomotive(tx *gorm.DB, row *parse.Row, stationID int64) (model.Locomotive, bool, error) {
	var loco model.Locomotive
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("number = ?", row.LocomotiveNumber).First(&loco).Error
	switch {
	case err == nil:
		updates := map[string]any{}
		if row.Depot != "" && row.Depot != loco.Depot {
			updates["depot"] = row.Depot
			loco.Depot = row.Depot
		}
		if row.Model != "" && loco.Model == model.UnknownModel && row.Model != loco.Model {
			updates["model"] = row.Model
			loco.Model = row.Model
		}
		if len(updates) > 0 {
			if err := tx.Model(&model.Locomotive{}).Where("id = ?", loco.ID).Updates(updates).Error; err != nil {
				return loco, false, err
			}
		}
		return loco, false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return loco, false, err
	}

	loco = model.NewLocomotive(row.LocomotiveNumber, row.Model, row.Depot)
	loco.CurrentStationID = &stationID
	if err := tx.Omit(clause.Associations).Create(&loco).Error; err != nil {
		return loco, false, err
	}
	return loco, true, nil
}

func importTrain(tx *gorm.DB, number string, counts *importCounts) (model.Train, error) {
	var train model.Train
	err := tx.Where("number = ?", number).First(&train).Error
	if err == nil || !errors.Is(err, gorm.ErrRecordNotFound) {
		return train, err
	}
	train = model.Train{Number: number, Category: model.TrainCargo, RouteDescription: importedRouteDescription}
	if err := tx.Create(&train).Error; err != nil {
		return train, err
	}
	counts.trains++
	return train, nil
}

func importShoulder(tx *gorm.DB, fromID, toID int64) (model.Shoulder, error) {
	var shoulder model.Shoulder
	err := tx.Where("station_a_id = ? AND station_b_id = ?", fromID, toID).First(&shoulder).Error
	if err == nil || !errors.Is(err, gorm.ErrRecordNotFound) {
		return shoulder, err
	}
	shoulder = model.Shoulder{
		StationAID:        fromID,
		StationBID:        toID,
		DistanceKm:        importedShoulderKm,
		AllowedModels:     model.AnyModel,
		MinTurnaroundMins: importedShoulderTurnMins,
	}
	if err := tx.Omit(clause.Associations).Create(&shoulder).Error; err != nil {
		return shoulder, err
	}
	return shoulder, nil
}
