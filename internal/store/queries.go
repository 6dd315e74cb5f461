package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"loco-dispatcher/internal/model"
)

func (s *gormStore) Stations(ctx context.Context) ([]model.Station, error) {
	var stations []model.Station
	if err := s.db.WithContext(ctx).Order("id").Find(&stations).Error; err != nil {
		return nil, err
	}
	return stations, nil
}

func (s *gormStore) Trains(ctx context.Context) ([]model.Train, error) {
	var trains []model.Train
	if err := s.db.WithContext(ctx).Order("id").Find(&trains).Error; err != nil {
		return nil, err
	}
	return trains, nil
}

func (s *gormStore) Shoulder(ctx context.Context, id int64) (*model.Shoulder, error) {
	var shoulder model.Shoulder
	if err := s.db.WithContext(ctx).First(&shoulder, id).Error; err != nil {
		return nil, notFound(err, "shoulder", id)
	}
	return &shoulder, nil
}

func (s *gormStore) Shoulders(ctx context.Context) ([]ShoulderView, error) {
	var shoulders []model.Shoulder
	if err := s.db.WithContext(ctx).Preload("StationA").Preload("StationB").Order("id").Find(&shoulders).Error; err != nil {
		return nil, err
	}
	views := make([]ShoulderView, 0, len(shoulders))
	for _, sh := range shoulders {
		views = append(views, ShoulderView{Shoulder: sh, StationAName: sh.StationA.Name, StationBName: sh.StationB.Name})
	}
	return views, nil
}

func (s *gormStore) Locomotive(ctx context.Context, id int64) (*LocomotiveView, error) {
	var loco model.Locomotive
	if err := s.db.WithContext(ctx).Preload("CurrentStation").First(&loco, id).Error; err != nil {
		return nil, notFound(err, "locomotive", id)
	}
	view := locomotiveView(loco)
	return &view, nil
}

func (s *gormStore) Locomotives(ctx context.Context) ([]LocomotiveView, error) {
	var locos []model.Locomotive
	if err := s.db.WithContext(ctx).Preload("CurrentStation").Order("id").Find(&locos).Error; err != nil {
		return nil, err
	}
	views := make([]LocomotiveView, 0, len(locos))
	for _, l := range locos {
		views = append(views, locomotiveView(l))
	}
	return views, nil
}

func locomotiveView(l model.Locomotive) LocomotiveView {
	v := LocomotiveView{Locomotive: l}
	if l.CurrentStation != nil {
		v.CurrentStationName = l.CurrentStation.Name
	}
	return v
}

// assignmentQuery preloads everything an AssignmentView needs.
func (s *gormStore) assignmentQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Locomotive").
		Preload("Train").
		Preload("Shoulder.StationA").
		Preload("Shoulder.StationB")
}

func assignmentViews(rows []model.Assignment) []AssignmentView {
	views := make([]AssignmentView, 0, len(rows))
	for _, a := range rows {
		v := AssignmentView{
			Assignment:       a,
			LocomotiveNumber: a.Locomotive.Number,
			TrainNumber:      a.Train.Number,
			FromStation:      a.Shoulder.StationA.Name,
			ToStation:        a.Shoulder.StationB.Name,
		}
		v.ShoulderName = v.FromStation + " -> " + v.ToStation
		views = append(views, v)
	}
	return views
}

func (s *gormStore) Assignments(ctx context.Context) ([]AssignmentView, error) {
	var rows []model.Assignment
	if err := s.assignmentQuery(ctx).Order("start_time DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return assignmentViews(rows), nil
}

// AssignmentsInWindow returns assignments overlapping [from, to), ordered by
// locomotive then start time.
func (s *gormStore) AssignmentsInWindow(ctx context.Context, from, to time.Time) ([]AssignmentView, error) {
	var rows []model.Assignment
	err := s.assignmentQuery(ctx).
		Where("start_time < ? AND end_time > ?", to.UTC(), from.UTC()).
		Order("locomotive_id, start_time, id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return assignmentViews(rows), nil
}

// Conflicts returns conflict assignments overlapping the optional window,
// newest first.
func (s *gormStore) Conflicts(ctx context.Context, from, to *time.Time) ([]AssignmentView, error) {
	q := s.assignmentQuery(ctx).Where("status = ?", model.AssignmentConflict)
	if from != nil {
		q = q.Where("end_time > ?", from.UTC())
	}
	if to != nil {
		q = q.Where("start_time < ?", to.UTC())
	}

	var rows []model.Assignment
	if err := q.Order("start_time DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return assignmentViews(rows), nil
}

func (s *gormStore) DashboardCounts(ctx context.Context) (*DashboardCounts, error) {
	db := s.db.WithContext(ctx)
	counts := &DashboardCounts{LocomotivesByStatus: make(map[model.LocoStatus]int64)}

	type statusCount struct {
		Status string
		N      int64
	}

	var byStatus []statusCount
	if err := db.Model(&model.Assignment{}).Select("status, COUNT(*) AS n").Group("status").Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, c := range byStatus {
		counts.TotalAssignments += c.N
		switch model.AssignmentStatus(c.Status) {
		case model.AssignmentCompleted:
			counts.CompletedAssignments = c.N
		case model.AssignmentConflict:
			counts.ConflictAssignments = c.N
		}
	}

	var locoStatus []statusCount
	if err := db.Model(&model.Locomotive{}).Select("status, COUNT(*) AS n").Group("status").Scan(&locoStatus).Error; err != nil {
		return nil, err
	}
	for _, c := range locoStatus {
		counts.LocomotivesByStatus[model.LocoStatus(c.Status)] = c.N
	}
	return counts, nil
}

// LocomotiveWork returns every locomotive, including those with no assignments.
func (s *gormStore) LocomotiveWork(ctx context.Context) ([]LocomotiveWork, error) {
	db := s.db.WithContext(ctx)

	var locos []model.Locomotive
	if err := db.Select("id", "number").Order("id").Find(&locos).Error; err != nil {
		return nil, err
	}

	var spans []model.Assignment
	if err := db.Select("locomotive_id", "start_time", "end_time").Find(&spans).Error; err != nil {
		return nil, err
	}

	work := make(map[int64]*LocomotiveWork, len(locos))
	out := make([]LocomotiveWork, len(locos))
	for i, l := range locos {
		out[i] = LocomotiveWork{LocomotiveID: l.ID, LocomotiveNumber: l.Number}
		work[l.ID] = &out[i]
	}
	for _, a := range spans {
		w, ok := work[a.LocomotiveID]
		if !ok {
			continue
		}
		w.Assignments++
		if a.EndTime.After(a.StartTime) {
			w.Worked += a.EndTime.Sub(a.StartTime)
		}
	}
	return out, nil
}
