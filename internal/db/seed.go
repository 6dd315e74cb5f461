package db

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"loco-dispatcher/internal/model"
	"loco-dispatcher/internal/parse"
)

type seedLoco struct {
	number, model, depot string
	station              int
	fuelPct, sand        float64
}

type seedShoulder struct {
	a, b          int
	distance      float64
	allowed       string
	turnaroundMin int
}

type seedServicePoint struct {
	station int
	kind    model.ServiceType
	minutes int
}

var (
	seedStations = []string{
		"Нур-Султан (Астана)",
		"Алматы-1",
		"Алматы-2",
		"Караганда",
		"Шымкент",
		"Актобе",
		"Павлодар",
		"Кокшетау",
	}

	seedTrains = []model.Train{
		{Number: "001X", Category: model.TrainPassenger, RouteDescription: "Алматы - Астана"},
		{Number: "002X", Category: model.TrainPassenger, RouteDescription: "Астана - Алматы"},
		{Number: "641A", Category: model.TrainPassenger, RouteDescription: "Павлодар - Астана"},
		{Number: "407Ц", Category: model.TrainPassenger, RouteDescription: "Караганда - Астана"},
		{Number: "353Б", Category: model.TrainCargo, RouteDescription: "Актобе - Шымкент"},
		{Number: "6833", Category: model.TrainCargo, RouteDescription: "Кокшетау - Астана"},
	}

	// station is a 1-based index into seedStations.
	seedLocos = []seedLoco{
		{"KZ4A-0001", "KZ4A", "Алматы", 1, 85, 90},
		{"KZ4A-0002", "KZ4A", "Алматы", 2, 40, 60},
		{"TE33A-0123", "TE33A", "Астана", 1, 95, 100},
		{"TE33A-0124", "TE33A", "Астана", 3, 10, 30},
		{"VL80-1542", "VL80", "Караганда", 4, 70, 80},
		{"VL80-1543", "VL80", "Караганда", 1, 100, 100},
		{"2TE10-5521", "2TE10", "Актобе", 6, 55, 45},
		{"2TE10-5522", "2TE10", "Актобе", 5, 80, 70},
	}

	seedShoulders = []seedShoulder{
		{1, 2, 1200, "KZ4A,TE33A", 120},
		{2, 1, 1200, "KZ4A,TE33A", 120},
		{1, 4, 200, "KZ4A,TE33A,VL80", 60},
		{4, 1, 200, "KZ4A,TE33A,VL80", 60},
		{6, 5, 1500, "2TE10,TE33A", 180},
		{8, 1, 300, "TE33A,VL80", 60},
	}

	seedServicePoints = []seedServicePoint{
		{1, model.ServiceFuel, 45},
		{1, model.ServiceSand, 30},
		{1, model.ServiceInspection, 60},
		{2, model.ServiceFuel, 45},
		{4, model.ServiceFuel, 45},
	}
)

// Bootstrap inserts reference data when the stations table is empty. It is
// safe to call on every start and reports whether anything was inserted.
func Bootstrap(db *gorm.DB) (bool, error) {
	var count int64
	if err := db.Model(&model.Station{}).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count stations: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	log.Println("Seeding reference data...")
	err := db.Transaction(func(tx *gorm.DB) error {
		stations := make([]model.Station, 0, len(seedStations))
		for _, name := range seedStations {
			stations = append(stations, model.Station{Name: name, Code: parse.StationCode(name)})
		}
		if err := tx.Create(&stations).Error; err != nil {
			return fmt.Errorf("seed stations: %w", err)
		}
		stationID := func(idx int) int64 { return stations[idx-1].ID }

		trains := append([]model.Train(nil), seedTrains...)
		if err := tx.Create(&trains).Error; err != nil {
			return fmt.Errorf("seed trains: %w", err)
		}

		locos := make([]model.Locomotive, 0, len(seedLocos))
		for _, s := range seedLocos {
			l := model.NewLocomotive(s.number, s.model, s.depot)
			id := stationID(s.station)
			l.CurrentStationID = &id
			l.FuelCurrent = l.FuelCapacity * s.fuelPct / 100
			l.SandLevel = s.sand
			locos = append(locos, l)
		}
		if err := tx.Create(&locos).Error; err != nil {
			return fmt.Errorf("seed locomotives: %w", err)
		}

		shoulders := make([]model.Shoulder, 0, len(seedShoulders))
		for _, s := range seedShoulders {
			shoulders = append(shoulders, model.Shoulder{
				StationAID:        stationID(s.a),
				StationBID:        stationID(s.b),
				DistanceKm:        s.distance,
				AllowedModels:     s.allowed,
				MinTurnaroundMins: s.turnaroundMin,
			})
		}
		if err := tx.Create(&shoulders).Error; err != nil {
			return fmt.Errorf("seed shoulders: %w", err)
		}

		points := make([]model.ServicePoint, 0, len(seedServicePoints))
		for _, s := range seedServicePoints {
			points = append(points, model.ServicePoint{StationID: stationID(s.station), Type: s.kind, ServiceTimeMins: s.minutes})
		}
		if err := tx.Create(&points).Error; err != nil {
			return fmt.Errorf("seed service points: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
