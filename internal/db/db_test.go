package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loco-dispatcher/config"
	"loco-dispatcher/internal/model"
)

func TestBootstrap_IsIdempotent(t *testing.T) {
	gdb, err := Init(&config.DatabaseConfig{Driver: "sqlite", DSN: "file::memory:", MaxOpenConns: 1})
	require.NoError(t, err)
	sqlDB, _ := gdb.DB()
	defer sqlDB.Close()

	seeded, err := Bootstrap(gdb)
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = Bootstrap(gdb)
	require.NoError(t, err)
	assert.False(t, seeded, "second run must not insert again")

	var stations, locos, shoulders int64
	gdb.Model(&model.Station{}).Count(&stations)
	gdb.Model(&model.Locomotive{}).Count(&locos)
	gdb.Model(&model.Shoulder{}).Count(&shoulders)
	assert.Equal(t, int64(len(seedStations)), stations)
	assert.Equal(t, int64(len(seedLocos)), locos)
	assert.Equal(t, int64(len(seedShoulders)), shoulders)

	var astana model.Station
	require.NoError(t, gdb.Where("code = ?", "НУР_СУЛТАН_АСТАНА").First(&astana).Error)

	var loco model.Locomotive
	require.NoError(t, gdb.Where("number = ?", "KZ4A-0002").First(&loco).Error)
	assert.InDelta(t, 40.0, loco.FuelPercent(), 1e-9)
	assert.Equal(t, model.LocoIdle, loco.Status)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}
