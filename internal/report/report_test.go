package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"loco-dispatcher/internal/dispatch"
)

var (
	window = dispatch.Interval{
		Start: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	rows = []dispatch.Efficiency{
		{LocomotiveID: 1, LocomotiveNumber: "KZ8A-0001", RunMinutes: 2520, IdleMinutes: 7560, Percent: 25},
		{LocomotiveID: 2, LocomotiveNumber: "TE33A-0002", RunMinutes: 100, IdleMinutes: 9980, Percent: 0.99206},
	}
)

func TestBuildXLSX(t *testing.T) {
	data, err := Build(FormatXLSX, window, rows)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows("efficiency")
	require.NoError(t, err)
	require.Len(t, got, 8)
	assert.Equal(t, "13", got[3][1], "fleet efficiency is the rounded mean")
	assert.Equal(t, columns, got[5])
	assert.Equal(t, []string{"KZ8A-0001", "42", "126", "0", "25"}, got[6])
	assert.Equal(t, []string{"TE33A-0002", "1.7", "166.3", "0", "1"}, got[7])
}

func TestBuildPDF(t *testing.T) {
	data, err := Build(FormatPDF, window, rows)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestBuild_UnsupportedFormat(t *testing.T) {
	_, err := Build("csv", window, rows)
	assert.Error(t, err)
	assert.Empty(t, Format("csv").ContentType())
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "1.5", Hours(90))
	assert.Equal(t, "0.0", Percent(0))
	assert.Equal(t, "33.3", Percent(100.0/3))
	assert.Equal(t, "efficiency_20250303_20250310.pdf", Filename(window, FormatPDF))
}
