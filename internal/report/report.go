// Package report renders the efficiency report as downloadable files.
package report

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"loco-dispatcher/internal/dispatch"
)

// Format is a supported export format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ContentType returns the MIME type for the format, or "" when unsupported.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return ""
}

// Filename names the export for a window.
func Filename(window dispatch.Interval, f Format) string {
	return fmt.Sprintf("efficiency_%s_%s.%s", window.Start.Format("20060102"), window.End.Format("20060102"), f)
}

var columns = []string{"Locomotive", "Run (h)", "Idle (h)", "Service (h)", "Efficiency (%)"}

// Hours formats minutes as hours with one decimal.
func Hours(minutes float64) string {
	return fmt.Sprintf("%.1f", minutes/60)
}

// Percent formats a percentage with one decimal.
func Percent(p float64) string {
	return fmt.Sprintf("%.1f", p)
}

// Build renders rows in the requested format.
func Build(f Format, window dispatch.Interval, rows []dispatch.Efficiency) ([]byte, error) {
	switch f {
	case FormatXLSX:
		return BuildXLSX(window, rows)
	case FormatPDF:
		return BuildPDF(window, rows)
	}
	return nil, fmt.Errorf("unsupported export format %q", f)
}

// BuildXLSX renders a summary sheet and one row per locomotive.
func BuildXLSX(window dispatch.Interval, rows []dispatch.Efficiency) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "efficiency"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(sheet, "A1", "Locomotive efficiency")
	_ = f.SetCellValue(sheet, "A2", "From")
	_ = f.SetCellValue(sheet, "B2", window.Start.UTC().Format(time.RFC3339))
	_ = f.SetCellValue(sheet, "A3", "To")
	_ = f.SetCellValue(sheet, "B3", window.End.UTC().Format(time.RFC3339))
	_ = f.SetCellValue(sheet, "A4", "Fleet efficiency (%)")
	_ = f.SetCellValue(sheet, "B4", round1(dispatch.FleetEfficiency(rows)))

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A6", &header); err != nil {
		return nil, err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+7)
		if err != nil {
			return nil, err
		}
		values := []any{r.LocomotiveNumber, round1(r.RunMinutes / 60), round1(r.IdleMinutes / 60), round1(r.ServiceMinutes / 60), round1(r.Percent)}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildPDF renders the same table as a single A4 document.
func BuildPDF(window dispatch.Interval, rows []dispatch.Efficiency) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Locomotive efficiency")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Window: %s - %s", window.Start.UTC().Format("2006-01-02 15:04"), window.End.UTC().Format("2006-01-02 15:04")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Fleet efficiency: %s%%", Percent(dispatch.FleetEfficiency(rows))))
	pdf.Ln(8)

	widths := []float64{50, 30, 30, 30, 35}
	pdf.SetFont("Arial", "B", 10)
	for i, c := range columns {
		pdf.CellFormat(widths[i], 6, c, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, r := range rows {
		pdf.CellFormat(widths[0], 6, r.LocomotiveNumber, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, Hours(r.RunMinutes), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 6, Hours(r.IdleMinutes), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, Hours(r.ServiceMinutes), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, Percent(r.Percent), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
