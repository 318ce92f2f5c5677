// Package report renders hospital capacity as an XLSX workbook: a table of
// hospitals plus a bed availability bar chart and a location scatter chart.
package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/linnemanlabs/wardline/internal/hospital"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SheetName is the worksheet holding the hospital table.
const SheetName = "Hospitals"

// Header is the first row of the hospital table.
var Header = []string{"Hospital", "Latitude", "Longitude", "Beds Available"}

var columnWidths = []float64{24, 12, 12, 16}

// BedAvailability builds the workbook for hospitals, in the given order.
func BedAvailability(hospitals []hospital.Hospital) ([]byte, error) {
	f := excelize.NewFile()

	data, err := build(f, hospitals)
	if cerr := f.Close(); err == nil && cerr != nil {
		return nil, fmt.Errorf("close workbook: %w", cerr)
	}
	return data, err
}

func build(f *excelize.File, hospitals []hospital.Hospital) ([]byte, error) {
	index, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	if err := writeHeader(f); err != nil {
		return nil, err
	}

	for i, h := range hospitals {
		row := i + 2
		values := []any{h.Name, h.Location.Lat, h.Location.Lng, h.BedsAvailable}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	// a chart over an empty range is rejected by spreadsheet apps
	if len(hospitals) > 0 {
		if err := addCharts(f, len(hospitals)+1); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(Header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, style); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, w := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, col, col, w); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}
	return nil
}

// addCharts places the bar chart and scatter chart to the right of the
// table. lastRow is the final data row.
func addCharts(f *excelize.File, lastRow int) error {
	ref := func(col string) string {
		return fmt.Sprintf("%s!$%s$2:$%s$%d", SheetName, col, col, lastRow)
	}

	beds := &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       SheetName + "!$D$1",
			Categories: ref("A"),
			Values:     ref("D"),
		}},
		Title:  []excelize.RichTextRun{{Text: "Hospital Bed Availability"}},
		Legend: excelize.ChartLegend{Position: "none"},
	}
	if err := f.AddChart(SheetName, "F2", beds); err != nil {
		return fmt.Errorf("add bed chart: %w", err)
	}

	locations := &excelize.Chart{
		Type: excelize.Scatter,
		Series: []excelize.ChartSeries{{
			Name:       SheetName + "!$A$1",
			Categories: ref("C"), // x: longitude
			Values:     ref("B"), // y: latitude
			Marker:     excelize.ChartMarker{Symbol: "circle", Size: 7},
			Line:       excelize.ChartLine{Type: excelize.ChartLineNone},
		}},
		Title:  []excelize.RichTextRun{{Text: "Hospital Locations"}},
		Legend: excelize.ChartLegend{Position: "none"},
	}
	if err := f.AddChart(SheetName, "F20", locations); err != nil {
		return fmt.Errorf("add location chart: %w", err)
	}
	return nil
}
