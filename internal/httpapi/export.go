package httpapi

import (
	"bytes"
	"fmt"

	"github.com/August1314/nicehouse/internal/models"

	"github.com/xuri/excelize/v2"
)

// AlarmExportHeader columns of the alarm sheet.
var AlarmExportHeader = []string{
	"Alarm ID",
	"Type",
	"Level",
	"Room",
	"Message",
	"Time",
	"Handled",
}

const alarmSheet = "Alarms"

// GenerateAlarmExport renders records as an .xlsx workbook. message supplies the Message column.
func GenerateAlarmExport(records []models.AlarmRecord, message func(models.AlarmRecord) string) ([]byte, error) {
	f := excelize.NewFile()
	// WriteTo needs the file open; Close runs at the end

	index, err := f.NewSheet(alarmSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
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
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	alertStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#C00000"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create alert style: %w", err)
	}

	for col, header := range AlarmExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(alarmSheet, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(alarmSheet, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	widths := []float64{38, 16, 10, 16, 36, 22, 10}
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(alarmSheet, col, col, width); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, rec := range records {
		row := i + 2
		values := []any{
			rec.ID,
			string(rec.Type),
			rec.Type.Level(),
			rec.RoomID,
			message(rec),
			rec.Time.Format("2006-01-02 15:04:05"),
			rec.Handled,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(alarmSheet, cell, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
		if rec.Type.Level() == models.AlarmLevelAlert {
			first, _ := excelize.CoordinatesToCellName(1, row)
			last, _ := excelize.CoordinatesToCellName(len(values), row)
			if err := f.SetCellStyle(alarmSheet, first, last, alertStyle); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set alert style: %w", err)
			}
		}
	}

	if err := f.SetPanes(alarmSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}
	return buf.Bytes(), nil
}
