// Package report renders export artifacts for the audit and goods-received
// logs.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/krishsoni15/procureflow/internal/domain/entity"
)

const grnSheet = "Goods Received"

// BuildGRNWorkbook renders goods-received notes into an xlsx workbook and
// returns the serialized bytes.
func BuildGRNWorkbook(notes []*entity.Note) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(grnSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	headers := []string{"Request Number", "Recorded By", "Role", "Status", "Details", "Recorded At"}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(grnSheet, cell, h); err != nil {
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(grnSheet, "A1", "F1", headerStyle); err != nil {
		return nil, err
	}

	for i, note := range notes {
		row := i + 2
		values := []interface{}{
			note.RequestNumber,
			note.UserID,
			note.Role.String(),
			note.Status.String(),
			note.Content,
			note.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(grnSheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetColWidth(grnSheet, "A", "F", 24); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
