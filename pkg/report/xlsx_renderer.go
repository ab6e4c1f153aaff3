package report

import (
	"fmt"

	"github.com/klokku/meetstats/pkg/aggregate"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// SheetName is the single sheet every workbook carries.
const SheetName = "Sheet1"

type XlsxRenderer struct {
}

func NewXlsxRenderer() *XlsxRenderer {
	return &XlsxRenderer{}
}

func (r *XlsxRenderer) RenderReport(rows []aggregate.Row) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Warnf("closing workbook: %v", err)
		}
	}()

	header := make([]interface{}, 0, len(Header))
	for _, h := range Header {
		header = append(header, h)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []interface{}{
			row.Month,
			row.SubjectCategory,
			row.Subject,
			row.Count,
			row.TotalMinutes,
			row.TotalHours,
			row.TotalDays,
			row.Categories,
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		log.Errorf("Error writing workbook: %v", err)
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *XlsxRenderer) Extension() string {
	return "xlsx"
}

func (r *XlsxRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
