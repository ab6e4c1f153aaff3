package report

import (
	"bytes"
	"encoding/csv"

	"github.com/klokku/meetstats/pkg/aggregate"
	log "github.com/sirupsen/logrus"
)

type CsvRenderer struct {
}

func NewCsvRenderer() *CsvRenderer {
	return &CsvRenderer{}
}

func (r *CsvRenderer) RenderReport(rows []aggregate.Row) ([]byte, error) {
	data := make([][]string, 0, len(rows)+1)
	data = append(data, Header)
	for _, row := range rows {
		data = append(data, rowToStrings(row))
	}

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, record := range data {
		err := writer.Write(record)
		if err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return nil, err
	}

	return b.Bytes(), nil
}

func (r *CsvRenderer) Extension() string {
	return "csv"
}

func (r *CsvRenderer) ContentType() string {
	return "text/csv; charset=utf-8"
}
