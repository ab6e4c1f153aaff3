package report

import (
	"encoding/json"

	"github.com/klokku/meetstats/pkg/aggregate"
)

type JsonRenderer struct {
}

func NewJsonRenderer() *JsonRenderer {
	return &JsonRenderer{}
}

func (r *JsonRenderer) RenderReport(rows []aggregate.Row) ([]byte, error) {
	if rows == nil {
		rows = []aggregate.Row{}
	}
	return json.MarshalIndent(rows, "", "  ")
}

func (r *JsonRenderer) Extension() string {
	return "json"
}

func (r *JsonRenderer) ContentType() string {
	return "application/json"
}
