package report

import (
	"fmt"
	"strings"

	"github.com/klokku/meetstats/pkg/aggregate"
)

// Format is the persistence format of an export.
type Format string

const (
	FormatXlsx Format = "xlsx"
	FormatCsv  Format = "csv"
	FormatJson Format = "json"
)

// Renderer turns report rows into a file body.
type Renderer interface {
	RenderReport(rows []aggregate.Row) ([]byte, error)
	Extension() string
	ContentType() string
}

func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case FormatXlsx, FormatCsv, FormatJson:
		return f, nil
	case "":
		return FormatXlsx, nil
	}
	return "", fmt.Errorf("unknown report format %q", value)
}

func RendererFor(format Format) (Renderer, error) {
	switch format {
	case FormatXlsx:
		return NewXlsxRenderer(), nil
	case FormatCsv:
		return NewCsvRenderer(), nil
	case FormatJson:
		return NewJsonRenderer(), nil
	}
	return nil, fmt.Errorf("no renderer for format %q", format)
}
