package result

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"taskview/internal/store"
)

// Formats accepted by Export.
var Formats = []string{"json", "csv", "pdf"}

// Source is the read side of the record store.
type Source interface {
	AllTasks(ctx context.Context) ([]store.Task, error)
}

type Exporter struct{ st Source }

func NewExporter(st Source) *Exporter { return &Exporter{st: st} }

// ContentType returns the MIME type for a supported format.
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case "csv":
		return "text/csv"
	case "pdf":
		return "application/pdf"
	default:
		return "application/json"
	}
}

func (e *Exporter) Export(ctx context.Context, format string) ([]byte, error) {
	all, err := e.st.AllTasks(ctx)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(format) {
	case "json":
		return json.MarshalIndent(all, "", "  ")
	case "csv":
		var b bytes.Buffer
		w := csv.NewWriter(&b)
		_ = w.Write([]string{"id", "title"})
		for _, t := range all {
			_ = w.Write([]string{strconv.FormatInt(t.ID, 10), t.Title})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, err
		}
		return b.Bytes(), nil
	case "pdf":
		return renderPDF(all)
	default:
		return nil, fmt.Errorf("unknown format %s", format)
	}
}

func renderPDF(all []store.Task) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// core fonts are cp1252; map UTF-8 titles onto it
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, "Tasks")
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 10)
	if len(all) == 0 {
		pdf.Cell(40, 6, "(no tasks)")
	}
	for _, t := range all {
		pdf.MultiCell(0, 6, tr(fmt.Sprintf("%4d  %s", t.ID, t.Title)), "0", "L", false)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
