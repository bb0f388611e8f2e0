package result

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskview/internal/store"
)

type fixedSource struct {
	tasks []store.Task
	err   error
}

func (f fixedSource) AllTasks(context.Context) ([]store.Task, error) { return f.tasks, f.err }

var sample = fixedSource{tasks: []store.Task{
	{ID: 1, Title: "Buy milk"},
	{ID: 2, Title: "Call mom, then dad"},
}}

func TestExport_JSON(t *testing.T) {
	b, err := NewExporter(sample).Export(context.Background(), "JSON")
	require.NoError(t, err)

	var got []store.Task
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, sample.tasks, got)
	assert.Contains(t, string(b), `"title": "Buy milk"`)
}

func TestExport_CSV(t *testing.T) {
	b, err := NewExporter(sample).Export(context.Background(), "csv")
	require.NoError(t, err)
	assert.Equal(t, "id,title\n1,Buy milk\n2,\"Call mom, then dad\"\n", string(b))
}

func TestExport_PDF(t *testing.T) {
	b, err := NewExporter(sample).Export(context.Background(), "pdf")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF-")))
}

func TestExport_PDFEmpty(t *testing.T) {
	b, err := NewExporter(fixedSource{}).Export(context.Background(), "pdf")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF-")))
}

func TestExport_UnknownFormat(t *testing.T) {
	_, err := NewExporter(sample).Export(context.Background(), "xml")
	assert.EqualError(t, err, "unknown format xml")
}

func TestExport_SourceError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewExporter(fixedSource{err: boom}).Export(context.Background(), "json")
	assert.ErrorIs(t, err, boom)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv", ContentType("csv"))
	assert.Equal(t, "application/pdf", ContentType("PDF"))
	assert.Equal(t, "application/json", ContentType("json"))
}
