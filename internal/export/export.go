// Package export writes a run's population series for offline analysis.
// Arrow IPC files load directly into pandas/polars; CSV and JSONL are for
// everything else.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/csv"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/nvandessel/lifesim/internal/store"
)

// Format is an export file format.
type Format string

const (
	FormatArrow Format = "arrow"
	FormatCSV   Format = "csv"
	FormatJSONL Format = "jsonl"
)

// Formats lists the supported formats.
var Formats = []Format{FormatArrow, FormatCSV, FormatJSONL}

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "arrow", "ipc", "feather":
		return FormatArrow, nil
	case "csv":
		return FormatCSV, nil
	case "jsonl", "ndjson":
		return FormatJSONL, nil
	default:
		return "", fmt.Errorf("unknown export format %q (valid: arrow, csv, jsonl)", s)
	}
}

// Schema is the column layout shared by the Arrow and CSV writers. Box
// columns are null for generations with no live cells.
var Schema = arrow.NewSchema([]arrow.Field{
	{Name: "run_id", Type: arrow.PrimitiveTypes.Int64},
	{Name: "generation", Type: arrow.PrimitiveTypes.Int64},
	{Name: "population", Type: arrow.PrimitiveTypes.Int64},
	{Name: "min_row", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
	{Name: "max_row", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
	{Name: "min_col", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
	{Name: "max_col", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
}, nil)

// Write dispatches to the writer for f.
func Write(w io.Writer, f Format, rows []store.Generation) error {
	switch f {
	case FormatArrow:
		return WriteArrow(w, rows)
	case FormatCSV:
		return WriteCSV(w, rows)
	case FormatJSONL:
		return WriteJSONL(w, rows)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}

// buildRecord converts rows into a single Arrow record. The caller must
// Release it.
func buildRecord(mem memory.Allocator, rows []store.Generation) arrow.Record {
	b := array.NewRecordBuilder(mem, Schema)
	defer b.Release()

	runID := b.Field(0).(*array.Int64Builder)
	gen := b.Field(1).(*array.Int64Builder)
	pop := b.Field(2).(*array.Int64Builder)
	bounds := []*array.Int32Builder{
		b.Field(3).(*array.Int32Builder),
		b.Field(4).(*array.Int32Builder),
		b.Field(5).(*array.Int32Builder),
		b.Field(6).(*array.Int32Builder),
	}
	for _, fb := range b.Fields() {
		fb.Reserve(len(rows))
	}

	for _, r := range rows {
		runID.Append(r.RunID)
		gen.Append(int64(r.Generation))
		pop.Append(int64(r.Population))
		if r.Box.IsEmpty() {
			for _, bb := range bounds {
				bb.AppendNull()
			}
			continue
		}
		bounds[0].Append(int32(r.Box.MinRow))
		bounds[1].Append(int32(r.Box.MaxRow))
		bounds[2].Append(int32(r.Box.MinCol))
		bounds[3].Append(int32(r.Box.MaxCol))
	}

	return b.NewRecord()
}

// WriteArrow writes rows as an Arrow IPC file with one record batch.
func WriteArrow(w io.Writer, rows []store.Generation) error {
	mem := memory.NewGoAllocator()
	rec := buildRecord(mem, rows)
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(Schema), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("creating arrow writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("writing arrow record: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("closing arrow writer: %w", err)
	}
	return nil
}

// WriteCSV writes rows as CSV with a header line. Null box columns are
// written as empty fields.
func WriteCSV(w io.Writer, rows []store.Generation) error {
	mem := memory.NewGoAllocator()
	rec := buildRecord(mem, rows)
	defer rec.Release()

	cw := csv.NewWriter(w, Schema, csv.WithHeader(true), csv.WithNullWriter(""))
	if err := cw.Write(rec); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

// WriteJSONL writes one JSON object per generation.
func WriteJSONL(w io.Writer, rows []store.Generation) error {
	enc := json.NewEncoder(w)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding generation %d: %w", r.Generation, err)
		}
	}
	return nil
}
