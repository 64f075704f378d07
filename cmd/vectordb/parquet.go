package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/vectordb"
)

// parquetColumn describes one leaf column of the input file.
type parquetColumn struct {
	name     string // top-level field name
	repeated bool   // list column, collected into a slice
}

// readParquetRecords reads every row of a parquet file as a Record keyed by
// top-level column name. Repeated columns (vectors) become slices; nulls are omitted.
func readParquetRecords(path string) ([]vectordb.Record, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	schema := pf.Schema()
	paths := schema.Columns()
	cols := make([]parquetColumn, len(paths))
	for i, p := range paths {
		if len(p) == 0 {
			continue
		}
		leaf, ok := schema.Lookup(p...)
		cols[i] = parquetColumn{
			name:     p[0],
			repeated: len(p) > 1 || (ok && leaf.MaxRepetitionLevel > 0),
		}
	}

	records := make([]vectordb.Record, 0, pf.NumRows())
	buf := make([]parquet.Row, 1000)
	for _, rg := range pf.RowGroups() {
		rows := parquet.NewRowGroupReader(rg)
		for {
			n, readErr := rows.ReadRows(buf)
			for i := 0; i < n; i++ {
				records = append(records, rowToRecord(buf[i], cols))
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return nil, fmt.Errorf("read rows: %w", readErr)
			}
		}
	}
	return records, nil
}

func rowToRecord(row parquet.Row, cols []parquetColumn) vectordb.Record {
	rec := make(vectordb.Record, len(cols))
	lists := make(map[string][]any)
	for _, v := range row {
		idx := v.Column()
		if idx < 0 || idx >= len(cols) || cols[idx].name == "" || v.IsNull() {
			continue
		}
		col := cols[idx]
		if col.repeated {
			lists[col.name] = append(lists[col.name], parquetValue(v))
			continue
		}
		rec[col.name] = parquetValue(v)
	}
	for name, vals := range lists {
		rec[name] = vals
	}
	return rec
}

func parquetValue(v parquet.Value) any {
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return v.Int32()
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return v.Float()
	case parquet.Double:
		return v.Double()
	default:
		return v.String()
	}
}
