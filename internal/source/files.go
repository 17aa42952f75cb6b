package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/warehouse/internal/core"
	"github.com/JonMunkholm/warehouse/internal/logging"
)

// Supported bronze file extensions, in lookup order.
const (
	extCSV  = ".csv"
	extXLSX = ".xlsx"
)

// ctxCheckInterval is how many records are read between cancellation checks.
const ctxCheckInterval = 1000

// FileSource reads bronze batches from exported files under a directory.
// An entity's file is <dir>/<SourceFile>.csv or, failing that, .xlsx.
type FileSource struct {
	dir string
}

// NewFileSource creates a FileSource rooted at dir.
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

func (s *FileSource) Read(ctx context.Context, info core.EntityInfo) (core.RawBatch, error) {
	path, err := s.locate(info)
	if err != nil {
		return core.RawBatch{}, err
	}

	var records [][]string
	switch filepath.Ext(path) {
	case extXLSX:
		records, err = readWorkbook(ctx, path)
	default:
		records, err = readCSV(ctx, path)
	}
	if err != nil {
		return core.RawBatch{}, err
	}

	batch := toBatch(records)
	logging.FromContext(ctx).Debug("bronze file read",
		"entity", info.Name,
		"path", path,
		"rows_read", batch.Len(),
	)
	return batch, nil
}

// locate finds the entity's file, preferring CSV.
func (s *FileSource) locate(info core.EntityInfo) (string, error) {
	if info.SourceFile == "" {
		return "", fmt.Errorf("entity %s has no source file: %w", info.Name, fs.ErrNotExist)
	}
	base := filepath.Join(s.dir, filepath.FromSlash(info.SourceFile))
	for _, ext := range []string{extCSV, extXLSX} {
		path := base + ext
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("locate %s: %s%s or %s: %w", info.Name, base, extCSV, extXLSX, fs.ErrNotExist)
}

func readCSV(ctx context.Context, path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	counter := wrapReader(f)
	r := csv.NewReader(counter)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		if len(records)%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv %s: %w", path, err)
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("empty file: %s", path)
	}

	logging.FromContext(ctx).Debug("csv parsed", "path", path, "bytes_read", counter.bytesRead)
	return records, nil
}

func readWorkbook(ctx context.Context, path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("invalid workbook %s: %w", path, err)
	}
	defer f.Close()

	return workbookRecords(ctx, f, path)
}

// workbookRecords returns the first sheet's non-blank rows.
func workbookRecords(ctx context.Context, f *excelize.File, path string) ([][]string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("invalid workbook %s: no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("invalid workbook %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		records = append(records, row)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty file: %s", path)
	}
	return records, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}

// toBatch turns records into a batch. The first record is the header;
// empty cells become NULL.
func toBatch(records [][]string) core.RawBatch {
	batch := core.RawBatch{
		Header: core.MakeHeaderIndex(records[0]),
		Rows:   make([]core.RawRow, 0, len(records)-1),
	}
	for _, rec := range records[1:] {
		row := make(core.RawRow, len(rec))
		for i, cell := range rec {
			row[i] = core.RawText(cell)
		}
		batch.Rows = append(batch.Rows, row)
	}
	return batch
}
