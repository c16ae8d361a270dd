// Package storage persists L_RAND datasets as gzip-compressed CSV files.
package storage

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
)

const (
	ColumnIndex      = "index"
	ColumnIdentifier = "identifier"
	ColumnLRand      = "L_RAND"
	ColumnLRandWhole = "L_RAND_WHOLE"

	lrandDigits = 10
)

var (
	ErrBadHeader  = errors.New("unexpected header")
	ErrCorruptRow = errors.New("corrupt row")
)

type Row struct {
	Index      int64
	Identifier int64
	// Whole is L_RAND scaled by 1e10.
	Whole int64
}

type Dataset struct {
	Columns []string
	Rows    []Row
}

func Columns(includeWhole bool) []string {
	cols := []string{ColumnIndex, ColumnIdentifier, ColumnLRand}
	if includeWhole {
		cols = append(cols, ColumnLRandWhole)
	}

	return cols
}

type CSVSink struct {
	fs afero.Fs
}

func NewCSVSink(fs afero.Fs) *CSVSink {
	return &CSVSink{fs: fs}
}

func TempPath(path, runID string) string {
	return path + "." + runID + ".tmp"
}

// Write stores rows at path. The file is written under a temporary name and renamed
// into place, so path either holds a complete dataset or is left untouched.
func (s *CSVSink) Write(path, runID string, rows []Row, includeWhole bool) (err error) {
	path = filepath.Clean(path)

	if err = s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp := TempPath(path, runID)
	defer func() {
		if err == nil {
			return
		}
		rmErr := s.fs.Remove(tmp)
		if rmErr != nil && !os.IsNotExist(rmErr) {
			err = errors.Join(err, rmErr)
		}
	}()

	file, err := s.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open temporary file: %w", err)
	}

	err = encode(file, rows, includeWhole)
	if err == nil {
		err = file.Sync()
	}
	if cerr := file.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	if err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}

	if err = s.fs.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to move dataset into place: %w", err)
	}

	return nil
}

func encode(w io.Writer, rows []Row, includeWhole bool) error {
	gz := gzip.NewWriter(w)
	buf := bufio.NewWriterSize(gz, 1<<20)

	if _, err := buf.WriteString(strings.Join(Columns(includeWhole), ",") + "\n"); err != nil {
		return err
	}

	line := make([]byte, 0, 64)
	for _, r := range rows {
		line = line[:0]
		line = strconv.AppendInt(line, r.Index, 10)
		line = append(line, ',')
		line = strconv.AppendInt(line, r.Identifier, 10)
		line = append(line, ',')
		line = AppendLRand(line, r.Whole)
		if includeWhole {
			line = append(line, ',')
			line = strconv.AppendInt(line, r.Whole, 10)
		}
		line = append(line, '\n')

		if _, err := buf.Write(line); err != nil {
			return err
		}
	}

	if err := buf.Flush(); err != nil {
		return err
	}

	return gz.Close()
}

// AppendLRand appends whole/1e10 with exactly ten fractional digits.
func AppendLRand(dst []byte, whole int64) []byte {
	dst = append(dst, '0', '.')

	digits := strconv.FormatInt(whole, 10)
	for i := len(digits); i < lrandDigits; i++ {
		dst = append(dst, '0')
	}

	return append(dst, digits...)
}

// ParseLRand is the inverse of AppendLRand.
func ParseLRand(s string) (int64, error) {
	frac, ok := strings.CutPrefix(s, "0.")
	if !ok || len(frac) != lrandDigits {
		return 0, fmt.Errorf("%w: L_RAND %q", ErrCorruptRow, s)
	}

	whole, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || whole < 0 {
		return 0, fmt.Errorf("%w: L_RAND %q", ErrCorruptRow, s)
	}

	return whole, nil
}

// Scan streams the rows of the dataset at path to fn in file order.
func (s *CSVSink) Scan(path string, fn func(Row) error) (columns []string, err error) {
	file, err := s.fs.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()

	gz, err := gzip.NewReader(bufio.NewReaderSize(file, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer func() {
		err = errors.Join(err, gz.Close())
	}()

	r := csv.NewReader(gz)
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	columns = append([]string(nil), header...)

	includeWhole := false
	switch {
	case slices.Equal(columns, Columns(false)):
	case slices.Equal(columns, Columns(true)):
		includeWhole = true
	default:
		return nil, fmt.Errorf("%w: %v", ErrBadHeader, columns)
	}

	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		row, err := parseRow(rec, includeWhole)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		if err := fn(row); err != nil {
			return nil, err
		}
	}

	return columns, nil
}

func (s *CSVSink) Read(path string) (*Dataset, error) {
	var rows []Row

	cols, err := s.Scan(path, func(r Row) error {
		rows = append(rows, r)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Dataset{Columns: cols, Rows: rows}, nil
}

func parseRow(rec []string, includeWhole bool) (Row, error) {
	idx, err := strconv.ParseInt(rec[0], 10, 64)
	if err != nil {
		return Row{}, fmt.Errorf("%w: index %q", ErrCorruptRow, rec[0])
	}
	id, err := strconv.ParseInt(rec[1], 10, 64)
	if err != nil {
		return Row{}, fmt.Errorf("%w: identifier %q", ErrCorruptRow, rec[1])
	}
	whole, err := ParseLRand(rec[2])
	if err != nil {
		return Row{}, err
	}

	if includeWhole {
		w, err := strconv.ParseInt(rec[3], 10, 64)
		if err != nil || w != whole {
			return Row{}, fmt.Errorf("%w: L_RAND_WHOLE %q does not match L_RAND %q", ErrCorruptRow, rec[3], rec[2])
		}
	}

	return Row{Index: idx, Identifier: id, Whole: whole}, nil
}
