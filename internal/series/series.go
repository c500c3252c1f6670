// Package series reads measured irradiance time series from files and writes
// detection results back out.
package series

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/pgzip"
	"github.com/parquet-go/parquet-go"
)

// DefaultColumn is the value column read when none is named
const DefaultColumn = "ghi"

// Series is a sequence of irradiance samples ordered by time
type Series struct {
	Times  []time.Time
	Values []float64
}

// Len returns the number of samples
func (s Series) Len() int {
	return len(s.Values)
}

// Step returns the spacing between the first two samples, or 0 for a series
// with fewer than two
func (s Series) Step() time.Duration {
	if len(s.Times) < 2 {
		return 0
	}
	return s.Times[1].Sub(s.Times[0])
}

// Irregular returns the number of intervals that differ from Step. Detection
// assumes every sample is one step from the previous one.
func (s Series) Irregular() int {
	step := s.Step()
	n := 0
	for i := 2; i < len(s.Times); i++ {
		if s.Times[i].Sub(s.Times[i-1]) != step {
			n++
		}
	}
	return n
}

// Open reads a series from path. The format follows the extension: .csv,
// .csv.gz or .parquet. column names the value column of CSV files.
func Open(path, column string) (Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return Series{}, err
	}
	defer f.Close()

	switch {
	case strings.HasSuffix(path, ".parquet"):
		info, err := f.Stat()
		if err != nil {
			return Series{}, err
		}
		return ReadParquet(f, info.Size())
	case strings.HasSuffix(path, ".gz"):
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return Series{}, fmt.Errorf("error opening gzip stream %s: %w", path, err)
		}
		defer gz.Close()
		return ReadCSV(gz, column)
	default:
		return ReadCSV(bufio.NewReader(f), column)
	}
}

// ReadCSV reads a CSV document with a header row. The "time" column holds
// RFC 3339 timestamps and column holds irradiance values.
func ReadCSV(r io.Reader, column string) (Series, error) {
	if column == "" {
		column = DefaultColumn
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return Series{}, fmt.Errorf("error reading CSV header: %w", err)
	}
	timeIdx, valueIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "time":
			timeIdx = i
		case column:
			valueIdx = i
		}
	}
	if timeIdx < 0 {
		return Series{}, errors.New("CSV has no time column")
	}
	if valueIdx < 0 {
		return Series{}, fmt.Errorf("CSV has no %q column", column)
	}

	var s Series
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Series{}, fmt.Errorf("line %d: %w", line, err)
		}

		t, err := time.Parse(time.RFC3339, rec[timeIdx])
		if err != nil {
			return Series{}, fmt.Errorf("line %d: invalid time: %w", line, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[valueIdx]), 64)
		if err != nil {
			return Series{}, fmt.Errorf("line %d: invalid %s value: %w", line, column, err)
		}

		s.Times = append(s.Times, t)
		s.Values = append(s.Values, v)
	}

	return s, nil
}

// ParquetSample is the row layout of Parquet inputs
type ParquetSample struct {
	Time int64   `parquet:"time"` // Unix seconds
	GHI  float64 `parquet:"ghi"`
}

// ReadParquet reads ParquetSample rows
func ReadParquet(r io.ReaderAt, size int64) (Series, error) {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return Series{}, fmt.Errorf("error opening parquet file: %w", err)
	}

	reader := parquet.NewGenericReader[ParquetSample](pf)
	defer reader.Close()

	s := Series{
		Times:  make([]time.Time, 0, pf.NumRows()),
		Values: make([]float64, 0, pf.NumRows()),
	}
	rows := make([]ParquetSample, 1000)
	for {
		n, err := reader.Read(rows)
		for _, row := range rows[:n] {
			s.Times = append(s.Times, time.Unix(row.Time, 0).UTC())
			s.Values = append(s.Values, row.GHI)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return Series{}, fmt.Errorf("error reading parquet rows: %w", err)
		}
	}

	return s, nil
}

// WriteMaskCSV writes one row per sample with the measured and predicted
// irradiance and whether the sample was judged clear
func WriteMaskCSV(w io.Writer, s Series, predicted []float64, mask []bool) error {
	if len(predicted) != s.Len() || len(mask) != s.Len() {
		return fmt.Errorf("series has %d samples but %d predictions and %d mask values", s.Len(), len(predicted), len(mask))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "observed", "predicted", "clear"}); err != nil {
		return err
	}
	for i := range s.Values {
		err := cw.Write([]string{
			s.Times[i].Format(time.RFC3339),
			strconv.FormatFloat(s.Values[i], 'f', -1, 64),
			strconv.FormatFloat(predicted[i], 'f', 2, 64),
			strconv.FormatBool(mask[i]),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
