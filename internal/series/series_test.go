package series

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/pgzip"
	"github.com/parquet-go/parquet-go"
)

const sampleCSV = `time,ghi,temp
2024-06-21T12:00:00Z,101.5,20
2024-06-21T12:01:00Z,110,20
2024-06-21T12:02:00Z,118.25,21
`

func TestReadCSV(t *testing.T) {
	s, err := ReadCSV(strings.NewReader(sampleCSV), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.Len() != 3 {
		t.Fatalf("expected 3 samples, got %d", s.Len())
	}
	if s.Values[2] != 118.25 {
		t.Errorf("unexpected value %v", s.Values[2])
	}
	if s.Step() != time.Minute || s.Irregular() != 0 {
		t.Errorf("expected a regular one-minute series, got step %v with %d irregular intervals", s.Step(), s.Irregular())
	}

	temp, err := ReadCSV(strings.NewReader(sampleCSV), "temp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if temp.Values[2] != 21 {
		t.Errorf("expected the temp column, got %v", temp.Values)
	}
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty", doc: ""},
		{name: "no time column", doc: "when,ghi\n2024-06-21T12:00:00Z,1\n"},
		{name: "no value column", doc: "time,dhi\n2024-06-21T12:00:00Z,1\n"},
		{name: "bad time", doc: "time,ghi\nnoon,1\n"},
		{name: "bad value", doc: "time,ghi\n2024-06-21T12:00:00Z,bright\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadCSV(strings.NewReader(tt.doc), "ghi"); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestIrregular(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := Series{
		Times:  []time.Time{base, base.Add(time.Minute), base.Add(2 * time.Minute), base.Add(5 * time.Minute)},
		Values: []float64{0, 0, 0, 0},
	}
	if s.Irregular() != 1 {
		t.Errorf("expected one irregular interval, got %d", s.Irregular())
	}
}

func TestOpenGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ghi.csv.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gz := pgzip.NewWriter(f)
	if _, err := gz.Write([]byte(sampleCSV)); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	s, err := Open(path, "ghi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != 3 || s.Values[0] != 101.5 {
		t.Errorf("unexpected series %+v", s)
	}
}

func TestOpenParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ghi.parquet")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	rows := make([]ParquetSample, 2500)
	for i := range rows {
		rows[i] = ParquetSample{Time: 1718971200 + int64(i*60), GHI: float64(i)}
	}
	w := parquet.NewGenericWriter[ParquetSample](f)
	if _, err := w.Write(rows); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	s, err := Open(path, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Len() != len(rows) {
		t.Fatalf("expected %d samples, got %d", len(rows), s.Len())
	}
	if s.Values[2499] != 2499 || !s.Times[0].Equal(time.Unix(1718971200, 0)) {
		t.Errorf("unexpected samples: first %v, last %v", s.Times[0], s.Values[2499])
	}
	if s.Step() != time.Minute {
		t.Errorf("unexpected step %v", s.Step())
	}
}

func TestOpenMissing(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope.csv"), ""); err == nil {
		t.Error("expected an error")
	}
}

func TestWriteMaskCSV(t *testing.T) {
	s, err := ReadCSV(strings.NewReader(sampleCSV), "ghi")
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteMaskCSV(&buf, s, []float64{100, 110.554, 120}, []bool{true, true, false}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := "time,observed,predicted,clear\n" +
		"2024-06-21T12:00:00Z,101.5,100.00,true\n" +
		"2024-06-21T12:01:00Z,110,110.55,true\n" +
		"2024-06-21T12:02:00Z,118.25,120.00,false\n"
	if buf.String() != expected {
		t.Errorf("unexpected output:\n%s", buf.String())
	}

	if err := WriteMaskCSV(&buf, s, []float64{1}, []bool{true, true, true}); err == nil {
		t.Error("expected an error for mismatched lengths")
	}
}
