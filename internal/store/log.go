package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/sweeney/soil-sensor/internal/logic"
)

// Header is the fixed first row of the log.
var Header = []string{
	"timestamp",
	"cycle",
	"duracao_coleta_s",
	"num_amostras",
	"leitura_adc_media",
	"tensao_v_media",
	"umidade_solo_pct",
	"estado_solo",
	"temperatura_c",
	"umidade_ar_pct",
}

// Log is the append-only CSV record log.
type Log struct {
	path string
}

// NewLog creates a Log backed by path. The file is created on first Append.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Append writes one row for rec, preceded by the header if the file is new.
// The row is synced before Append returns.
func (l *Log) Append(rec logic.CycleRecord) error {
	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return persistErr("open log", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return persistErr("stat log", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return persistErr("write header", err)
		}
	}
	if err := w.Write(formatRecord(rec)); err != nil {
		return persistErr("write record", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return persistErr("flush log", err)
	}
	if err := f.Sync(); err != nil {
		return persistErr("sync log", err)
	}
	return nil
}

func formatRecord(rec logic.CycleRecord) []string {
	return []string{
		strconv.FormatUint(rec.Timestamp, 10),
		strconv.FormatUint(rec.Cycle, 10),
		strconv.FormatFloat(rec.Duration.Seconds(), 'f', 1, 64),
		strconv.Itoa(rec.Samples),
		strconv.FormatFloat(math.Floor(rec.ADC), 'f', 0, 64),
		strconv.FormatFloat(rec.Voltage, 'f', 2, 64),
		strconv.FormatFloat(rec.Moisture, 'f', 1, 64),
		string(rec.State),
		strconv.FormatFloat(rec.Temperature, 'f', 2, 64),
		strconv.FormatFloat(rec.Humidity, 'f', 2, 64),
	}
}

// ReadRecords parses every row of the log at path.
func ReadRecords(path string) ([]logic.CycleRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)

	head, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !slices.Equal(head, Header) {
		return nil, fmt.Errorf("unexpected header %v", head)
	}

	var out []logic.CycleRecord
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rec, err := parseRecord(row)
		if err != nil {
			line, _ := r.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
}

func parseRecord(row []string) (logic.CycleRecord, error) {
	var rec logic.CycleRecord
	var err error
	ints := []struct {
		dst *uint64
		src string
	}{
		{&rec.Timestamp, row[0]},
		{&rec.Cycle, row[1]},
	}
	for _, f := range ints {
		if *f.dst, err = strconv.ParseUint(f.src, 10, 64); err != nil {
			return rec, fmt.Errorf("parse %q: %w", f.src, err)
		}
	}

	secs, err := strconv.ParseFloat(row[2], 64)
	if err != nil {
		return rec, fmt.Errorf("parse duration %q: %w", row[2], err)
	}
	rec.Duration = time.Duration(secs * float64(time.Second))

	if rec.Samples, err = strconv.Atoi(row[3]); err != nil {
		return rec, fmt.Errorf("parse samples %q: %w", row[3], err)
	}

	floats := []struct {
		dst *float64
		src string
	}{
		{&rec.ADC, row[4]},
		{&rec.Voltage, row[5]},
		{&rec.Moisture, row[6]},
		{&rec.Temperature, row[8]},
		{&rec.Humidity, row[9]},
	}
	for _, f := range floats {
		if *f.dst, err = strconv.ParseFloat(f.src, 64); err != nil {
			return rec, fmt.Errorf("parse %q: %w", f.src, err)
		}
	}

	if rec.State, err = logic.ParseState(row[7]); err != nil {
		return rec, err
	}
	return rec, nil
}
