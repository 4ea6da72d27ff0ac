package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"soilmon/internal/modules/soil/types"
)

// Header is the first CSV line, in column order.
var Header = []string{"No", "Timestamp", "Nitrogen", "pH", "Potassium", "Phosphorus"}

// WriteCSV renders records under Header. Absent fields are empty cells.
func WriteCSV(w io.Writer, records []types.MergedRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		line := []string{
			strconv.Itoa(r.No),
			r.Timestamp,
			formatValue(r.Nitrogen),
			formatValue(r.PH),
			formatValue(r.Potassium),
			formatValue(r.Phosphorus),
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("write csv row %d: %w", r.No, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a document produced by WriteCSV.
func ReadCSV(r io.Reader) ([]types.MergedRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty csv")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, name := range Header {
		if head[i] != name {
			return nil, fmt.Errorf("unexpected csv column %d: got %q, want %q", i+1, head[i], name)
		}
	}

	out := make([]types.MergedRecord, 0)
	for {
		line, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		no, err := strconv.Atoi(line[0])
		if err != nil {
			return nil, fmt.Errorf("invalid No %q: %w", line[0], err)
		}
		rec := types.MergedRecord{No: no, Timestamp: line[1]}
		for i, dst := range []**float64{&rec.Nitrogen, &rec.PH, &rec.Potassium, &rec.Phosphorus} {
			v, err := parseValue(line[i+2])
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", no, Header[i+2], err)
			}
			*dst = v
		}
		out = append(out, rec)
	}
}

func formatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func parseValue(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
