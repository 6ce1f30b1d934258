// Package export serializes pipeline artifacts: delimited text for the
// tabular matrices, GEXF for the graph and JSON for communities and
// render payloads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Jakob-KB/financial-market-correlation-topology/internal/contracts"
)

// timestampLayout is the row-index format for tabular exports.
const timestampLayout = "2006-01-02"

// WriteReturnsCSV writes the aligned returns matrix: a timestamp column
// followed by one column per asset.
func WriteReturnsCSV(w io.Writer, matrix *contracts.ReturnsMatrix) error {
	cw := csv.NewWriter(w)

	header := append([]string{"Date"}, matrix.Symbols...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write returns header: %w", err)
	}

	for i, ts := range matrix.Timestamps {
		row := make([]string, 0, len(header))
		row = append(row, ts.Format(timestampLayout))
		for _, symbol := range matrix.Symbols {
			row = append(row, formatFloat(matrix.Columns[symbol][i]))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write returns row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadReturnsCSV reads a returns matrix written by WriteReturnsCSV.
func ReadReturnsCSV(r io.Reader) (*contracts.ReturnsMatrix, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read returns csv: %w", err)
	}
	if len(records) < 2 || len(records[0]) < 2 {
		return nil, fmt.Errorf("returns csv has no data rows")
	}

	symbols := records[0][1:]
	matrix := &contracts.ReturnsMatrix{
		Symbols: append([]string(nil), symbols...),
		Columns: make(map[string][]float64, len(symbols)),
	}

	for _, record := range records[1:] {
		if len(record) != len(records[0]) {
			return nil, fmt.Errorf("returns csv row has %d fields, want %d", len(record), len(records[0]))
		}
		ts, err := time.Parse(timestampLayout, record[0])
		if err != nil {
			return nil, fmt.Errorf("parse returns timestamp %q: %w", record[0], err)
		}
		matrix.Timestamps = append(matrix.Timestamps, ts)
		for j, symbol := range symbols {
			v, err := strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("parse return value %q: %w", record[j+1], err)
			}
			matrix.Columns[symbol] = append(matrix.Columns[symbol], v)
		}
	}
	return matrix, nil
}

// WriteCorrelationCSV writes the correlation matrix with asset labels on
// both axes.
func WriteCorrelationCSV(w io.Writer, matrix *contracts.CorrelationMatrix) error {
	cw := csv.NewWriter(w)

	header := append([]string{""}, matrix.Symbols...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write correlation header: %w", err)
	}

	for i, symbol := range matrix.Symbols {
		row := make([]string, 0, len(header))
		row = append(row, symbol)
		for j := range matrix.Symbols {
			row = append(row, formatFloat(matrix.Values[i][j]))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write correlation row %s: %w", symbol, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCorrelationCSV reads a matrix written by WriteCorrelationCSV.
func ReadCorrelationCSV(r io.Reader) (*contracts.CorrelationMatrix, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read correlation csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("correlation csv has no data rows")
	}

	symbols := records[0][1:]
	matrix := &contracts.CorrelationMatrix{
		Symbols: append([]string(nil), symbols...),
		Values:  make([][]float64, len(symbols)),
	}
	if len(records)-1 != len(symbols) {
		return nil, fmt.Errorf("correlation csv is not square: %d rows for %d symbols",
			len(records)-1, len(symbols))
	}

	for i, record := range records[1:] {
		if len(record) != len(symbols)+1 {
			return nil, fmt.Errorf("correlation csv row %d has %d fields, want %d",
				i, len(record), len(symbols)+1)
		}
		matrix.Values[i] = make([]float64, len(symbols))
		for j := range symbols {
			v, err := strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("parse correlation value %q: %w", record[j+1], err)
			}
			matrix.Values[i][j] = v
		}
	}
	return matrix, nil
}

// WriteFile writes an artifact to path via the given writer func,
// creating parent directories as needed.
func WriteFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := write(f); err != nil {
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
