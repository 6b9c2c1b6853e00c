// Package loader ingests historical return data and hands the engine
// clean, validated numeric matrices.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/aristath/frontier/internal/domain"
)

// LoadReturnSeries parses a returns CSV into a ReturnSeries.
//
// Expected layout: a header row whose first cell is the date column,
// followed by one column per asset; each subsequent row is one period of
// fractional returns, ordered by date. Gaps, blanks, and non-finite values
// are rejected rather than filled.
func LoadReturnSeries(r io.Reader) (domain.ReturnSeries, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return domain.ReturnSeries{}, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) < 3 {
		return domain.ReturnSeries{}, fmt.Errorf("need at least 2 asset columns, got %d", len(header)-1)
	}

	assets := make([]string, 0, len(header)-1)
	seen := make(map[string]bool)
	for _, name := range header[1:] {
		name = strings.TrimSpace(name)
		if name == "" {
			return domain.ReturnSeries{}, fmt.Errorf("empty asset name in header")
		}
		if seen[name] {
			return domain.ReturnSeries{}, fmt.Errorf("duplicate asset column %q", name)
		}
		seen[name] = true
		assets = append(assets, name)
	}

	columns := make([][]float64, len(assets))
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.ReturnSeries{}, fmt.Errorf("failed to read row %d: %w", row+2, err)
		}
		if len(record) != len(assets)+1 {
			return domain.ReturnSeries{}, fmt.Errorf("row %d has %d cells, expected %d", row+2, len(record), len(assets)+1)
		}

		for i, cell := range record[1:] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				return domain.ReturnSeries{}, fmt.Errorf("missing return for asset %s at row %d", assets[i], row+2)
			}
			value, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return domain.ReturnSeries{}, fmt.Errorf("invalid return for asset %s at row %d: %w", assets[i], row+2, err)
			}
			if math.IsNaN(value) || math.IsInf(value, 0) {
				return domain.ReturnSeries{}, fmt.Errorf("non-finite return for asset %s at row %d", assets[i], row+2)
			}
			columns[i] = append(columns[i], value)
		}
		row++
	}

	if row == 0 {
		return domain.ReturnSeries{}, fmt.Errorf("no return rows found")
	}

	return domain.ReturnSeries{Assets: assets, Returns: columns}, nil
}
