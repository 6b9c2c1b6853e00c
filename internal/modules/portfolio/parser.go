// Package portfolio parses user-uploaded holdings and normalizes them to
// a weight vector aligned with the engine's asset order.
package portfolio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// MinMatchingAssets is the smallest universe a portfolio audit makes
// sense for. Below this the covariance matrix is meaningless.
const MinMatchingAssets = 2

// Holding is one parsed row of a user upload: ticker plus normalized
// fractional weight.
type Holding struct {
	Ticker string  `json:"ticker"`
	Weight float64 `json:"weight"`
}

var tickerHeaderKeys = []string{"ticker", "symbol", "stock", "asset"}
var weightHeaderKeys = []string{"weight", "percent", "%", "value", "amount"}

// ParseHoldings reads a holdings CSV with fuzzy header matching: any
// column containing ticker/symbol/stock/asset is the identifier, any
// containing weight/percent/%/value/amount is the weight. Weights summing
// above 1.5 are treated as percentages and divided by 100; zero-weight
// rows are dropped and the remainder is normalized to sum to 1.
func ParseHoldings(r io.Reader) ([]Holding, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("file format error: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("file has no holdings rows")
	}

	tickerCol, weightCol := -1, -1
	for i, cell := range records[0] {
		header := strings.ToLower(strings.TrimSpace(cell))
		if tickerCol < 0 && matchesAny(header, tickerHeaderKeys) {
			tickerCol = i
		}
		if weightCol < 0 && matchesAny(header, weightHeaderKeys) {
			weightCol = i
		}
	}
	if tickerCol < 0 || weightCol < 0 {
		return nil, fmt.Errorf("could not find ticker or weight columns, check the file headers")
	}

	holdings := make([]Holding, 0, len(records)-1)
	total := 0.0
	for _, record := range records[1:] {
		if tickerCol >= len(record) || weightCol >= len(record) {
			continue
		}
		ticker := strings.ToUpper(strings.TrimSpace(record[tickerCol]))
		if ticker == "" {
			continue
		}
		// Unparseable weights are coerced to zero and dropped below,
		// matching the forgiving behaviour users expect from uploads.
		weight, err := strconv.ParseFloat(strings.TrimSpace(record[weightCol]), 64)
		if err != nil || weight < 0 {
			weight = 0
		}
		holdings = append(holdings, Holding{Ticker: ticker, Weight: weight})
		total += weight
	}

	if total <= 0 {
		return nil, fmt.Errorf("holdings have no positive weights")
	}

	// Weights like "20" next to "0.20" mean the user entered percentages.
	if total > 1.5 {
		for i := range holdings {
			holdings[i].Weight /= 100.0
		}
		total /= 100.0
	}

	normalized := holdings[:0]
	for _, h := range holdings {
		if h.Weight <= 0 {
			continue
		}
		h.Weight /= total
		normalized = append(normalized, h)
	}
	if len(normalized) == 0 {
		return nil, fmt.Errorf("holdings have no positive weights")
	}

	return normalized, nil
}

// AlignWeights maps holdings onto the engine's asset order. Assets the
// user does not hold get weight 0; tickers absent from the universe are
// returned separately so the caller can report them. The matched weights
// are re-normalized to sum to 1.
func AlignWeights(holdings []Holding, assets []string) ([]float64, []string, error) {
	index := make(map[string]int, len(assets))
	for i, asset := range assets {
		index[strings.ToUpper(asset)] = i
	}

	weights := make([]float64, len(assets))
	var missing []string
	matched := 0
	total := 0.0

	for _, h := range holdings {
		i, ok := index[h.Ticker]
		if !ok {
			missing = append(missing, h.Ticker)
			continue
		}
		if weights[i] == 0 && h.Weight > 0 {
			matched++
		}
		weights[i] += h.Weight
		total += h.Weight
	}

	if matched < MinMatchingAssets {
		return nil, missing, fmt.Errorf(
			"not enough matching assets: %d of %d holdings found in the universe, need at least %d",
			matched, len(holdings), MinMatchingAssets,
		)
	}

	for i := range weights {
		weights[i] /= total
	}

	return weights, missing, nil
}

func matchesAny(header string, keys []string) bool {
	for _, key := range keys {
		if strings.Contains(header, key) {
			return true
		}
	}
	return false
}
