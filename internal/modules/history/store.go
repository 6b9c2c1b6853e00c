// Package history is the SQLite-backed store of daily closing prices and
// the bridge from raw prices to the engine's aligned return matrix.
package history

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/database"
	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/pkg/formulas"
)

// DefaultLookbackDays is one year of trading days.
const DefaultLookbackDays = 252

// DailyClose is one observed closing price.
type DailyClose struct {
	Date  string  `json:"date"` // ISO 8601 (YYYY-MM-DD)
	Close float64 `json:"close"`
}

// VolatilityPoint is one entry of a rolling volatility series.
type VolatilityPoint struct {
	Date       string  `json:"date"`
	Volatility float64 `json:"volatility"` // annualized
}

// Store provides price history access.
type Store struct {
	db  *database.DB
	log zerolog.Logger
}

// NewStore creates a history store.
func NewStore(db *database.DB, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With().Str("component", "history").Logger(),
	}
}

// SaveCloses upserts a batch of daily closes for one symbol.
func (s *Store) SaveCloses(symbol string, closes []DailyClose) error {
	if len(closes) == 0 {
		return nil
	}

	err := database.WithTransaction(s.db.Conn(), func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(
			`INSERT INTO daily_prices (symbol, date, close) VALUES (?, ?, ?)
			 ON CONFLICT(symbol, date) DO UPDATE SET close = excluded.close`,
		)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, c := range closes {
			if c.Close <= 0 {
				return fmt.Errorf("non-positive close %f for %s on %s", c.Close, symbol, c.Date)
			}
			if _, err := stmt.Exec(symbol, c.Date, c.Close); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save closes for %s: %w", symbol, err)
	}

	s.log.Debug().Str("symbol", symbol).Int("rows", len(closes)).Msg("Saved daily closes")
	return nil
}

// Symbols lists every symbol with stored history.
func (s *Store) Symbols() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT symbol FROM daily_prices ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, err
		}
		symbols = append(symbols, symbol)
	}
	return symbols, rows.Err()
}

// Closes returns the close series for one symbol, oldest first, limited
// to the most recent days observations when days > 0.
func (s *Store) Closes(symbol string, days int) ([]DailyClose, error) {
	query := `SELECT date, close FROM daily_prices WHERE symbol = ? ORDER BY date DESC`
	args := []interface{}{symbol}
	if days > 0 {
		query += ` LIMIT ?`
		args = append(args, days)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query closes for %s: %w", symbol, err)
	}
	defer rows.Close()

	var closes []DailyClose
	for rows.Next() {
		var c DailyClose
		if err := rows.Scan(&c.Date, &c.Close); err != nil {
			return nil, err
		}
		closes = append(closes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query is newest-first for the LIMIT; flip back to chronological.
	for i, j := 0, len(closes)-1; i < j; i, j = i+1, j-1 {
		closes[i], closes[j] = closes[j], closes[i]
	}
	return closes, nil
}

// LoadReturnSeries builds an aligned daily return matrix for the given
// symbols over their common date range. Dates missing for any symbol are
// dropped so the columns stay aligned.
func (s *Store) LoadReturnSeries(symbols []string, lookbackDays int) (domain.ReturnSeries, error) {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	if len(symbols) < 2 {
		return domain.ReturnSeries{}, fmt.Errorf("need at least 2 symbols, got %d", len(symbols))
	}

	closesBySymbol := make(map[string]map[string]float64, len(symbols))
	var commonDates map[string]bool

	for _, symbol := range symbols {
		// Fetch one extra day: T+1 closes produce T returns.
		closes, err := s.Closes(symbol, lookbackDays+1)
		if err != nil {
			return domain.ReturnSeries{}, err
		}
		if len(closes) < 3 {
			return domain.ReturnSeries{}, fmt.Errorf("insufficient price history for %s: %d days", symbol, len(closes))
		}

		byDate := make(map[string]float64, len(closes))
		dates := make(map[string]bool, len(closes))
		for _, c := range closes {
			byDate[c.Date] = c.Close
			dates[c.Date] = true
		}
		closesBySymbol[symbol] = byDate

		if commonDates == nil {
			commonDates = dates
		} else {
			for date := range commonDates {
				if !dates[date] {
					delete(commonDates, date)
				}
			}
		}
	}

	ordered := sortedDates(commonDates)
	if len(ordered) < 3 {
		return domain.ReturnSeries{}, fmt.Errorf("only %d common trading days across %d symbols", len(ordered), len(symbols))
	}

	columns := make([][]float64, len(symbols))
	for i, symbol := range symbols {
		prices := make([]float64, len(ordered))
		for j, date := range ordered {
			prices[j] = closesBySymbol[symbol][date]
		}
		columns[i] = formulas.CalculateReturns(prices)
	}

	assets := make([]string, len(symbols))
	copy(assets, symbols)

	s.log.Debug().
		Int("num_symbols", len(symbols)).
		Int("num_periods", len(ordered)-1).
		Msg("Loaded aligned return series")

	return domain.ReturnSeries{Assets: assets, Returns: columns}, nil
}

// RollingVolatility computes the annualized rolling volatility series for
// one symbol, for charting.
func (s *Store) RollingVolatility(symbol string, window, lookbackDays int) ([]VolatilityPoint, error) {
	if window < 2 {
		return nil, fmt.Errorf("window must be at least 2, got %d", window)
	}

	closes, err := s.Closes(symbol, lookbackDays+1)
	if err != nil {
		return nil, err
	}
	if len(closes) < window+1 {
		return nil, fmt.Errorf("insufficient history for %s: %d days, need %d", symbol, len(closes), window+1)
	}

	prices := make([]float64, len(closes))
	for i, c := range closes {
		prices[i] = c.Close
	}
	returns := formulas.CalculateReturns(prices)
	rolling := formulas.RollingVolatility(returns, window)

	// Skip the talib warmup zeros at the start of the series.
	points := make([]VolatilityPoint, 0, len(rolling)-(window-1))
	for i := window - 1; i < len(rolling); i++ {
		points = append(points, VolatilityPoint{
			Date:       closes[i+1].Date, // returns[i] covers closes[i] -> closes[i+1]
			Volatility: rolling[i],
		})
	}
	return points, nil
}

func sortedDates(set map[string]bool) []string {
	dates := make([]string, 0, len(set))
	for date := range set {
		dates = append(dates, date)
	}
	// ISO dates sort lexicographically.
	sort.Strings(dates)
	return dates
}
