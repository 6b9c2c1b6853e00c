package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// RollingVolatility computes a rolling annualized volatility series from
// daily returns using a fixed window. The first window-1 entries are the
// talib warmup period and are returned as zeros.
func RollingVolatility(dailyReturns []float64, window int) []float64 {
	if len(dailyReturns) < window || window < 2 {
		return []float64{}
	}

	rolling := talib.StdDev(dailyReturns, window, 1.0)
	annualized := make([]float64, len(rolling))
	for i, v := range rolling {
		annualized[i] = v * math.Sqrt(TradingDaysPerYear)
	}
	return annualized
}

// SmoothedCloses applies a simple moving average to a close series.
// Used to de-noise price charts before display.
func SmoothedCloses(closes []float64, window int) []float64 {
	if len(closes) < window || window < 2 {
		return []float64{}
	}
	return talib.Sma(closes, window)
}
