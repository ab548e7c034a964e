package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/contracts"
)

// minIndicatorDays is the trading-day floor below which indicators are refused
const minIndicatorDays = 20

// indicatorLookbackDays is wide enough to guarantee minIndicatorDays trading
// days past weekends and holidays
const indicatorLookbackDays = 180

// IndicatorSet bundles every indicator evaluated at the latest trading day
type IndicatorSet struct {
	Ticker string `json:"ticker"`
	Date   string `json:"date"`

	MA5  *float64 `json:"ma5"`
	MA20 *float64 `json:"ma20"`
	MA60 *float64 `json:"ma60"`

	RSI14 *float64 `json:"rsi14"`

	MACD       *float64 `json:"macd"`
	MACDSignal *float64 `json:"macdSignal"`
	MACDHist   *float64 `json:"macdHist"`

	BollingerUpper  *float64 `json:"bollingerUpper"`
	BollingerMiddle *float64 `json:"bollingerMiddle"`
	BollingerLower  *float64 `json:"bollingerLower"`

	StochasticK *float64 `json:"stochasticK"`
	StochasticD *float64 `json:"stochasticD"`

	Volatility *float64 `json:"volatility"`
}

// TechnicalIndicators computes the indicator set for a ticker from its
// trailing OHLC history. Returns InsufficientData below the trading-day floor.
func (a *Analyzer) TechnicalIndicators(ctx context.Context, ticker string) (*IndicatorSet, error) {
	latest, _, err := a.resolvePriceDate(ctx, ticker, a.now())
	if err != nil {
		return nil, err
	}

	rows, err := a.provider.OHLCV(ctx, ticker, latest.AddDate(0, 0, -indicatorLookbackDays), latest)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch indicator window for %s: %v", contracts.ErrUpstream, ticker, err)
	}
	if len(rows) < minIndicatorDays {
		return nil, contracts.NewError(contracts.ErrInsufficientData,
			"need at least %d trading days for %s, have %d", minIndicatorDays, ticker, len(rows))
	}

	closes := make([]float64, len(rows))
	highs := make([]float64, len(rows))
	lows := make([]float64, len(rows))
	for i, r := range rows {
		closes[i] = float64(r.Close)
		highs[i] = float64(r.High)
		lows[i] = float64(r.Low)
	}

	set := &IndicatorSet{
		Ticker: ticker,
		Date:   latest.Format("20060102"),
		MA5:    fptr(round2(tailMean(closes, 5))),
		MA20:   fptr(round2(tailMean(closes, 20))),
		MA60:   fptr(round2(tailMean(closes, 60))),
		RSI14:  fptr(round2(rsi(closes, 14))),
	}

	if macd, signal, hist, ok := macdTriple(closes, 12, 26, 9); ok {
		set.MACD = fptr(round2(macd))
		set.MACDSignal = fptr(round2(signal))
		set.MACDHist = fptr(round2(hist))
	}

	mid := tailMean(closes, 20)
	sd := tailStdDev(closes, 20)
	set.BollingerMiddle = fptr(round2(mid))
	set.BollingerUpper = fptr(round2(mid + 2*sd))
	set.BollingerLower = fptr(round2(mid - 2*sd))

	if k, d, ok := stochastic(closes, highs, lows, 14, 3); ok {
		set.StochasticK = fptr(round2(k))
		set.StochasticD = fptr(round2(d))
	}

	set.Volatility = fptr(a.volatility(closes))

	return set, nil
}

// tailMean averages the last n values, degrading to all available points
func tailMean(v []float64, n int) float64 {
	if len(v) == 0 {
		return 0
	}
	if len(v) < n {
		n = len(v)
	}
	sum := 0.0
	for _, x := range v[len(v)-n:] {
		sum += x
	}
	return sum / float64(n)
}

// tailStdDev is the population standard deviation of the last n values
func tailStdDev(v []float64, n int) float64 {
	if len(v) < n {
		n = len(v)
	}
	if n == 0 {
		return 0
	}
	tail := v[len(v)-n:]
	mean := tailMean(tail, n)
	variance := 0.0
	for _, x := range tail {
		d := x - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(n))
}

// rsi is the rolling-mean flavor: simple averages of gains and losses over
// the last period deltas. No deltas or all-flat deltas read as neutral.
func rsi(closes []float64, period int) float64 {
	if len(closes) < 2 {
		return 50
	}
	deltas := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		deltas = append(deltas, closes[i]-closes[i-1])
	}
	if len(deltas) > period {
		deltas = deltas[len(deltas)-period:]
	}

	var gain, loss float64
	for _, d := range deltas {
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	avgGain := gain / float64(len(deltas))
	avgLoss := loss / float64(len(deltas))
	if avgLoss == 0 {
		if avgGain == 0 {
			// flat market, neither overbought nor oversold
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// ema is the unadjusted exponential moving average seeded from the first
// value, smoothing 2/(n+1)
func ema(v []float64, n int) []float64 {
	if len(v) == 0 {
		return nil
	}
	alpha := 2.0 / float64(n+1)
	out := make([]float64, len(v))
	out[0] = v[0]
	for i := 1; i < len(v); i++ {
		out[i] = alpha*v[i] + (1-alpha)*out[i-1]
	}
	return out
}

func macdTriple(closes []float64, fast, slow, signalN int) (macd, signal, hist float64, ok bool) {
	if len(closes) < slow {
		return 0, 0, 0, false
	}
	fastEMA := ema(closes, fast)
	slowEMA := ema(closes, slow)
	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	signalEMA := ema(line, signalN)

	last := len(closes) - 1
	macd = line[last]
	signal = signalEMA[last]
	return macd, signal, macd - signal, true
}

// stochastic returns the latest %K and its 3-period average %D. A flat
// high/low range reports 50 for that day.
func stochastic(closes, highs, lows []float64, kPeriod, dPeriod int) (k, d float64, ok bool) {
	if len(closes) < kPeriod {
		return 0, 0, false
	}

	kAt := func(i int) float64 {
		lo, hi := lows[i], highs[i]
		for j := i - kPeriod + 1; j <= i; j++ {
			if lows[j] < lo {
				lo = lows[j]
			}
			if highs[j] > hi {
				hi = highs[j]
			}
		}
		if hi == lo {
			return 50
		}
		return (closes[i] - lo) / (hi - lo) * 100
	}

	last := len(closes) - 1
	k = kAt(last)

	count := 0
	sum := 0.0
	for i := last; i >= kPeriod-1 && count < dPeriod; i-- {
		sum += kAt(i)
		count++
	}
	return k, sum / float64(count), true
}

// volatility is the 20-period coefficient of variation by default; the
// annualized daily-return flavor is behind INDICATOR_ANNUALIZE_VOL.
func (a *Analyzer) volatility(closes []float64) float64 {
	if a.cfg.AnnualizeVolatility {
		if len(closes) < 2 {
			return 0
		}
		rets := make([]float64, 0, len(closes)-1)
		for i := 1; i < len(closes); i++ {
			if closes[i-1] != 0 {
				rets = append(rets, closes[i]/closes[i-1]-1)
			}
		}
		sd := tailStdDev(rets, len(rets))
		return round2(sd * math.Sqrt(252) * 100)
	}

	mean := tailMean(closes, 20)
	if mean == 0 {
		return 0
	}
	return round4(tailStdDev(closes, 20) / mean)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
