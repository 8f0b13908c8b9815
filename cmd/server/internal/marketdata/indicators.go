package marketdata

// minHistory is the fewest closes the calculator accepts; below it no
// indicator values are produced at all (not-enough-history, not an error).
const minHistory = 50

const (
	smaShortPeriod = 20
	smaLongPeriod  = 50
	rsiPeriod      = 14
)

// Indicators holds the most recent value of each computed indicator. Nil
// fields mean there was not enough history yet.
type Indicators struct {
	MA20  *float64
	MA50  *float64
	RSI14 *float64
}

// Compute derives SMA(20), SMA(50) and RSI(14) from an ascending-by-time
// close series.
func Compute(closes []float64) Indicators {
	if len(closes) < minHistory {
		return Indicators{}
	}

	ma20 := sma(closes, smaShortPeriod)
	ma50 := sma(closes, smaLongPeriod)
	rsi14 := rsi(closes, rsiPeriod)

	return Indicators{MA20: &ma20, MA50: &ma50, RSI14: &rsi14}
}

// sma averages the trailing period values.
func sma(closes []float64, period int) float64 {
	window := closes[len(closes)-period:]
	var sum float64
	for _, v := range window {
		sum += v
	}
	return sum / float64(period)
}

// rsi uses Wilder's smoothed average of gains and losses. When the average
// loss is zero RSI is defined as 100, never infinite or NaN.
func rsi(closes []float64, period int) float64 {
	var avgGain, avgLoss float64

	// Seed with the simple average over the first period of changes
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Smooth the remainder of the series
	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		var gain, loss float64
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
