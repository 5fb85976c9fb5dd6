// Package analysis contains the pure price-history statistics used for
// trend, volatility and trading-signal reporting.
// This is part of the Functional Core - no I/O, only pure functions.
package analysis

import "math"

// PricePoint is one observation in a price history series.
type PricePoint struct {
	Date      string `json:"date"`
	Price     int64  `json:"price"`
	Volume    int64  `json:"volume"`
	Timestamp int64  `json:"timestamp"`
}

// Trend is the direction of the weekly price movement.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// VolatilityCategory buckets the coefficient of variation.
type VolatilityCategory string

const (
	VolatilityLow      VolatilityCategory = "Low"
	VolatilityModerate VolatilityCategory = "Moderate"
	VolatilityHigh     VolatilityCategory = "High"
)

// Signal is a coarse trading suggestion derived from deviation and range position.
type Signal string

const (
	SignalBuyOpportunity  Signal = "buy-opportunity"
	SignalSellOpportunity Signal = "sell-opportunity"
	SignalConsiderBuying  Signal = "consider-buying"
	SignalConsiderSelling Signal = "consider-selling"
	SignalNormal          Signal = "normal"
)

// Position describes where the current price sits in the observed range.
type Position string

const (
	PositionAtHigh   Position = "at-high"
	PositionAtLow    Position = "at-low"
	PositionNearHigh Position = "near-high"
	PositionNearLow  Position = "near-low"
	PositionNormal   Position = "normal-range"
)

const (
	// weeklyWindow counts the current point, matching a 7-day daily series.
	weeklyWindow = 7

	trendThresholdPct = 2.0

	volatilityLowMax      = 3.0
	volatilityModerateMax = 8.0

	strongDeviationPct = 10.0
	mildDeviationPct   = 5.0
	lowRangePosition   = 30.0
	highRangePosition  = 70.0
)

// Analysis is the numeric summary of a price history series.
type Analysis struct {
	CurrentPrice         int64              `json:"currentPrice"`
	MinPrice             int64              `json:"minPrice"`
	MaxPrice             int64              `json:"maxPrice"`
	AvgPrice             int64              `json:"avgPrice"`
	WeeklyChange         int64              `json:"weeklyChange"`
	WeeklyChangePercent  float64            `json:"weeklyChangePercent"`
	DailyChange          int64              `json:"dailyChange"`
	DailyChangePercent   float64            `json:"dailyChangePercent"`
	OverallChange        int64              `json:"overallChange"`
	OverallChangePercent float64            `json:"overallChangePercent"`
	TrendDirection       Trend              `json:"trendDirection"`
	DataPoints           int                `json:"dataPoints"`
	PriceRange           int64              `json:"priceRange"`
	PriceRangePercent    float64            `json:"priceRangePercent"`
	StdDev               float64            `json:"stdDev"`
	Volatility           float64            `json:"volatility"`
	VolatilityCategory   VolatilityCategory `json:"volatilityCategory"`
	RangePosition        float64            `json:"rangePosition"`
	ZScore               float64            `json:"zScore"`
	PercentileRank       float64            `json:"percentileRank"`
	TradingSignal        Signal             `json:"tradingSignal"`
	PositionStatus       Position           `json:"positionStatus"`
}

// Analyze computes statistics over an oldest-first series.
// Returns nil for an empty series. Zero denominators yield 0 or a neutral
// default, never NaN or Inf.
func Analyze(series []PricePoint) *Analysis {
	n := len(series)
	if n == 0 {
		return nil
	}

	current := series[n-1].Price
	oldest := series[0].Price

	minPrice, maxPrice := current, current
	var sum float64
	for _, p := range series {
		if p.Price < minPrice {
			minPrice = p.Price
		}
		if p.Price > maxPrice {
			maxPrice = p.Price
		}
		sum += float64(p.Price)
	}
	avg := int64(math.Round(sum / float64(n)))

	weekAgo := series[clampIndex(n-weeklyWindow)].Price
	dayAgo := series[clampIndex(n-2)].Price

	a := &Analysis{
		CurrentPrice:         current,
		MinPrice:             minPrice,
		MaxPrice:             maxPrice,
		AvgPrice:             avg,
		WeeklyChange:         current - weekAgo,
		WeeklyChangePercent:  percentChange(weekAgo, current),
		DailyChange:          current - dayAgo,
		DailyChangePercent:   percentChange(dayAgo, current),
		OverallChange:        current - oldest,
		OverallChangePercent: percentChange(oldest, current),
		DataPoints:           n,
		PriceRange:           maxPrice - minPrice,
		PriceRangePercent:    ratioPercent(float64(maxPrice-minPrice), float64(minPrice)),
	}
	a.TrendDirection = trendFor(a.WeeklyChangePercent)

	var sq float64
	for _, p := range series {
		d := float64(p.Price - avg)
		sq += d * d
	}
	a.StdDev = math.Sqrt(sq / float64(n))
	a.Volatility = ratioPercent(a.StdDev, float64(avg))
	a.VolatilityCategory = volatilityFor(a.Volatility)

	a.RangePosition = 50
	if a.PriceRange > 0 {
		a.RangePosition = float64(current-minPrice) / float64(a.PriceRange) * 100
	}
	if a.StdDev > 0 {
		a.ZScore = float64(current-avg) / a.StdDev
	}
	a.PercentileRank = percentileRank(series, current)

	deviation := ratioPercent(float64(current-avg), float64(avg))
	a.TradingSignal = signalFor(deviation, a.RangePosition)
	a.PositionStatus = positionFor(a.RangePosition)

	return a
}

func clampIndex(idx int) int {
	if idx < 0 {
		return 0
	}
	return idx
}

func percentChange(from, to int64) float64 {
	if from <= 0 {
		return 0
	}
	return float64(to-from) / float64(from) * 100
}

func ratioPercent(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den * 100
}

func percentileRank(series []PricePoint, current int64) float64 {
	var less, equal int
	for _, p := range series {
		switch {
		case p.Price < current:
			less++
		case p.Price == current:
			equal++
		}
	}
	return (float64(less) + 0.5*float64(equal)) / float64(len(series)) * 100
}

func trendFor(weeklyPct float64) Trend {
	if math.Abs(weeklyPct) <= trendThresholdPct {
		return TrendStable
	}
	if weeklyPct > 0 {
		return TrendRising
	}
	return TrendFalling
}

func volatilityFor(v float64) VolatilityCategory {
	switch {
	case v > volatilityModerateMax:
		return VolatilityHigh
	case v > volatilityLowMax:
		return VolatilityModerate
	default:
		return VolatilityLow
	}
}

func signalFor(deviationPct, rangePosition float64) Signal {
	switch {
	case deviationPct < -strongDeviationPct && rangePosition < lowRangePosition:
		return SignalBuyOpportunity
	case deviationPct > strongDeviationPct && rangePosition > highRangePosition:
		return SignalSellOpportunity
	case deviationPct < -mildDeviationPct:
		return SignalConsiderBuying
	case deviationPct > mildDeviationPct:
		return SignalConsiderSelling
	default:
		return SignalNormal
	}
}

func positionFor(rangePosition float64) Position {
	switch {
	case rangePosition >= 90:
		return PositionAtHigh
	case rangePosition <= 10:
		return PositionAtLow
	case rangePosition >= highRangePosition:
		return PositionNearHigh
	case rangePosition <= lowRangePosition:
		return PositionNearLow
	default:
		return PositionNormal
	}
}
