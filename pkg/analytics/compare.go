package analytics

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Row is one line of a comparison between two drivers. Delta is
// Driver1 minus Driver2; for lap times a negative delta means driver 1 was
// faster.
type Row struct {
	Metric  string `json:"metric"`
	Driver1 string `json:"driver1"`
	Driver2 string `json:"driver2"`
	Delta   string `json:"delta"`
}

// Comparison rows, in display order.
const (
	MetricPosition      = "Final Position"
	MetricPoints        = "Points"
	MetricBestLap       = "Best Lap Time"
	MetricAvgSpeed      = "Average Speed (kph)"
	MetricMaxSpeed      = "Max Speed (kph)"
	MetricPitStops      = "Pit Stops"
	MetricLapsCompleted = "Laps Completed"
)

// quantity is a metric value that may be unknown.
type quantity struct {
	value decimal.Decimal
	text  string
	known bool
}

func knownNumber(v float64) quantity {
	d := decimal.NewFromFloat(v)
	return quantity{value: d, text: d.String(), known: true}
}

func position(p int) quantity {
	if p <= 0 {
		return quantity{text: Unknown}
	}
	return quantity{value: decimal.NewFromInt(int64(p)), text: strconv.Itoa(p), known: true}
}

func lapTime(s string) quantity {
	secs := LapTimeToSeconds(s)
	if secs <= 0 {
		return quantity{text: Unknown}
	}
	return quantity{value: decimal.NewFromFloat(secs), text: s, known: true}
}

// Compare lines up two summaries metric by metric.
func Compare(a, b Summary) []Row {
	return []Row{
		row(MetricPosition, position(a.Position), position(b.Position), 2),
		row(MetricPoints, knownNumber(a.Points), knownNumber(b.Points), 2),
		row(MetricBestLap, lapTime(a.BestLap), lapTime(b.BestLap), 3),
		row(MetricAvgSpeed, knownNumber(a.AvgSpeed), knownNumber(b.AvgSpeed), 2),
		row(MetricMaxSpeed, knownNumber(a.MaxSpeed), knownNumber(b.MaxSpeed), 2),
		row(MetricPitStops, knownNumber(float64(a.PitStops)), knownNumber(float64(b.PitStops)), 2),
		row(MetricLapsCompleted, knownNumber(float64(a.LapsCompleted)), knownNumber(float64(b.LapsCompleted)), 2),
	}
}

func row(metric string, a, b quantity, places int32) Row {
	r := Row{Metric: metric, Driver1: a.text, Driver2: b.text, Delta: Unknown}
	if a.known && b.known {
		r.Delta = FormatDelta(a.value.Sub(b.value), places)
	}
	return r
}

// FormatDelta rounds d to the given decimal places and prefixes positive
// values with "+". A delta that rounds to zero has no sign.
func FormatDelta(d decimal.Decimal, places int32) string {
	d = d.Round(places)
	if d.IsZero() {
		return decimal.Zero.StringFixed(places)
	}
	if d.IsPositive() {
		return "+" + d.StringFixed(places)
	}
	return d.StringFixed(places)
}
