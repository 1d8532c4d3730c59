package report

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/GaryBoone/GoStats/stats"
)

// DefaultHistogramBins is the number of bins used when Stats.Bins is unset.
const DefaultHistogramBins = 20

// Stat summarises a sample.
type Stat struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	Total  float64
}

// NewStat computes summary statistics. An empty sample yields the zero Stat.
func NewStat(data []float64) Stat {
	if len(data) == 0 {
		return Stat{}
	}
	return Stat{
		Count:  len(data),
		Min:    stats.StatsMin(data),
		Max:    stats.StatsMax(data),
		Mean:   stats.StatsMean(data),
		StdDev: stats.StatsPopulationStandardDeviation(data),
		Total:  stats.StatsSum(data),
	}
}

// Bin is one histogram bucket covering [Lower, Upper).
type Bin struct {
	Lower float64
	Upper float64
	Count int
}

// TrialStat holds the per-trial averages used for trend reporting.
type TrialStat struct {
	Index      int
	WinningBid Stat
	Payment    Stat
}

// Summary aggregates all trials seen by a Stats sink.
type Summary struct {
	Trials     int
	WinningBid Stat
	Payment    Stat
	Bids       Stat
	Histogram  []Bin
	PerTrial   []TrialStat
}

// Stats accumulates winning bids, payments and all bids across trials.
// It is safe for concurrent use.
type Stats struct {
	// Bins is the histogram resolution; DefaultHistogramBins when zero
	Bins int

	mu       sync.Mutex
	winning  []float64
	payments []float64
	bids     []float64
	perTrial []TrialStat
}

// Report records the trial.
func (s *Stats) Report(_ context.Context, trial *Trial) error {
	winning := trial.WinningBids()
	prices := trial.Prices()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.winning = append(s.winning, winning...)
	s.payments = append(s.payments, prices...)
	s.bids = append(s.bids, trial.AllBids()...)
	s.perTrial = append(s.perTrial, TrialStat{
		Index:      trial.Index,
		WinningBid: NewStat(winning),
		Payment:    NewStat(prices),
	})
	return nil
}

// Summary returns the aggregate over every trial reported so far.
func (s *Stats) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	bins := s.Bins
	if bins <= 0 {
		bins = DefaultHistogramBins
	}

	return Summary{
		Trials:     len(s.perTrial),
		WinningBid: NewStat(s.winning),
		Payment:    NewStat(s.payments),
		Bids:       NewStat(s.bids),
		Histogram:  Histogram(s.bids, bins),
		PerTrial:   append([]TrialStat(nil), s.perTrial...),
	}
}

// Histogram buckets data into n equal-width bins spanning [min, max].
// The maximum value falls in the last bin.
func Histogram(data []float64, n int) []Bin {
	if len(data) == 0 || n <= 0 {
		return nil
	}

	lo, hi := stats.StatsMin(data), stats.StatsMax(data)
	width := (hi - lo) / float64(n)
	if width == 0 {
		return []Bin{{Lower: lo, Upper: hi, Count: len(data)}}
	}

	bins := make([]Bin, n)
	for i := range bins {
		bins[i].Lower = lo + float64(i)*width
		bins[i].Upper = lo + float64(i+1)*width
	}
	bins[n-1].Upper = hi

	for _, d := range data {
		i := int((d - lo) / width)
		if i >= n {
			i = n - 1
		}
		bins[i].Count++
	}
	return bins
}

// WriteSummary prints the aggregate results.
func WriteSummary(w io.Writer, summary Summary) error {
	_, err := fmt.Fprintf(w,
		"===== Aggregate Results =====\n"+
			"Trials: %d\n"+
			"Overall Average Winning Bid: %.2f (± %.2f)\n"+
			"Overall Average Payment: %.2f (± %.2f)\n"+
			"Bids: %d, range %.2f - %.2f, mean %.2f\n",
		summary.Trials,
		summary.WinningBid.Mean, summary.WinningBid.StdDev,
		summary.Payment.Mean, summary.Payment.StdDev,
		summary.Bids.Count, summary.Bids.Min, summary.Bids.Max, summary.Bids.Mean,
	)
	return err
}

var _ Sink = (*Stats)(nil)
