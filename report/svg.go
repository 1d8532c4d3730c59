package report

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	svg "github.com/ajstarks/svgo"
)

const (
	chartWidth   = 640
	chartHeight  = 400
	chartMargin  = 50
	plotHeight   = chartHeight - 2*chartMargin
	barGap       = 4
	fontStyle    = `font-size:12px;font-family:Helvetica Neue`
	titleStyle   = `text-anchor:middle;font-size:16px;font-family:Helvetica Neue`
	winningStyle = `fill:#1f77b4`
	paymentStyle = `fill:#ff7f0e`
)

// SVG writes one "winning bid vs payment" bar chart per trial into Dir.
type SVG struct {
	Dir string
}

// Report writes trial-<index>.svg.
func (s *SVG) Report(_ context.Context, trial *Trial) error {
	path := filepath.Join(s.Dir, fmt.Sprintf("trial-%d.svg", trial.Index))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}

	WriteChart(f, trial)

	if err := f.Close(); err != nil {
		return fmt.Errorf("close chart: %w", err)
	}
	return nil
}

// WriteChart draws paired bars of winning bid and payment for every resource.
func WriteChart(w io.Writer, trial *Trial) {
	winning := trial.WinningBids()
	prices := trial.Prices()

	maxValue := 0.0
	for i := range winning {
		maxValue = math.Max(maxValue, math.Max(winning[i], prices[i]))
	}
	if maxValue == 0 {
		maxValue = 1
	}

	canvas := svg.New(w)
	canvas.Start(chartWidth, chartHeight)
	canvas.Rect(0, 0, chartWidth, chartHeight, "fill:#fff")
	canvas.Text(chartWidth/2, chartMargin/2, fmt.Sprintf("Winning Bids vs. Payments for Trial %d", trial.Index), titleStyle)

	baseline := chartHeight - chartMargin
	canvas.Line(chartMargin, baseline, chartWidth-chartMargin, baseline, "stroke:#333")
	canvas.Line(chartMargin, chartMargin, chartMargin, baseline, "stroke:#333")
	canvas.Text(chartMargin-barGap, chartMargin+4, fmt.Sprintf("%.1f", maxValue), "text-anchor:end;"+fontStyle)

	if n := len(winning); n > 0 {
		groupWidth := (chartWidth - 2*chartMargin) / n
		barWidth := max((groupWidth-3*barGap)/2, 1)

		for i, resource := range trial.Resources {
			x := chartMargin + i*groupWidth + barGap
			drawBar(canvas, x, baseline, barWidth, winning[i]/maxValue, winningStyle)
			drawBar(canvas, x+barWidth+barGap, baseline, barWidth, prices[i]/maxValue, paymentStyle)
			canvas.Text(x+barWidth, baseline+16, string(resource), "text-anchor:middle;"+fontStyle)
		}
	}

	legendX := chartWidth - chartMargin - 120
	canvas.Rect(legendX, chartMargin, 10, 10, winningStyle)
	canvas.Text(legendX+14, chartMargin+10, "Winning Bid", fontStyle)
	canvas.Rect(legendX, chartMargin+16, 10, 10, paymentStyle)
	canvas.Text(legendX+14, chartMargin+26, "Payment", fontStyle)

	canvas.End()
}

func drawBar(canvas *svg.SVG, x, baseline, width int, fraction float64, style string) {
	height := int(fraction * plotHeight)
	if height <= 0 {
		return
	}
	canvas.Rect(x, baseline-height, width, height, style)
}

var _ Sink = (*SVG)(nil)

const (
	binHeight    = 14
	binSpacing   = 2
	binTextX     = 110
	binBarX      = 115
	maxBinLength = chartWidth - binBarX - chartMargin
)

// WriteHistogram draws the bid histogram of a summary as horizontal bars, one row per bin,
// followed by the average winning bid and payment.
func WriteHistogram(w io.Writer, summary Summary) {
	height := chartMargin + len(summary.Histogram)*(binHeight+binSpacing) + chartMargin

	canvas := svg.New(w)
	canvas.Start(chartWidth, height)
	canvas.Rect(0, 0, chartWidth, height, "fill:#fff")
	canvas.Text(chartWidth/2, chartMargin/2, fmt.Sprintf("Histogram of All Bids Across %d Trials", summary.Trials), titleStyle)

	total := 0
	for _, bin := range summary.Histogram {
		total += bin.Count
	}

	y := chartMargin
	for _, bin := range summary.Histogram {
		canvas.Rect(binBarX, y, maxBinLength, binHeight, `fill:#eee`)
		canvas.Text(binTextX, y+binHeight-3, fmt.Sprintf("%.1f-%.1f", bin.Lower, bin.Upper), "text-anchor:end;"+fontStyle)
		if bin.Count > 0 && total > 0 {
			fraction := float64(bin.Count) / float64(total)
			canvas.Rect(binBarX, y, int(fraction*float64(maxBinLength)), binHeight, winningStyle)
			canvas.Text(binBarX+binSpacing, y+binHeight-3, fmt.Sprintf("%d", bin.Count), "text-anchor:start;fill:#fff;"+fontStyle)
		}
		y += binHeight + binSpacing
	}

	canvas.Text(binBarX, y+chartMargin/2, fmt.Sprintf("Avg Winning Bid: %.2f | Avg Payment: %.2f",
		summary.WinningBid.Mean, summary.Payment.Mean), "text-anchor:start;"+fontStyle)

	canvas.End()
}

const (
	errorBarCap = 4
	pointRadius = 3
)

// WriteTrend draws the per-trial average winning bid and payment, each with a one standard
// deviation error bar.
func WriteTrend(w io.Writer, summary Summary) {
	maxValue := 0.0
	for _, trial := range summary.PerTrial {
		maxValue = math.Max(maxValue, trial.WinningBid.Mean+trial.WinningBid.StdDev)
		maxValue = math.Max(maxValue, trial.Payment.Mean+trial.Payment.StdDev)
	}
	if maxValue == 0 {
		maxValue = 1
	}

	canvas := svg.New(w)
	canvas.Start(chartWidth, chartHeight)
	canvas.Rect(0, 0, chartWidth, chartHeight, "fill:#fff")
	canvas.Text(chartWidth/2, chartMargin/2, "Trend of Average Winning Bids and Payments", titleStyle)

	baseline := chartHeight - chartMargin
	canvas.Line(chartMargin, baseline, chartWidth-chartMargin, baseline, "stroke:#333")
	canvas.Line(chartMargin, chartMargin, chartMargin, baseline, "stroke:#333")
	canvas.Text(chartMargin-barGap, chartMargin+4, fmt.Sprintf("%.1f", maxValue), "text-anchor:end;"+fontStyle)
	canvas.Text(chartWidth/2, baseline+30, "Trial", "text-anchor:middle;"+fontStyle)

	y := func(v float64) int {
		return baseline - int(v/maxValue*plotHeight)
	}

	if n := len(summary.PerTrial); n > 0 {
		step := float64(chartWidth-2*chartMargin) / float64(n)
		for i, trial := range summary.PerTrial {
			x := chartMargin + int((float64(i)+0.5)*step)
			drawErrorBar(canvas, x-barGap, y, trial.WinningBid, "stroke:#1f77b4", winningStyle)
			drawErrorBar(canvas, x+barGap, y, trial.Payment, "stroke:#ff7f0e", paymentStyle)
		}
	}

	legendX := chartWidth - chartMargin - 160
	canvas.Rect(legendX, chartMargin, 10, 10, winningStyle)
	canvas.Text(legendX+14, chartMargin+10, "Average Winning Bid", fontStyle)
	canvas.Rect(legendX, chartMargin+16, 10, 10, paymentStyle)
	canvas.Text(legendX+14, chartMargin+26, "Average Payment", fontStyle)

	canvas.End()
}

func drawErrorBar(canvas *svg.SVG, x int, y func(float64) int, stat Stat, lineStyle, pointStyle string) {
	top, bottom := y(stat.Mean+stat.StdDev), y(math.Max(stat.Mean-stat.StdDev, 0))
	canvas.Line(x, top, x, bottom, lineStyle)
	canvas.Line(x-errorBarCap, top, x+errorBarCap, top, lineStyle)
	canvas.Line(x-errorBarCap, bottom, x+errorBarCap, bottom, lineStyle)
	canvas.Circle(x, y(stat.Mean), pointRadius, pointStyle)
}
