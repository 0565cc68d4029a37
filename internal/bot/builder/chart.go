// Package builder renders Discord-facing artifacts from database rows.
package builder

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/albiongw/goodwill/internal/database/models"
)

// Chart dimensions and styling constants.
const (
	titleFontSize   = 12.0
	xAxisFontSize   = 10.0
	yAxisFontSize   = 12.0
	xAxisRotation   = 45.0
	gridLineWidth   = 1.0
	seriesLineWidth = 3.0
	seriesDotWidth  = 4.0
	paddingTop      = 30
	paddingBottom   = 30
	paddingLeft     = 20
	paddingRight    = 20
)

// ChartBuilder renders a guild's daily active voice minutes as a line chart.
type ChartBuilder struct {
	totals []models.DayTotal
	days   int
}

// NewChartBuilder creates a chart builder over per-day voice totals.
func NewChartBuilder(totals []models.DayTotal, days int) *ChartBuilder {
	return &ChartBuilder{
		totals: totals,
		days:   days,
	}
}

// Build renders the chart to a PNG buffer. Days with no recorded activity
// plot as zero.
func (b *ChartBuilder) Build() (*bytes.Buffer, error) {
	xValues, series := b.prepareDataSeries()
	gridLines, ticks := b.prepareGridLinesAndTicks()

	graph := &chart.Chart{
		Title: "Daily voice activity (minutes)",
		TitleStyle: chart.Style{
			FontSize: titleFontSize,
		},
		Background: chart.Style{
			Padding: chart.Box{
				Top:    paddingTop,
				Left:   paddingLeft,
				Right:  paddingRight,
				Bottom: paddingBottom,
			},
		},
		XAxis: chart.XAxis{
			Style: chart.Style{
				FontSize:            xAxisFontSize,
				TextRotationDegrees: xAxisRotation,
			},
			GridMajorStyle: chart.Style{
				StrokeColor: chart.ColorAlternateGray,
				StrokeWidth: gridLineWidth,
			},
			GridLines:    gridLines,
			Ticks:        ticks,
			TickPosition: chart.TickPositionUnderTick,
		},
		YAxis: chart.YAxis{
			Style: chart.Style{
				FontSize: yAxisFontSize,
			},
			GridMajorStyle: chart.Style{
				StrokeColor: chart.ColorAlternateGray,
				StrokeWidth: gridLineWidth,
			},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Active voice",
				XValues: xValues,
				YValues: series,
				Style: chart.Style{
					StrokeColor: chart.ColorBlue,
					StrokeWidth: seriesLineWidth,
					DotColor:    chart.ColorBlue,
					DotWidth:    seriesDotWidth,
				},
			},
		},
	}

	buf := new(bytes.Buffer)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, err
	}

	return buf, nil
}

// prepareDataSeries fills one data point per day, oldest first, using 0 for
// days with no rows.
func (b *ChartBuilder) prepareDataSeries() ([]float64, []float64) {
	xValues := make([]float64, b.days)
	series := make([]float64, b.days)

	totalsByDay := make(map[time.Time]int64, len(b.totals))
	for _, total := range b.totals {
		totalsByDay[total.Date.UTC().Truncate(24*time.Hour)] = total.VoiceSeconds
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	for i := range b.days {
		xValues[i] = float64(i)
		day := today.AddDate(0, 0, -(b.days - 1 - i))
		series[i] = float64(totalsByDay[day]) / 60
	}

	return xValues, series
}

// prepareGridLinesAndTicks labels each day as month/day.
func (b *ChartBuilder) prepareGridLinesAndTicks() ([]chart.GridLine, []chart.Tick) {
	gridLines := make([]chart.GridLine, b.days)
	ticks := make([]chart.Tick, b.days)

	today := time.Now().UTC()
	for i := range b.days {
		gridLines[i] = chart.GridLine{Value: float64(i)}

		day := today.AddDate(0, 0, -(b.days - 1 - i))
		ticks[i] = chart.Tick{
			Value: float64(i),
			Label: day.Format("01/02"),
		}
	}

	return gridLines, ticks
}
