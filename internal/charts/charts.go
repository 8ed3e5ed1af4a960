// Package charts renders a filtered case view as an interactive ECharts page.
package charts

import (
	"fmt"
	"io"
	"strings"

	echarts "github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"covidvax/internal/config"
	"covidvax/pkg/contracts/domain"
)

// Renderer draws the five count columns of a view over its dates
type Renderer struct {
	kind   string
	title  string
	height string
}

// NewRenderer creates a renderer whose default kind is kind (bar or line)
func NewRenderer(kind, title string) *Renderer {
	if kind == "" {
		kind = config.ChartBar
	}
	return &Renderer{kind: strings.ToLower(kind), title: title, height: "480px"}
}

// Kinds lists the supported chart kinds
func Kinds() []string {
	return []string{config.ChartBar, config.ChartLine}
}

// ChartRequest selects what to draw
type ChartRequest struct {
	Records []domain.CaseRecord
	State   string
	Kind    string
}

// Render writes a standalone HTML page holding the chart. An empty Kind
// falls back to the renderer default.
func (r *Renderer) Render(w io.Writer, req ChartRequest) error {
	kind := strings.ToLower(req.Kind)
	if kind == "" {
		kind = r.kind
	}

	dates := make([]string, len(req.Records))
	for i, rec := range req.Records {
		dates[i] = rec.Date.Format(domain.DateLayout)
	}

	global := []echarts.GlobalOpts{
		echarts.WithInitializationOpts(opts.Initialization{
			PageTitle: r.title,
			Width:     "100%",
			Height:    r.height,
		}),
		echarts.WithTitleOpts(opts.Title{
			Title:    r.title,
			Subtitle: req.State,
		}),
		echarts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		echarts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		echarts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	}

	switch kind {
	case config.ChartBar:
		bar := echarts.NewBar()
		bar.SetGlobalOptions(global...)
		bar.SetXAxis(dates)
		for _, col := range domain.NumericColumns() {
			bar.AddSeries(col.Label, barData(req.Records, col.Key))
		}
		return bar.Render(w)

	case config.ChartLine:
		line := echarts.NewLine()
		line.SetGlobalOptions(global...)
		line.SetXAxis(dates)
		for _, col := range domain.NumericColumns() {
			line.AddSeries(col.Label, lineData(req.Records, col.Key))
		}
		line.SetSeriesOptions(echarts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
		return line.Render(w)
	}

	return fmt.Errorf("unsupported chart kind %q", kind)
}

func barData(records []domain.CaseRecord, column string) []opts.BarData {
	items := make([]opts.BarData, len(records))
	for i, rec := range records {
		v, _ := rec.Value(column)
		items[i] = opts.BarData{Value: v}
	}
	return items
}

func lineData(records []domain.CaseRecord, column string) []opts.LineData {
	items := make([]opts.LineData, len(records))
	for i, rec := range records {
		v, _ := rec.Value(column)
		items[i] = opts.LineData{Value: v}
	}
	return items
}
