package charts

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/healthviz/patientdash/aggregate"
	"github.com/healthviz/patientdash/consts"
)

// ChartSpec is the truncated, ranked series handed to the bar chart.
type ChartSpec struct {
	Labels []string `json:"labels"`
	Counts []int    `json:"counts"`
}

// NewChartSpec keeps the first limit pairs and splits them into parallel sequences.
func NewChartSpec(pairs []aggregate.CategoryCount, limit int) ChartSpec {
	top := aggregate.Top(pairs, limit)
	spec := ChartSpec{
		Labels: make([]string, len(top)),
		Counts: make([]int, len(top)),
	}
	for i, p := range top {
		spec.Labels[i] = p.Label
		spec.Counts[i] = p.Count
	}
	return spec
}

func (s ChartSpec) Len() int {
	return len(s.Labels)
}

// BuildDiseaseChart draws the spec as a single bar series.
func BuildDiseaseChart(spec ChartSpec) *charts.Bar {
	data := make([]opts.BarData, spec.Len())
	for i, c := range spec.Counts {
		data[i] = opts.BarData{Value: c}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:           consts.ChartWidth,
			Height:          consts.ChartHeight,
			BackgroundColor: consts.ChartBackgroundColor,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:      fmt.Sprintf("Patient Diseases (Top %d)", spec.Len()),
			TitleStyle: &opts.TextStyle{Color: consts.ChartTextColor},
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:         "Disease",
			NameLocation: "center",
			NameGap:      120,
			AxisLabel: &opts.AxisLabel{
				Color:  consts.ChartTextColor,
				Rotate: consts.LabelRotate,
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:         "Count",
			NameLocation: "center",
			NameGap:      35,
			AxisLabel: &opts.AxisLabel{
				Color: consts.ChartTextColor,
			},
		}),
		charts.WithGridOpts(opts.Grid{
			Left:   consts.MarginLeft,
			Right:  consts.MarginRight,
			Bottom: consts.MarginBottom,
			Top:    consts.MarginTop,
		}),
	)

	bar.SetXAxis(spec.Labels).
		AddSeries("Patients", data, charts.WithItemStyleOpts(opts.ItemStyle{Color: consts.BarColor}))

	return bar
}

// Page lays out the bar chart and, when present, the map on one HTML page.
func Page(bar *charts.Bar, m *MapWidget) *components.Page {
	page := components.NewPage()
	page.PageTitle = "Patient Dashboard"
	page.AddCharts(bar)
	if m != nil {
		page.AddCharts(m.Chart())
	}
	return page
}

// ExportChartJSON writes the chart options for spec, and the map when present, to outputDir.
func ExportChartJSON(outputDir string, filter string, spec ChartSpec, total int, m *MapWidget) error {
	bar := BuildDiseaseChart(spec)
	bar.Validate()

	chartsData := []map[string]interface{}{
		{"id": "diseases", "options": bar.JSON()},
	}
	if m != nil {
		geo := m.Chart()
		geo.Validate()
		chartsData = append(chartsData, map[string]interface{}{"id": "map", "options": geo.JSON()})
	}

	output := map[string]interface{}{
		"filter":      filter,
		"total":       total,
		"lastUpdated": time.Now().UTC().Format(time.RFC3339),
		"charts":      chartsData,
	}

	jsonData, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, consts.DirPermissions); err != nil {
		return err
	}

	outputPath := filepath.Join(outputDir, consts.ChartJSONFile)
	if err := os.WriteFile(outputPath, jsonData, consts.FilePermissions); err != nil {
		return err
	}

	log.Printf("Exported chart to %s", outputPath)
	return nil
}
