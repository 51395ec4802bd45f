package charts

import (
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/healthviz/patientdash/consts"
	"github.com/healthviz/patientdash/records"
)

// Marker is one patient location on the map.
type Marker struct {
	Label     string  `json:"label"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// MapWidget is the map overlay. It is built once and its markers are replaced on every update.
type MapWidget struct {
	markers []Marker
}

func newMapWidget() *MapWidget {
	return &MapWidget{}
}

// SetMarkers clears the stale markers and adds one per located record.
func (m *MapWidget) SetMarkers(rs records.RecordSet) {
	m.ClearMarkers()
	for _, r := range rs {
		if !r.HasLocation() {
			continue
		}
		m.markers = append(m.markers, Marker{
			Label:     markerLabel(r),
			Latitude:  *r.Latitude,
			Longitude: *r.Longitude,
		})
	}
}

func (m *MapWidget) ClearMarkers() {
	m.markers = nil
}

// Markers returns a copy of the current markers.
func (m *MapWidget) Markers() []Marker {
	return append([]Marker(nil), m.markers...)
}

func markerLabel(r records.Record) string {
	if r.City != "" {
		return r.City + ": " + r.Disease
	}
	return r.Disease
}

// Chart renders the markers as a scatter layer on the world map.
func (m *MapWidget) Chart() *charts.Geo {
	data := make([]opts.GeoData, len(m.markers))
	for i, mk := range m.markers {
		data[i] = opts.GeoData{Name: mk.Label, Value: []float64{mk.Longitude, mk.Latitude, 1}}
	}

	geo := charts.NewGeo()
	geo.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:           consts.MapWidth,
			Height:          consts.MapHeight,
			BackgroundColor: consts.ChartBackgroundColor,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:      "Patient Locations",
			TitleStyle: &opts.TextStyle{Color: consts.ChartTextColor},
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "item",
		}),
		charts.WithGeoComponentOpts(opts.GeoComponent{
			Map: consts.MapName,
		}),
	)

	geo.AddSeries("Patients", types.ChartScatter, data,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: consts.MarkerColor}),
	)
	return geo
}
