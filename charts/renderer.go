package charts

import (
	"sync"

	"github.com/healthviz/patientdash/aggregate"
	"github.com/healthviz/patientdash/records"
)

// MapState is the lifecycle state of the map overlay.
type MapState int

const (
	MapUninitialized MapState = iota
	MapActive
)

func (s MapState) String() string {
	if s == MapActive {
		return "active"
	}
	return "uninitialized"
}

// Renderer turns ranked counts into charts. It owns the map widget, which is
// built lazily on the first update when the dashboard has a map container.
type Renderer struct {
	mapContainer bool

	mu        sync.Mutex
	mapWidget *MapWidget
}

func NewRenderer(mapContainer bool) *Renderer {
	return &Renderer{mapContainer: mapContainer}
}

// Draw truncates pairs to limit, replacing whatever spec was displayed before.
func (r *Renderer) Draw(pairs []aggregate.CategoryCount, limit int) ChartSpec {
	return NewChartSpec(pairs, limit)
}

// UpdateMap constructs the map on first use and replaces its markers afterwards.
func (r *Renderer) UpdateMap(rs records.RecordSet) MapState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mapWidget == nil {
		if !r.mapContainer {
			return MapUninitialized
		}
		r.mapWidget = newMapWidget()
	}
	r.mapWidget.SetMarkers(rs)
	return MapActive
}

// Map returns a snapshot of the widget, or nil while uninitialized.
func (r *Renderer) Map() *MapWidget {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mapWidget == nil {
		return nil
	}
	return &MapWidget{markers: r.mapWidget.Markers()}
}

func (r *Renderer) MapState() MapState {
	if r.Map() == nil {
		return MapUninitialized
	}
	return MapActive
}
