// Package dashboard owns the state of one patient dashboard: the last fetched
// records, the active filter and limit, and the chart currently on display.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	echarts "github.com/go-echarts/go-echarts/v2/charts"
	"github.com/healthviz/patientdash/aggregate"
	"github.com/healthviz/patientdash/charts"
	"github.com/healthviz/patientdash/consts"
	"github.com/healthviz/patientdash/records"
)

var ErrInvalidLimit = errors.New("limit must be at least 1")

// Source fetches the records for a gender filter.
type Source interface {
	Fetch(ctx context.Context, gender records.Gender) (records.RecordSet, error)
}

// Notifier surfaces fetch failures to the user.
type Notifier interface {
	Notify(err error)
}

type NotifierFunc func(err error)

func (f NotifierFunc) Notify(err error) { f(err) }

// Metrics receives dashboard events. *metrics.Recorder implements it.
type Metrics interface {
	FetchStarted()
	FetchFinished(d time.Duration, err error)
	StaleResponse()
	Rendered(bars int)
}

type noopMetrics struct{}

func (noopMetrics) FetchStarted()                      {}
func (noopMetrics) FetchFinished(time.Duration, error) {}
func (noopMetrics) StaleResponse()                     {}
func (noopMetrics) Rendered(int)                       {}

var logNotifier = NotifierFunc(func(err error) {
	log.Printf("Failed to load data: %v", err)
})

// View is a snapshot of what the dashboard currently displays.
type View struct {
	Filter      records.Gender
	Limit       int
	Spec        charts.ChartSpec
	Map         *charts.MapWidget
	MapState    charts.MapState
	Records     int
	Loading     bool
	LastError   error
	LastUpdated time.Time
}

type Controller struct {
	src      Source
	renderer *charts.Renderer
	selector aggregate.Selector
	notifier Notifier
	metrics  Metrics

	mu          sync.Mutex
	filter      records.Gender
	limit       int
	data        records.RecordSet
	spec        charts.ChartSpec
	issued      uint64 // generation of the most recently issued fetch
	inFlight    int
	lastErr     error
	lastUpdated time.Time
}

type Option func(*Controller)

func WithLimit(limit int) Option {
	return func(c *Controller) {
		if limit >= 1 {
			c.limit = limit
		}
	}
}

func WithFilter(g records.Gender) Option {
	return func(c *Controller) { c.filter = g }
}

// WithSelector changes the field that is counted. The default is the disease.
func WithSelector(sel aggregate.Selector) Option {
	return func(c *Controller) { c.selector = sel }
}

func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

func WithMetrics(m Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

func New(src Source, renderer *charts.Renderer, opts ...Option) *Controller {
	c := &Controller{
		src:      src,
		renderer: renderer,
		selector: aggregate.ByDisease,
		notifier: logNotifier,
		metrics:  noopMetrics{},
		filter:   records.All,
		limit:    consts.DefaultDiseaseLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load fetches with the current filter. It serves the initial load and manual refreshes.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	filter := c.filter
	gen := c.issue()
	c.mu.Unlock()
	return c.fetch(ctx, gen, filter)
}

// SetFilter switches the gender filter and fetches the matching records.
func (c *Controller) SetFilter(ctx context.Context, g records.Gender) error {
	c.mu.Lock()
	c.filter = g
	gen := c.issue()
	c.mu.Unlock()
	log.Printf("Gender changed to: %s", g)
	return c.fetch(ctx, gen, g)
}

// SetLimit redraws the chart from the buffered records without fetching.
func (c *Controller) SetLimit(limit int) error {
	if limit < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.limit = limit
	c.render()
	return nil
}

// issue assigns the next generation to a request for the current filter. Callers hold c.mu.
func (c *Controller) issue() uint64 {
	c.issued++
	c.inFlight++
	return c.issued
}

func (c *Controller) fetch(ctx context.Context, gen uint64, g records.Gender) error {
	c.metrics.FetchStarted()
	start := time.Now()
	rs, err := c.src.Fetch(ctx, g)
	c.metrics.FetchFinished(time.Since(start), err)

	c.mu.Lock()
	c.inFlight--
	if gen != c.issued {
		// A newer request was issued while this one was outstanding.
		c.mu.Unlock()
		c.metrics.StaleResponse()
		return nil
	}
	if err != nil {
		c.lastErr = err
		c.mu.Unlock()
		c.notifier.Notify(err)
		return err
	}
	c.data = rs
	c.lastErr = nil
	c.lastUpdated = time.Now()
	c.render()
	c.renderer.UpdateMap(rs)
	c.mu.Unlock()
	return nil
}

// render rebuilds the chart from the buffered records. Callers hold c.mu.
func (c *Controller) render() {
	pairs := aggregate.Sorted(c.data, c.selector)
	c.spec = c.renderer.Draw(pairs, c.limit)
	c.metrics.Rendered(c.spec.Len())
}

func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return View{
		Filter:      c.filter,
		Limit:       c.limit,
		Spec:        c.spec,
		Map:         c.renderer.Map(),
		MapState:    c.renderer.MapState(),
		Records:     len(c.data),
		Loading:     c.inFlight > 0,
		LastError:   c.lastErr,
		LastUpdated: c.lastUpdated,
	}
}

// Chart draws the displayed spec. Each call builds a fresh chart.
func (v View) Chart() *echarts.Bar {
	return charts.BuildDiseaseChart(v.Spec)
}
