package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/healthviz/patientdash/charts"
	"github.com/healthviz/patientdash/config"
	"github.com/healthviz/patientdash/consts"
	"github.com/healthviz/patientdash/dashboard"
	"github.com/healthviz/patientdash/db"
	"github.com/healthviz/patientdash/fetcher"
	"github.com/healthviz/patientdash/metrics"
	"github.com/healthviz/patientdash/records"
	"github.com/robfig/cron/v3"
)

func startTasks(ctx context.Context, cfg *config.Config, ctrl *dashboard.Controller) error {
	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(consts.CronRefresh, refresh(ctx, ctrl))
	if err != nil {
		return err
	}
	_, err = c.AddFunc(consts.CronExportChart, exportChart(ctx, cfg, ctrl))
	if err != nil {
		return err
	}
	c.Start()
	return nil
}

func newController(cfg *config.Config, rec *metrics.Recorder) (*dashboard.Controller, error) {
	gender, err := records.ParseGender(cfg.DefaultGender)
	if err != nil {
		return nil, err
	}
	client := fetcher.New(cfg.UpstreamURL, fetcher.WithTimeout(cfg.FetchTimeout))
	return dashboard.New(client, charts.NewRenderer(cfg.MapEnabled),
		dashboard.WithFilter(gender),
		dashboard.WithLimit(cfg.DefaultLimit),
		dashboard.WithMetrics(rec),
	), nil
}

func newRouter(cfg *config.Config, dbConn *sql.DB, ctrl *dashboard.Controller, rec *metrics.Recorder) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", dashboardHandler(ctrl))
	r.Get("/health", healthHandler())
	r.Method(http.MethodGet, "/metrics", rec.Handler())

	r.Get(consts.PatientsPath, patientsHandler(dbConn, rec))
	limiter := httprate.NewRateLimiter(consts.RateLimitRequests, consts.RateLimitWindow, httprate.WithKeyByIP())
	r.With(limiter.Handler).Post(consts.PatientsPath, ingestHandler(dbConn, rec))

	r.With(apiKeyMiddleware(cfg.APIKey)).Get("/api/chart", chartJSONHandler(ctrl))
	r.Post("/api/refresh", refreshHandler(ctrl))
	return r
}

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	dbPath := filepath.Join(cfg.DataFolder, consts.DatabaseFile)
	dbConn, err := db.OpenDB(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Connected to database at %s", dbPath)

	rec := metrics.New()
	ctrl, err := newController(cfg, rec)
	if err != nil {
		log.Fatal(err)
	}

	if err := startTasks(ctx, cfg, ctrl); err != nil {
		log.Fatal(err)
	}

	// Initial load once the listener is up, since the upstream may be this server.
	go func() {
		time.Sleep(time.Second)
		refresh(ctx, ctrl)()
	}()

	log.Print("Starting patient dashboard on :" + cfg.Port)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		ReadHeaderTimeout: consts.ReadHeaderTimeout,
		Handler:           newRouter(cfg, dbConn, ctrl, rec),
	}
	err = server.ListenAndServe()
	if err != nil {
		log.Fatal("ListenAndServe: ", err)
	}
}
