package main

import (
	"context"
	"log"
	"path/filepath"

	"github.com/healthviz/patientdash/charts"
	"github.com/healthviz/patientdash/config"
	"github.com/healthviz/patientdash/consts"
	"github.com/healthviz/patientdash/dashboard"
	"github.com/healthviz/patientdash/fetcher"
	"github.com/healthviz/patientdash/records"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	gender, err := records.ParseGender(cfg.DefaultGender)
	if err != nil {
		log.Fatal(err)
	}

	client := fetcher.New(cfg.UpstreamURL, fetcher.WithTimeout(cfg.FetchTimeout))
	ctrl := dashboard.New(client, charts.NewRenderer(cfg.MapEnabled),
		dashboard.WithFilter(gender),
		dashboard.WithLimit(cfg.DefaultLimit),
	)
	if err := ctrl.Load(context.Background()); err != nil {
		log.Fatalf("Error loading patients: %v", err)
	}

	v := ctrl.Snapshot()
	chartDataDir := filepath.Join(cfg.DataFolder, consts.ChartDataDir)
	log.Printf("Generating %s in %s", consts.ChartJSONFile, chartDataDir)
	if err := charts.ExportChartJSON(chartDataDir, v.Filter.String(), v.Spec, v.Records, v.Map); err != nil {
		log.Fatalf("Error exporting chart JSON: %v", err)
	}
	log.Print("Chart JSON generated successfully")
}
