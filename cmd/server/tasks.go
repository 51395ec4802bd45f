package main

import (
	"context"
	"log"
	"path/filepath"

	"github.com/healthviz/patientdash/charts"
	"github.com/healthviz/patientdash/config"
	"github.com/healthviz/patientdash/consts"
	"github.com/healthviz/patientdash/dashboard"
)

func refresh(ctx context.Context, ctrl *dashboard.Controller) func() {
	return func() {
		log.Print("Refreshing patient data")
		// Failures are already surfaced by the controller's notifier.
		_ = ctrl.Load(ctx)
	}
}

func exportChart(_ context.Context, cfg *config.Config, ctrl *dashboard.Controller) func() {
	return func() {
		log.Print("Exporting chart JSON")
		v := ctrl.Snapshot()
		outputDir := filepath.Join(cfg.DataFolder, consts.ChartDataDir)
		if err := charts.ExportChartJSON(outputDir, v.Filter.String(), v.Spec, v.Records, v.Map); err != nil {
			log.Printf("Error exporting chart JSON: %v", err)
		}
	}
}
