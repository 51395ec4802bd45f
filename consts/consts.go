package consts

import "time"

// Server configuration
const (
	DefaultPort       = "8080"
	ReadHeaderTimeout = 3 * time.Second
	RateLimitRequests = 60
	RateLimitWindow   = time.Minute
	DefaultUpstream   = "http://localhost:8080"
	FetchTimeout      = 10 * time.Second
)

// Cron schedules
const (
	CronRefresh     = "*/15 * * * *" // Every 15 minutes
	CronExportChart = "5 * * * *"    // Hourly at :05
)

// File paths and directories
const (
	DatabaseFile   = "patients.db"
	ChartDataDir   = "web/chartdata"
	ChartJSONFile  = "chart.json"
	PatientsPath   = "/api/patients"
	GenderQueryArg = "gender"
	LimitQueryArg  = "limit"
)

// File permissions
const (
	DirPermissions  = 0750
	FilePermissions = 0600
)

// Date formats
const (
	DateTimeFormat = "2006-01-02 15:04:05"
)

// Chart configuration
const (
	DefaultDiseaseLimit = 5
	ChartWidth          = "1200px"
	ChartHeight         = "600px"
	MapWidth            = "1200px"
	MapHeight           = "600px"
	MapName             = "world"
)

// Chart colors and styling
const (
	ChartBackgroundColor = "rgba(0,0,0,0)" // transparent
	ChartTextColor       = "#000000"
	BarColor             = "rgb(49, 130, 189)"
	MarkerColor          = "rgb(204, 51, 51)"
)

// Chart margins, in pixels
const (
	MarginLeft   = "50"
	MarginRight  = "50"
	MarginBottom = "150" // room for rotated labels
	MarginTop    = "50"
	LabelRotate  = 45
)

// API configuration
const (
	AuthHeaderPrefix = "Bearer "
	APIKeyQueryParam = "api_key"
)
