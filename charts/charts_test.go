package charts

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/healthviz/patientdash/aggregate"
	"github.com/healthviz/patientdash/consts"
	"github.com/healthviz/patientdash/records"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestCharts(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Charts Suite")
}

func ptr(f float64) *float64 { return &f }

func chartJSON(v map[string]interface{}) string {
	b, err := json.Marshal(v)
	Expect(err).NotTo(HaveOccurred())
	return string(b)
}

var _ = Describe("Charts", func() {
	pairs := []aggregate.CategoryCount{
		{Label: "Flu", Count: 3},
		{Label: "Cold", Count: 2},
		{Label: "Asthma", Count: 1},
	}

	Describe("NewChartSpec", func() {
		It("builds parallel label and count sequences", func() {
			spec := NewChartSpec(pairs[:2], 5)
			Expect(spec.Labels).To(Equal([]string{"Flu", "Cold"}))
			Expect(spec.Counts).To(Equal([]int{3, 2}))
		})

		It("keeps only the top category for limit 1", func() {
			spec := NewChartSpec(pairs, 1)
			Expect(spec.Labels).To(Equal([]string{"Flu"}))
			Expect(spec.Counts).To(Equal([]int{3}))
		})

		It("is empty for empty input", func() {
			spec := NewChartSpec(nil, 5)
			Expect(spec.Len()).To(BeZero())
		})
	})

	Describe("BuildDiseaseChart", func() {
		It("titles the chart with the number of bars", func() {
			bar := BuildDiseaseChart(NewChartSpec(pairs, 2))
			bar.Validate()
			js := chartJSON(bar.JSON())
			Expect(js).To(ContainSubstring("Patient Diseases (Top 2)"))
			Expect(js).To(ContainSubstring("Flu"))
			Expect(js).To(ContainSubstring("Cold"))
			Expect(js).NotTo(ContainSubstring("Asthma"))
			Expect(js).To(ContainSubstring(consts.BarColor))
		})

		It("draws an empty series without failing", func() {
			bar := BuildDiseaseChart(NewChartSpec(nil, 5))
			Expect(bar).NotTo(BeNil())
			bar.Validate()
			Expect(chartJSON(bar.JSON())).To(ContainSubstring("Patient Diseases (Top 0)"))
		})
	})

	Describe("Renderer", func() {
		located := records.RecordSet{
			{Disease: "Flu", City: "Boston", Latitude: ptr(42.36), Longitude: ptr(-71.05)},
			{Disease: "Cold"},
			{Disease: "Cold", Latitude: ptr(40.71), Longitude: ptr(-74.0)},
		}

		It("truncates to the limit", func() {
			spec := NewRenderer(false).Draw(pairs, 2)
			Expect(spec.Labels).To(Equal([]string{"Flu", "Cold"}))
		})

		It("stays uninitialized without a map container", func() {
			r := NewRenderer(false)
			Expect(r.UpdateMap(located)).To(Equal(MapUninitialized))
			Expect(r.Map()).To(BeNil())
		})

		It("builds the map once and places markers for located records", func() {
			r := NewRenderer(true)
			Expect(r.MapState()).To(Equal(MapUninitialized))
			Expect(r.UpdateMap(located)).To(Equal(MapActive))
			Expect(r.Map().Markers()).To(Equal([]Marker{
				{Label: "Boston: Flu", Latitude: 42.36, Longitude: -71.05},
				{Label: "Cold", Latitude: 40.71, Longitude: -74.0},
			}))
		})

		It("replaces markers instead of accumulating them", func() {
			r := NewRenderer(true)
			for range 3 {
				r.UpdateMap(located)
			}
			Expect(r.Map().Markers()).To(HaveLen(2))

			r.UpdateMap(records.RecordSet{{Disease: "Flu", Latitude: ptr(1), Longitude: ptr(2)}})
			Expect(r.Map().Markers()).To(HaveLen(1))

			r.UpdateMap(nil)
			Expect(r.Map().Markers()).To(BeEmpty())
			Expect(r.MapState()).To(Equal(MapActive))
		})

		It("renders the map as a geo chart", func() {
			r := NewRenderer(true)
			r.UpdateMap(located)
			geo := r.Map().Chart()
			geo.Validate()
			js := chartJSON(geo.JSON())
			Expect(js).To(ContainSubstring("Patient Locations"))
			Expect(js).To(ContainSubstring("Boston: Flu"))
		})
	})

	Describe("ExportChartJSON", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "charts-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			os.RemoveAll(tempDir)
		})

		It("writes the chart and metadata", func() {
			outDir := filepath.Join(tempDir, "chartdata")
			err := ExportChartJSON(outDir, "All", NewChartSpec(pairs, 5), 6, nil)
			Expect(err).NotTo(HaveOccurred())

			data, err := os.ReadFile(filepath.Join(outDir, consts.ChartJSONFile))
			Expect(err).NotTo(HaveOccurred())

			var out map[string]interface{}
			Expect(json.Unmarshal(data, &out)).To(Succeed())
			Expect(out["filter"]).To(Equal("All"))
			Expect(out["total"]).To(BeNumerically("==", 6))
			Expect(out["charts"]).To(HaveLen(1))
			Expect(out).To(HaveKey("lastUpdated"))
		})

		It("includes the map when given", func() {
			r := NewRenderer(true)
			r.UpdateMap(records.RecordSet{{Disease: "Flu", Latitude: ptr(1), Longitude: ptr(2)}})
			err := ExportChartJSON(tempDir, "Male", NewChartSpec(pairs, 5), 6, r.Map())
			Expect(err).NotTo(HaveOccurred())

			data, err := os.ReadFile(filepath.Join(tempDir, consts.ChartJSONFile))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`"id": "map"`))
		})
	})

	Describe("Page", func() {
		It("adds the map chart when present", func() {
			r := NewRenderer(true)
			r.UpdateMap(nil)
			page := Page(BuildDiseaseChart(NewChartSpec(pairs, 5)), r.Map())
			Expect(page.Charts).To(HaveLen(2))
		})
	})
})
