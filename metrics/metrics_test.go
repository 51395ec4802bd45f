package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Metrics Suite")
}

var _ = Describe("Recorder", func() {
	var r *Recorder

	BeforeEach(func() {
		r = New()
	})

	It("counts fetches and errors", func() {
		r.FetchStarted()
		Expect(testutil.ToFloat64(r.inFlight)).To(Equal(1.0))
		r.FetchFinished(10*time.Millisecond, nil)
		r.FetchStarted()
		r.FetchFinished(10*time.Millisecond, errors.New("boom"))

		Expect(testutil.ToFloat64(r.fetches)).To(Equal(2.0))
		Expect(testutil.ToFloat64(r.fetchErrors)).To(Equal(1.0))
		Expect(testutil.ToFloat64(r.inFlight)).To(BeZero())
	})

	It("tracks renders and served records", func() {
		r.Rendered(3)
		r.StaleResponse()
		r.Served("Male", 4)
		r.Ingested(2)
		Expect(testutil.ToFloat64(r.bars)).To(Equal(3.0))
		Expect(testutil.ToFloat64(r.staleResponses)).To(Equal(1.0))
		Expect(testutil.ToFloat64(r.served.WithLabelValues("Male"))).To(Equal(4.0))
		Expect(testutil.ToFloat64(r.ingested)).To(Equal(2.0))
	})

	It("serves the registry", func() {
		r.Rendered(1)
		w := httptest.NewRecorder()
		r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("patientdash_renders_total 1"))
	})
})
