package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestReport(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Report Suite")
}

var _ = Describe("Report", func() {
	var server *httptest.Server

	BeforeEach(func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("gender") == "Female" {
				fmt.Fprint(w, `[{"Gender":"Female","Disease":"Cold"}]`)
				return
			}
			fmt.Fprint(w, `[
				{"Gender":"Male","Disease":"Flu"},{"Gender":"Male","Disease":"Flu"},
				{"Gender":"Female","Disease":"Cold"},{"Gender":"Male"}
			]`)
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("prints the top diseases and the gender split", func() {
		var out strings.Builder
		Expect(run(&out, server.URL, "all", 2, time.Second)).To(Succeed())
		Expect(out.String()).To(Equal(`Gender: All
Total patients: 4

By Disease:
     2 | Flu
     1 | Cold

By Gender:
     3 | Male
     1 | Female
`))
	})

	It("passes the gender filter", func() {
		var out strings.Builder
		Expect(run(&out, server.URL, "female", 5, time.Second)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Total patients: 1"))
	})

	It("rejects a bad limit or gender", func() {
		Expect(run(&strings.Builder{}, server.URL, "All", 0, time.Second)).NotTo(Succeed())
		Expect(run(&strings.Builder{}, server.URL, "robot", 5, time.Second)).NotTo(Succeed())
	})
})
