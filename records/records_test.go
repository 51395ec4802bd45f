package records

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Records", func() {
	Describe("Decode", func() {
		It("decodes an array of records", func() {
			rs, err := Decode(strings.NewReader(`[
				{"ID":"p1","Gender":"Male","Disease":"Flu","City":"Boston","Latitude":42.36,"Longitude":-71.05},
				{"ID":"p2","Gender":"Female","Disease":"Cold"}
			]`))
			Expect(err).NotTo(HaveOccurred())
			Expect(rs).To(HaveLen(2))
			Expect(rs[0].Disease).To(Equal("Flu"))
			Expect(rs[0].HasLocation()).To(BeTrue())
			Expect(*rs[0].Latitude).To(Equal(42.36))
			Expect(rs[1].HasLocation()).To(BeFalse())
		})

		It("ignores unknown fields", func() {
			rs, err := Decode(strings.NewReader(`[{"Disease":"Flu","Age":42,"Notes":{"a":1}}]`))
			Expect(err).NotTo(HaveOccurred())
			Expect(rs).To(HaveLen(1))
			Expect(rs[0].Disease).To(Equal("Flu"))
		})

		It("groups missing, null and blank categories under undefined", func() {
			rs, err := Decode(strings.NewReader(`[{"Gender":"Male"},{"Disease":null},{"Disease":"  "}]`))
			Expect(err).NotTo(HaveOccurred())
			for _, r := range rs {
				Expect(r.Disease).To(Equal(UndefinedCategory))
			}
			Expect(rs[1].Gender).To(Equal(UndefinedCategory))
		})

		It("decodes an empty array", func() {
			rs, err := Decode(strings.NewReader(`[]`))
			Expect(err).NotTo(HaveOccurred())
			Expect(rs).To(BeEmpty())
		})

		It("fails on malformed JSON", func() {
			_, err := Decode(strings.NewReader(`{"Disease":`))
			Expect(err).To(HaveOccurred())
		})

		It("fails on data after the array", func() {
			_, err := Decode(strings.NewReader(`[{"Disease":"Flu"}] garbage`))
			Expect(err).To(MatchError(ContainSubstring("after the array")))

			_, err = Decode(strings.NewReader(`[{"Disease":"Flu"}][]`))
			Expect(err).To(HaveOccurred())
		})

		It("accepts trailing whitespace", func() {
			rs, err := Decode(strings.NewReader("[{\"Disease\":\"Flu\"}]\n\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(rs).To(HaveLen(1))
		})

		It("rejects a null body", func() {
			_, err := Decode(strings.NewReader(`null`))
			Expect(err).To(MatchError(ErrNotAnArray))
		})
	})

	Describe("ParseGender", func() {
		DescribeTable("canonicalizes known values",
			func(in string, expected Gender) {
				g, err := ParseGender(in)
				Expect(err).NotTo(HaveOccurred())
				Expect(g).To(Equal(expected))
			},
			Entry("empty", "", All),
			Entry("all", "all", All),
			Entry("upper", "MALE", Male),
			Entry("padded", " female ", Female),
			Entry("other", "Other", Other),
		)

		It("rejects unknown values", func() {
			_, err := ParseGender("robot")
			Expect(err).To(MatchError(ErrUnknownGender))
		})
	})
})
