package records

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UndefinedCategory is the label given to records whose categorical field is missing or blank.
const UndefinedCategory = "undefined"

// Record is one patient observation. Only Gender and Disease are used for charting;
// coordinates feed the map overlay when present.
type Record struct {
	ID        string   `json:"ID,omitempty"`
	Gender    string   `json:"Gender"`
	Disease   string   `json:"Disease"`
	City      string   `json:"City,omitempty"`
	Latitude  *float64 `json:"Latitude,omitempty"`
	Longitude *float64 `json:"Longitude,omitempty"`
}

// HasLocation reports whether both coordinates are set.
func (r Record) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Normalize fills missing categorical fields with UndefinedCategory and trims whitespace.
func (r Record) Normalize() Record {
	r.Gender = category(r.Gender)
	r.Disease = category(r.Disease)
	r.City = strings.TrimSpace(r.City)
	return r
}

func category(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return UndefinedCategory
	}
	return v
}

// RecordSet is the full collection of records returned by one fetch.
type RecordSet []Record

// Normalize returns a copy of the set with every record normalized.
func (rs RecordSet) Normalize() RecordSet {
	out := make(RecordSet, len(rs))
	for i, r := range rs {
		out[i] = r.Normalize()
	}
	return out
}

var ErrNotAnArray = errors.New("records must be a JSON array")

// Decode reads exactly one JSON array of records and normalizes it.
func Decode(r io.Reader) (RecordSet, error) {
	dec := json.NewDecoder(r)
	var rs RecordSet
	if err := dec.Decode(&rs); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}
	if rs == nil {
		// null decodes without error but is not a record set
		return nil, ErrNotAnArray
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("decoding records: unexpected data after the array")
	}
	return rs.Normalize(), nil
}

// Gender is the value of the dashboard's gender filter.
type Gender string

const (
	All    Gender = "All" // no filter
	Male   Gender = "Male"
	Female Gender = "Female"
	Other  Gender = "Other"
)

// Genders lists the filter values in display order.
var Genders = []Gender{All, Male, Female, Other}

var ErrUnknownGender = errors.New("unknown gender")

// ParseGender canonicalizes s into a Gender. An empty string means All.
func ParseGender(s string) (Gender, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return All, nil
	}
	// Casers are stateful, so one is built per call.
	g := Gender(cases.Title(language.Und).String(s))
	for _, known := range Genders {
		if g == known {
			return g, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGender, s)
}

func (g Gender) String() string {
	return string(g)
}
