package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/healthviz/patientdash/aggregate"
	"github.com/healthviz/patientdash/consts"
	"github.com/healthviz/patientdash/fetcher"
	"github.com/healthviz/patientdash/records"
)

func main() {
	upstream := flag.String("url", consts.DefaultUpstream, "Base URL of the patients API")
	gender := flag.String("gender", "All", "Gender filter: All, Male, Female or Other")
	limit := flag.Int("limit", consts.DefaultDiseaseLimit, "Number of diseases to list")
	timeout := flag.Duration("timeout", consts.FetchTimeout, "Request timeout")
	flag.Parse()

	if err := run(os.Stdout, *upstream, *gender, *limit, *timeout); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run(w io.Writer, upstream, genderStr string, limit int, timeout time.Duration) error {
	gender, err := records.ParseGender(genderStr)
	if err != nil {
		return err
	}
	if limit < 1 {
		return fmt.Errorf("limit must be at least 1, got %d", limit)
	}

	rs, err := fetcher.New(upstream, fetcher.WithTimeout(timeout)).Fetch(context.Background(), gender)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Gender: %s\n", gender)
	fmt.Fprintf(w, "Total patients: %d\n\n", len(rs))

	fmt.Fprintln(w, "By Disease:")
	printTopN(w, aggregate.Sorted(rs, aggregate.ByDisease), limit)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "By Gender:")
	printTopN(w, aggregate.Sorted(rs, aggregate.ByGender), len(records.Genders)+1)
	return nil
}

func printTopN(w io.Writer, pairs []aggregate.CategoryCount, n int) {
	for _, p := range aggregate.Top(pairs, n) {
		fmt.Fprintf(w, "%6d | %s\n", p.Count, p.Label)
	}
}
