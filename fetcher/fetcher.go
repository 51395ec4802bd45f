// Package fetcher retrieves patient records from the patients API.
package fetcher

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/healthviz/patientdash/consts"
	"github.com/healthviz/patientdash/records"
)

// FetchError is returned for any failure while retrieving or parsing records.
// Status is set for non-2xx responses; Err carries the underlying cause otherwise.
type FetchError struct {
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("network response was not ok: %d", e.Status)
	}
	return "fetching patients: " + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithTimeout sets the request timeout. The client in use is copied first, so a
// shared client such as http.DefaultClient is left untouched.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		hc := *cl.httpClient
		hc.Timeout = d
		cl.httpClient = &hc
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: consts.FetchTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch issues one GET for the records matching gender.
func (c *Client) Fetch(ctx context.Context, gender records.Gender) (records.RecordSet, error) {
	q := url.Values{consts.GenderQueryArg: []string{gender.String()}}
	u := c.baseURL + consts.PatientsPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("Network response was not ok: %d", resp.StatusCode)
		return nil, &FetchError{Status: resp.StatusCode}
	}

	rs, err := records.Decode(resp.Body)
	if err != nil {
		return nil, &FetchError{Status: resp.StatusCode, Err: err}
	}
	return rs, nil
}
