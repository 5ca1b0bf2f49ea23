package mbta

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the public v3 API
const DefaultBaseURL = "https://api-v3.mbta.com"

// Client fetches predictions, schedules and alerts from the v3 API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new v3 API client. baseURL may point at a proxy that
// forwards to the API.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// PredictionQuery filters the predictions endpoint
type PredictionQuery struct {
	Stop  string
	Route string
	// Direction is only sent when set
	Direction *int
}

// ScheduleQuery filters the schedules endpoint
type ScheduleQuery struct {
	Stop      string
	Route     string
	Direction *int
	MinTime   time.Time
	MaxTime   time.Time
	Limit     int
}

// Predictions returns live predictions with their trips side-loaded
func (c *Client) Predictions(ctx context.Context, q PredictionQuery) (*Document, error) {
	params := url.Values{}
	params.Set("filter[stop]", q.Stop)
	if q.Route != "" {
		params.Set("filter[route]", q.Route)
	}
	if q.Direction != nil {
		params.Set("filter[direction_id]", strconv.Itoa(*q.Direction))
	}
	params.Set("include", "trip")

	return c.get(ctx, "/predictions", params)
}

// Schedules returns published schedule entries sorted by departure time
func (c *Client) Schedules(ctx context.Context, q ScheduleQuery) (*Document, error) {
	params := url.Values{}
	params.Set("filter[stop]", q.Stop)
	if q.Route != "" {
		params.Set("filter[route]", q.Route)
	}
	if q.Direction != nil {
		params.Set("filter[direction_id]", strconv.Itoa(*q.Direction))
	}
	if !q.MinTime.IsZero() {
		params.Set("filter[min_time]", q.MinTime.Format("15:04"))
		params.Set("filter[date]", q.MinTime.Format("2006-01-02"))
	}
	if !q.MaxTime.IsZero() {
		params.Set("filter[max_time]", maxTime(q.MinTime, q.MaxTime))
	}
	if q.Limit > 0 {
		params.Set("page[limit]", strconv.Itoa(q.Limit))
	}
	params.Set("include", "trip")
	params.Set("sort", "departure_time")

	return c.get(ctx, "/schedules", params)
}

// Alerts returns the alerts that affect a stop
func (c *Client) Alerts(ctx context.Context, stop string) (*Document, error) {
	params := url.Values{}
	params.Set("filter[stop]", stop)

	return c.get(ctx, "/alerts", params)
}

// maxTime formats the upper bound relative to the service date of start. The
// API accepts hours past 24 for times after midnight of the service day. The
// hour comes from wall clock and calendar days so DST changes do not shift it.
func maxTime(start, end time.Time) string {
	if start.IsZero() {
		return end.Format("15:04")
	}
	end = end.In(start.Location())
	hours := calendarDays(start, end)*24 + end.Hour()
	return fmt.Sprintf("%02d:%02d", hours, end.Minute())
}

// calendarDays counts the date changes from a to b
func calendarDays(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from) / (24 * time.Hour))
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*Document, error) {
	u := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.api+json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: HTTP %d", path, resp.StatusCode)
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	return &doc, nil
}
