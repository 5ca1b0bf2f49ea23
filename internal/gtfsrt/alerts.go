// Package gtfsrt reads service alerts from a GTFS-Realtime Alerts feed, as an
// alternative to per-stop JSON:API alert requests
package gtfsrt

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/jusunglee/mbta-board/internal/models"
)

// DefaultFeedURL is the MBTA GTFS-Realtime alerts feed
const DefaultFeedURL = "https://cdn.mbta.com/realtime/Alerts.pb"

// Severity values on the JSON:API scale, where lower is worse
const (
	severitySevere  = 1
	severityWarning = 5
	severityInfo    = 8
	severityUnknown = 10
)

// Client fetches the alerts feed
type Client struct {
	feedURL    string
	httpClient *http.Client
}

// NewClient creates an alerts feed client
func NewClient(feedURL string, httpClient *http.Client) *Client {
	if feedURL == "" {
		feedURL = DefaultFeedURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{feedURL: feedURL, httpClient: httpClient}
}

// Alerts fetches and decodes every alert in the feed
func (c *Client) Alerts(ctx context.Context) ([]models.Alert, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alerts feed: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return Decode(data)
}

// Decode parses a serialized FeedMessage into alerts. Entities without an
// alert are ignored.
func Decode(data []byte) ([]models.Alert, error) {
	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(data, feed); err != nil {
		return nil, fmt.Errorf("failed to parse GTFS-RT alerts: %w", err)
	}

	var alerts []models.Alert
	for _, entity := range feed.GetEntity() {
		if entity.GetIsDeleted() {
			continue
		}
		a := entity.GetAlert()
		if a == nil {
			continue
		}

		alert := models.Alert{
			ID:          entity.GetId(),
			Severity:    severity(a.GetSeverityLevel()),
			Effect:      effect(a.GetEffect()),
			Header:      text(a.GetHeaderText()),
			Description: text(a.GetDescriptionText()),
		}

		for _, ie := range a.GetInformedEntity() {
			route, stop := ie.GetRouteId(), ie.GetStopId()
			if route == "" && stop == "" {
				continue
			}
			if route != "" {
				alert.Routes = appendUnique(alert.Routes, route)
			}
			if stop != "" {
				alert.Stops = appendUnique(alert.Stops, stop)
			}
			sel := models.InformedEntity{Route: route, Stop: stop}
			if !slices.Contains(alert.Entities, sel) {
				alert.Entities = append(alert.Entities, sel)
			}
		}

		alerts = append(alerts, alert)
	}

	return alerts, nil
}

// ForStop returns the alerts with a selector that applies at the stop: one
// naming the stop, or a route-wide one naming no stop. Each returned alert is
// narrowed to the routes of its matching selectors, so a selector for another
// stop never lends its route to this one. A stop-wide selector with no route
// leaves the routes empty, which informs every route.
func ForStop(alerts []models.Alert, stop string) []models.Alert {
	var matched []models.Alert
	for _, a := range alerts {
		var (
			routes   []string
			hit      bool
			allRoute bool
		)
		for _, sel := range a.Entities {
			if sel.Stop != "" && sel.Stop != stop {
				continue
			}
			hit = true
			if sel.Route == "" {
				allRoute = true
				continue
			}
			routes = appendUnique(routes, sel.Route)
		}
		if !hit {
			continue
		}

		narrowed := a
		narrowed.Stops = []string{stop}
		narrowed.Routes = routes
		if allRoute {
			narrowed.Routes = nil
		}
		matched = append(matched, narrowed)
	}
	return matched
}

func severity(level gtfs.Alert_SeverityLevel) int {
	switch level {
	case gtfs.Alert_SEVERE:
		return severitySevere
	case gtfs.Alert_WARNING:
		return severityWarning
	case gtfs.Alert_INFO:
		return severityInfo
	default:
		return severityUnknown
	}
}

// effect maps GTFS-RT effects onto the JSON:API effect vocabulary
func effect(e gtfs.Alert_Effect) string {
	switch e {
	case gtfs.Alert_SIGNIFICANT_DELAYS:
		return "DELAY"
	case gtfs.Alert_NO_SERVICE:
		return "SUSPENSION"
	case gtfs.Alert_DETOUR:
		return "DETOUR"
	case gtfs.Alert_REDUCED_SERVICE, gtfs.Alert_MODIFIED_SERVICE:
		return "SERVICE_CHANGE"
	case gtfs.Alert_STOP_MOVED:
		return "STOP_MOVED"
	case gtfs.Alert_ACCESSIBILITY_ISSUE:
		return "ACCESS_ISSUE"
	default:
		return "OTHER_EFFECT"
	}
}

// text prefers an English or untagged translation, else the first one
func text(ts *gtfs.TranslatedString) string {
	var first string
	for _, tr := range ts.GetTranslation() {
		lang := tr.GetLanguage()
		if lang == "" || lang == "en" {
			return tr.GetText()
		}
		if first == "" {
			first = tr.GetText()
		}
	}
	return first
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
