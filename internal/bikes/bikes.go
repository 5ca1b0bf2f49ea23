// Package bikes reads station availability from a GBFS station_status feed
package bikes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jusunglee/mbta-board/internal/models"
)

// DefaultFeedURL is the Bluebikes station_status feed
const DefaultFeedURL = "https://gbfs.bluebikes.com/gbfs/en/station_status.json"

// StationStatus is one entry of the feed's station list
type StationStatus struct {
	StationID          string `json:"station_id"`
	NumBikesAvailable  int    `json:"num_bikes_available"`
	NumEbikesAvailable int    `json:"num_ebikes_available"`
	NumDocksAvailable  int    `json:"num_docks_available"`
	IsRenting          int    `json:"is_renting"`
	LastReported       int64  `json:"last_reported"`
}

// Feed is the station_status document
type Feed struct {
	LastUpdated int64 `json:"last_updated"`
	TTL         int   `json:"ttl"`
	Data        struct {
		Stations []StationStatus `json:"stations"`
	} `json:"data"`
}

// Availability converts a station entry to a classic / e-bike / total count
func (s StationStatus) Availability() models.BikeAvailability {
	ebikes := s.NumEbikesAvailable
	if ebikes > s.NumBikesAvailable {
		ebikes = s.NumBikesAvailable
	}
	return models.BikeAvailability{
		Classic: s.NumBikesAvailable - ebikes,
		Ebike:   ebikes,
		Total:   s.NumBikesAvailable,
	}
}

// Lookup returns availability for the requested stations. Stations missing
// from the feed are missing from the result.
func (f *Feed) Lookup(ids []string) map[string]models.BikeAvailability {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	result := make(map[string]models.BikeAvailability)
	for _, s := range f.Data.Stations {
		if wanted[s.StationID] {
			result[s.StationID] = s.Availability()
		}
	}
	return result
}

// Client fetches the station_status feed
type Client struct {
	feedURL    string
	httpClient *http.Client
}

// NewClient creates a feed client
func NewClient(feedURL string, httpClient *http.Client) *Client {
	if feedURL == "" {
		feedURL = DefaultFeedURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{feedURL: feedURL, httpClient: httpClient}
}

// StationStatus fetches and decodes the whole feed
func (c *Client) StationStatus(ctx context.Context) (*Feed, error) {
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
		return nil, fmt.Errorf("bike feed: HTTP %d", resp.StatusCode)
	}

	var feed Feed
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decoding bike feed: %w", err)
	}

	return &feed, nil
}
