package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jusunglee/mbta-board/internal/bikes"
	"github.com/jusunglee/mbta-board/internal/mbta"
	"github.com/jusunglee/mbta-board/internal/models"
)

// MockTransit serves canned documents keyed by stop id. It records every
// call so tests can check which requests a cycle issued.
type MockTransit struct {
	PredictionDocs map[string]*mbta.Document
	ScheduleDocs   map[string]*mbta.Document
	AlertDocs      map[string]*mbta.Document
	// Failing stops return an error for every request
	Failing map[string]bool
	// Delay is applied to every request; the request context can cut it short
	Delay time.Duration

	mu      sync.Mutex
	calls   []string
	queries []any
}

// NewMockTransit creates an empty mock
func NewMockTransit() *MockTransit {
	return &MockTransit{
		PredictionDocs: make(map[string]*mbta.Document),
		ScheduleDocs:   make(map[string]*mbta.Document),
		AlertDocs:      make(map[string]*mbta.Document),
		Failing:        make(map[string]bool),
	}
}

func (m *MockTransit) record(call string, q any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
	m.queries = append(m.queries, q)
}

func (m *MockTransit) wait(ctx context.Context, stop string) error {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if m.Failing[stop] {
		return fmt.Errorf("HTTP 503 for stop %s", stop)
	}
	return nil
}

// Predictions implements TransitAPI
func (m *MockTransit) Predictions(ctx context.Context, q mbta.PredictionQuery) (*mbta.Document, error) {
	m.record("predictions:"+q.Stop+":"+q.Route, q)
	if err := m.wait(ctx, q.Stop); err != nil {
		return nil, err
	}
	if doc, ok := m.PredictionDocs[q.Stop]; ok {
		return doc, nil
	}
	return mbta.MockDocument(nil), nil
}

// Schedules implements TransitAPI
func (m *MockTransit) Schedules(ctx context.Context, q mbta.ScheduleQuery) (*mbta.Document, error) {
	m.record("schedules:"+q.Stop+":"+q.Route, q)
	if err := m.wait(ctx, q.Stop); err != nil {
		return nil, err
	}
	if doc, ok := m.ScheduleDocs[q.Stop]; ok {
		return doc, nil
	}
	return mbta.MockDocument(nil), nil
}

// Alerts implements TransitAPI
func (m *MockTransit) Alerts(ctx context.Context, stop string) (*mbta.Document, error) {
	m.record("alerts:"+stop, stop)
	if err := m.wait(ctx, stop); err != nil {
		return nil, err
	}
	if doc, ok := m.AlertDocs[stop]; ok {
		return doc, nil
	}
	return mbta.MockDocument(nil), nil
}

// Calls returns the recorded calls in order
func (m *MockTransit) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// PredictionQueries returns the recorded predictions queries
func (m *MockTransit) PredictionQueries() []mbta.PredictionQuery {
	m.mu.Lock()
	defer m.mu.Unlock()

	var qs []mbta.PredictionQuery
	for _, q := range m.queries {
		if pq, ok := q.(mbta.PredictionQuery); ok {
			qs = append(qs, pq)
		}
	}
	return qs
}

// MockBikes serves a fixed station_status feed
type MockBikes struct {
	Stations []bikes.StationStatus
	Err      error
}

// StationStatus implements BikeFeed
func (m *MockBikes) StationStatus(ctx context.Context) (*bikes.Feed, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	feed := &bikes.Feed{}
	feed.Data.Stations = m.Stations
	return feed, nil
}

// MockAlertFeed serves fixed alerts
type MockAlertFeed struct {
	Items []models.Alert
	Err   error
}

// Alerts implements AlertFeed
func (m *MockAlertFeed) Alerts(ctx context.Context) ([]models.Alert, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Items, nil
}
