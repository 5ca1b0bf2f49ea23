package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/jusunglee/mbta-board/internal/catalog"
	"github.com/jusunglee/mbta-board/internal/mbta"
	"github.com/jusunglee/mbta-board/internal/models"
)

// PayloadKind distinguishes the JSON:API collections fetched per leg
type PayloadKind string

const (
	KindPredictions PayloadKind = "predictions"
	KindSchedules   PayloadKind = "schedules"
)

// Key identifies one fetched payload. Route is part of the key because a
// stop may be shared by panels on different routes.
type Key struct {
	EntityID  string
	Route     string
	Direction catalog.Direction
	Kind      PayloadKind
}

// LegKey returns the key a leg's payload of the given kind is stored under
func LegKey(stop catalog.TrackedStop, leg catalog.Leg, kind PayloadKind) Key {
	return Key{
		EntityID:  leg.StopID,
		Route:     stop.Route,
		Direction: leg.Direction,
		Kind:      kind,
	}
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s/%s", k.Kind, k.EntityID, k.Route, k.Direction)
}

// FetchStatus is the outcome of a single fetch
type FetchStatus int

const (
	// StatusMissing means nothing was fetched for the key this cycle
	StatusMissing FetchStatus = iota
	StatusOK
	StatusEmpty
	StatusFailed
)

func (s FetchStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	default:
		return "missing"
	}
}

// Snapshot holds the raw results of one poll cycle. Fetch workers write to
// it concurrently; after the fetch barrier it is only read.
type Snapshot struct {
	mu sync.RWMutex

	// Now is the reference time of the cycle
	Now time.Time

	payloads     map[Key]*mbta.Document
	statuses     map[Key]FetchStatus
	alerts       map[string][]models.Alert
	alertsFailed map[string]bool
	bikes        map[string]models.BikeAvailability
	bikesFailed  bool
}

// NewSnapshot creates an empty snapshot for a cycle starting at now
func NewSnapshot(now time.Time) *Snapshot {
	return &Snapshot{
		Now:          now,
		payloads:     make(map[Key]*mbta.Document),
		statuses:     make(map[Key]FetchStatus),
		alerts:       make(map[string][]models.Alert),
		alertsFailed: make(map[string]bool),
		bikes:        make(map[string]models.BikeAvailability),
	}
}

// SetPayload records the result of a predictions or schedules fetch
func (s *Snapshot) SetPayload(key Key, doc *mbta.Document, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case err != nil:
		s.statuses[key] = StatusFailed
	case doc.Empty():
		s.statuses[key] = StatusEmpty
		s.payloads[key] = doc
	default:
		s.statuses[key] = StatusOK
		s.payloads[key] = doc
	}
}

// Payload returns the document fetched for key, or nil
func (s *Snapshot) Payload(key Key) *mbta.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.payloads[key]
}

// Status returns the fetch outcome for key
func (s *Snapshot) Status(key Key) FetchStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statuses[key]
}

// SetAlerts records the alerts for a stop. Empty results are not stored.
func (s *Snapshot) SetAlerts(stop string, alerts []models.Alert, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.alertsFailed[stop] = true
		return
	}
	if len(alerts) > 0 {
		s.alerts[stop] = alerts
	}
}

// Alerts returns the alerts stored for a stop
func (s *Snapshot) Alerts(stop string) []models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alerts[stop]
}

// AlertsFailed reports whether the alerts fetch for a stop failed
func (s *Snapshot) AlertsFailed(stop string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alertsFailed[stop]
}

// SetBikes records the availability of the tracked stations
func (s *Snapshot) SetBikes(bikes map[string]models.BikeAvailability, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.bikesFailed = true
		return
	}
	for id, b := range bikes {
		s.bikes[id] = b
	}
}

// Bikes returns the availability of a station
func (s *Snapshot) Bikes(stationID string) (models.BikeAvailability, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bikes[stationID]
	return b, ok
}

// BikesFailed reports whether the bike feed fetch failed
func (s *Snapshot) BikesFailed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bikesFailed
}

// Failures counts the failed fetches of the cycle
func (s *Snapshot) Failures() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.alertsFailed)
	for _, st := range s.statuses {
		if st == StatusFailed {
			n++
		}
	}
	if s.bikesFailed {
		n++
	}
	return n
}
