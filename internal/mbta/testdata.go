package mbta

import (
	"time"
)

// Mock builders for JSON:API documents, shared by the tests of packages that
// consume predictions, schedules and alerts

// MockTrip creates an included trip resource
func MockTrip(id, headsign string) Resource {
	return Resource{
		ID:         id,
		Type:       "trip",
		Attributes: Attributes{Headsign: headsign},
	}
}

// MockDeparture creates a prediction resource departing at t
func MockDeparture(id, trip string, t time.Time) Resource {
	ts := t.Format(time.RFC3339)
	return Resource{
		ID:   id,
		Type: "prediction",
		Attributes: Attributes{
			DepartureTime: &ts,
		},
		Relationships: tripRelationship(trip),
	}
}

// MockArrival creates a prediction resource with only an arrival time, as
// seen at the last stop of a trip
func MockArrival(id, trip string, t time.Time) Resource {
	ts := t.Format(time.RFC3339)
	return Resource{
		ID:   id,
		Type: "prediction",
		Attributes: Attributes{
			ArrivalTime: &ts,
		},
		Relationships: tripRelationship(trip),
	}
}

// MockStatus creates a prediction resource with a status and no times
func MockStatus(id, trip, status string) Resource {
	return Resource{
		ID:   id,
		Type: "prediction",
		Attributes: Attributes{
			Status: &status,
		},
		Relationships: tripRelationship(trip),
	}
}

// MockScheduled creates a schedule resource departing at t
func MockScheduled(id, trip string, t time.Time) Resource {
	r := MockDeparture(id, trip, t)
	r.Type = "schedule"
	return r
}

// MockAlert creates an alert resource informing the given routes
func MockAlert(id string, severity int, effect, header string, routes ...string) Resource {
	entities := make([]InformedEntity, 0, len(routes))
	for _, route := range routes {
		entities = append(entities, InformedEntity{Route: route})
	}
	return Resource{
		ID:   id,
		Type: "alert",
		Attributes: Attributes{
			Severity:       severity,
			Effect:         effect,
			Header:         header,
			InformedEntity: entities,
		},
	}
}

// MockDocument wraps resources into a document
func MockDocument(data []Resource, included ...Resource) *Document {
	return &Document{Data: data, Included: included}
}

func tripRelationship(trip string) map[string]Relationship {
	if trip == "" {
		return nil
	}
	return map[string]Relationship{
		"trip": {Data: []Identifier{{ID: trip, Type: "trip"}}},
	}
}
