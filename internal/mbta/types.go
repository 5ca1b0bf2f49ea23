package mbta

import (
	"bytes"
	"encoding/json"
)

// Document is a JSON:API response body from the v3 API
type Document struct {
	Data     []Resource `json:"data"`
	Included []Resource `json:"included,omitempty"`
}

// Resource is a single JSON:API resource object
type Resource struct {
	ID            string                  `json:"id"`
	Type          string                  `json:"type"`
	Attributes    Attributes              `json:"attributes"`
	Relationships map[string]Relationship `json:"relationships,omitempty"`
}

// Attributes is the union of the attribute sets of the resource types we read.
// Fields that are absent for a type stay at their zero value.
type Attributes struct {
	// prediction / schedule
	ArrivalTime          *string `json:"arrival_time,omitempty"`
	DepartureTime        *string `json:"departure_time,omitempty"`
	Status               *string `json:"status,omitempty"`
	ScheduleRelationship *string `json:"schedule_relationship,omitempty"`
	DirectionID          *int    `json:"direction_id,omitempty"`

	// trip
	Headsign string `json:"headsign,omitempty"`

	// alert
	Severity       int              `json:"severity,omitempty"`
	Effect         string           `json:"effect,omitempty"`
	Header         string           `json:"header,omitempty"`
	Description    *string          `json:"description,omitempty"`
	InformedEntity []InformedEntity `json:"informed_entity,omitempty"`
}

// InformedEntity is an element of an alert's informed_entity attribute
type InformedEntity struct {
	Route       string `json:"route,omitempty"`
	Stop        string `json:"stop,omitempty"`
	Trip        string `json:"trip,omitempty"`
	DirectionID *int   `json:"direction_id,omitempty"`
}

// Identifier is a JSON:API resource linkage
type Identifier struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Relationship holds the linkage of a relationship, which may be a single
// object, an array or null
type Relationship struct {
	Data []Identifier
}

// UnmarshalJSON accepts to-one and to-many linkage
func (r *Relationship) UnmarshalJSON(b []byte) error {
	var raw struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	data := bytes.TrimSpace(raw.Data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		r.Data = nil
	case data[0] == '[':
		return json.Unmarshal(data, &r.Data)
	default:
		var id Identifier
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		r.Data = []Identifier{id}
	}

	return nil
}

// MarshalJSON writes to-one linkage for a single identifier
func (r Relationship) MarshalJSON() ([]byte, error) {
	if len(r.Data) == 1 {
		return json.Marshal(struct {
			Data Identifier `json:"data"`
		}{r.Data[0]})
	}
	return json.Marshal(struct {
		Data []Identifier `json:"data"`
	}{r.Data})
}

// One returns the first linked identifier
func (r Relationship) One() (Identifier, bool) {
	if len(r.Data) == 0 {
		return Identifier{}, false
	}
	return r.Data[0], true
}

// TripID returns the id of the resource's trip relationship
func (r Resource) TripID() string {
	rel, ok := r.Relationships["trip"]
	if !ok {
		return ""
	}
	id, _ := rel.One()
	return id.ID
}

// Trips indexes included trip resources by id
func (d *Document) Trips() map[string]Attributes {
	trips := make(map[string]Attributes)
	if d == nil {
		return trips
	}
	for _, inc := range d.Included {
		if inc.Type == "trip" {
			trips[inc.ID] = inc.Attributes
		}
	}
	return trips
}

// Empty reports whether the document carries no primary data
func (d *Document) Empty() bool {
	return d == nil || len(d.Data) == 0
}
