package catalog

import (
	"fmt"
	"time"
)

// Kind is the type of vehicle a panel tracks
type Kind string

const (
	KindTrain Kind = "train"
	KindBus   Kind = "bus"
	KindBike  Kind = "bike"
)

// Direction follows the MBTA direction_id convention
type Direction int

const (
	Outbound Direction = 0
	Inbound  Direction = 1
)

func (d Direction) String() string {
	if d == Inbound {
		return "inbound"
	}
	return "outbound"
}

// Label is the default header text for the direction
func (d Direction) Label() string {
	if d == Inbound {
		return "Inbound"
	}
	return "Outbound"
}

// ParseDirection accepts "outbound"/"inbound" or "0"/"1"
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "outbound", "0":
		return Outbound, nil
	case "inbound", "1":
		return Inbound, nil
	}
	return Outbound, fmt.Errorf("unknown direction %q", s)
}

// ScheduleWindow selects the time range of a schedules request
type ScheduleWindow string

const (
	// WindowTomorrow covers tomorrow 03:00 to the day after 03:00, local time
	WindowTomorrow ScheduleWindow = "tomorrow"
	// WindowUpcoming starts now and is bounded by Limit
	WindowUpcoming ScheduleWindow = "upcoming"
)

// ScheduleSpec describes the published schedule used when a leg has no live data
type ScheduleSpec struct {
	Window ScheduleWindow `yaml:"window" validate:"required,oneof=tomorrow upcoming"`
	Limit  int            `yaml:"limit" validate:"gte=0"`
}

// TrackedStop is a train stop or bus route panel
type TrackedStop struct {
	Panel        string `yaml:"panel" validate:"required"`
	Group        string `yaml:"group" validate:"required"`
	Name         string `yaml:"name" validate:"required"`
	Location     string `yaml:"location"`
	Kind         Kind   `yaml:"kind" validate:"required,oneof=train bus"`
	StopID       string `yaml:"stop_id" validate:"required"`
	InboundID    string `yaml:"inbound_id"`
	Route        string `yaml:"route" validate:"required"`
	Terminal     bool   `yaml:"terminal"`
	LowFrequency bool   `yaml:"low_frequency"`

	OutboundLabel    string        `yaml:"outbound_label"`
	InboundLabel     string        `yaml:"inbound_label"`
	OutboundSchedule *ScheduleSpec `yaml:"outbound_schedule"`
	InboundSchedule  *ScheduleSpec `yaml:"inbound_schedule"`

	MaxRows   int    `yaml:"max_rows" validate:"gte=0"`
	EmptyText string `yaml:"empty_text"`
}

// Leg is one direction of a tracked stop, resolved to the stop id it is fetched from
type Leg struct {
	Direction Direction
	StopID    string
	Label     string
	// FilterDirection is false for bus legs, which are fetched for both directions
	FilterDirection bool
	Schedule        *ScheduleSpec
}

// Legs resolves the outbound and inbound legs of the stop.
// Terminals are served in both directions from the primary stop id; other
// stops only have an inbound leg when an inbound stop id is configured.
func (s TrackedStop) Legs() []Leg {
	filter := s.Kind == KindTrain

	legs := []Leg{{
		Direction:       Outbound,
		StopID:          s.StopID,
		Label:           labelOr(s.OutboundLabel, Outbound),
		FilterDirection: filter,
		Schedule:        s.OutboundSchedule,
	}}

	inbound := ""
	switch {
	case s.Terminal:
		inbound = s.StopID
	case s.InboundID != "":
		inbound = s.InboundID
	}

	if inbound != "" {
		legs = append(legs, Leg{
			Direction:       Inbound,
			StopID:          inbound,
			Label:           labelOr(s.InboundLabel, Inbound),
			FilterDirection: filter,
			Schedule:        s.InboundSchedule,
		})
	}

	return legs
}

// StopIDs returns the distinct stop ids the panel needs alerts for
func (s TrackedStop) StopIDs() []string {
	ids := []string{s.StopID}
	if s.InboundID != "" && s.InboundID != s.StopID {
		ids = append(ids, s.InboundID)
	}
	return ids
}

// Rows is the number of rows shown per direction
func (s TrackedStop) Rows() int {
	if s.MaxRows > 0 {
		return s.MaxRows
	}
	if s.Kind == KindBus {
		return 2
	}
	return 4
}

// NoServiceText is the placeholder shown when no direction has data
func (s TrackedStop) NoServiceText() string {
	if s.EmptyText != "" {
		return s.EmptyText
	}
	if s.Kind == KindBus {
		return "No buses"
	}
	return "No trains running"
}

func labelOr(label string, d Direction) string {
	if label != "" {
		return label
	}
	return d.Label()
}

// TrackedBikeStation is a bike-share station panel
type TrackedBikeStation struct {
	Panel     string `yaml:"panel" validate:"required"`
	Group     string `yaml:"group" validate:"required"`
	StationID string `yaml:"station_id" validate:"required"`
	Name      string `yaml:"name" validate:"required"`
	Location  string `yaml:"location"`
}

// Group is a set of panels shown together, and the unit of kiosk rotation
type Group struct {
	Name  string `yaml:"name" validate:"required"`
	Title string `yaml:"title"`
}

// FallbackSchedule is a hardcoded departure table for a low-frequency route,
// used only while its When expression holds and no other data exists
type FallbackSchedule struct {
	Route      string   `yaml:"route" validate:"required"`
	Direction  string   `yaml:"direction" validate:"required,oneof=outbound inbound"`
	Headsign   string   `yaml:"headsign" validate:"required"`
	When       string   `yaml:"when" validate:"required"`
	Departures []string `yaml:"departures" validate:"min=1,dive,datetime=15:04"`
	RollOver   bool     `yaml:"roll_over"`
}

// Catalog is the static description of everything on the board
type Catalog struct {
	Timezone  string               `yaml:"timezone"`
	Groups    []Group              `yaml:"groups" validate:"min=1,dive"`
	Stops     []TrackedStop        `yaml:"stops" validate:"dive"`
	Stations  []TrackedBikeStation `yaml:"bike_stations" validate:"dive"`
	Fallbacks []FallbackSchedule   `yaml:"fallbacks" validate:"dive"`

	location *time.Location
}

// Location is the catalog's local time zone
func (c *Catalog) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// StopsIn returns the tracked stops of a group in catalog order
func (c *Catalog) StopsIn(group string) []TrackedStop {
	var stops []TrackedStop
	for _, s := range c.Stops {
		if s.Group == group {
			stops = append(stops, s)
		}
	}
	return stops
}

// StationsIn returns the bike stations of a group in catalog order
func (c *Catalog) StationsIn(group string) []TrackedBikeStation {
	var stations []TrackedBikeStation
	for _, s := range c.Stations {
		if s.Group == group {
			stations = append(stations, s)
		}
	}
	return stations
}

// Group looks up a group by name
func (c *Catalog) Group(name string) (Group, bool) {
	for _, g := range c.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return Group{}, false
}

// GroupNames returns group names in rotation order
func (c *Catalog) GroupNames() []string {
	names := make([]string, len(c.Groups))
	for i, g := range c.Groups {
		names[i] = g.Name
	}
	return names
}
