package models

import (
	"time"
)

// SourceKind says where a prediction came from
type SourceKind string

const (
	SourceLive      SourceKind = "live"
	SourceScheduled SourceKind = "scheduled"
)

// SpecialStatus marks predictions that bypass the countdown
type SpecialStatus string

const (
	StatusNone    SpecialStatus = ""
	StatusStopped SpecialStatus = "stopped"
)

// Prediction is a single normalized arrival estimate
type Prediction struct {
	Minutes              float64       `json:"minutes"`
	Destination          string        `json:"destination"`
	Source               SourceKind    `json:"source"`
	Status               SpecialStatus `json:"status,omitempty"`
	ScheduleRelationship string        `json:"schedule_relationship,omitempty"`
}

// Live reports whether the prediction should carry the live icon
func (p Prediction) Live() bool {
	if p.Status == StatusStopped {
		return true
	}
	return p.Source == SourceLive && p.ScheduleRelationship != "ADDED"
}

// InformedEntity is one route / stop selector of an alert. An empty field
// matches anything.
type InformedEntity struct {
	Route string `json:"route,omitempty"`
	Stop  string `json:"stop,omitempty"`
}

// Alert represents a service alert. An alert naming no route informs every
// route.
type Alert struct {
	ID          string           `json:"id"`
	Severity    int              `json:"severity"`
	Effect      string           `json:"effect"`
	Header      string           `json:"header"`
	Description string           `json:"description,omitempty"`
	Routes      []string         `json:"routes,omitempty"`
	Stops       []string         `json:"stops,omitempty"`
	Entities    []InformedEntity `json:"informed_entity,omitempty"`
}

// High reports whether the alert should be styled as high severity.
// Lower severity values are worse.
func (a Alert) High() bool {
	return a.Severity <= 5
}

// BikeAvailability is the bike count at one station
type BikeAvailability struct {
	Classic int `json:"classic"`
	Ebike   int `json:"ebike"`
	Total   int `json:"total"`
}

// Banner is an alert as shown above a direction
type Banner struct {
	Direction   string `json:"direction,omitempty"`
	Severity    int    `json:"severity"`
	High        bool   `json:"high"`
	Effect      string `json:"effect"`
	Icon        string `json:"icon"`
	Header      string `json:"header"`
	Description string `json:"description,omitempty"`
}

// Row is one rendered prediction line
type Row struct {
	Countdown   string  `json:"countdown"`
	Destination string  `json:"destination"`
	Minutes     float64 `json:"minutes"`
	Live        bool    `json:"live"`
	Imminent    bool    `json:"imminent"`
	Stopped     bool    `json:"stopped"`
}

// SectionSource is the data source chosen for a direction
type SectionSource string

const (
	SectionLive     SectionSource = "live"
	SectionSchedule SectionSource = "schedule"
	SectionFallback SectionSource = "fallback"
)

// Section is one direction of a panel
type Section struct {
	Direction   string        `json:"direction"`
	Label       string        `json:"label"`
	Destination string        `json:"destination"`
	Source      SectionSource `json:"source"`
	Alert       *Banner       `json:"alert,omitempty"`
	Rows        []Row         `json:"rows"`
}

// Panel is a rendered stop, route or bike station
type Panel struct {
	ID          string            `json:"id"`
	Kind        string            `json:"kind"`
	Name        string            `json:"name"`
	Location    string            `json:"location,omitempty"`
	Route       string            `json:"route,omitempty"`
	Sections    []Section         `json:"sections,omitempty"`
	Bikes       *BikeAvailability `json:"bikes,omitempty"`
	Empty       bool              `json:"empty"`
	EmptyText   string            `json:"empty_text,omitempty"`
	Alert       *Banner           `json:"alert,omitempty"`
	Unavailable bool              `json:"data_unavailable"`
}

// GroupBoard is the rendered state of one panel group
type GroupBoard struct {
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	Panels    []Panel   `json:"panels"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Board is everything currently on screen
type Board struct {
	Groups     []GroupBoard `json:"groups"`
	Active     string       `json:"active,omitempty"`
	LastUpdate time.Time    `json:"last_update"`
}

// Banners returns every alert banner on the board in panel order. A panel's
// own banner comes before its section banners.
func (b Board) Banners() []Banner {
	var banners []Banner
	for _, group := range b.Groups {
		for _, panel := range group.Panels {
			if panel.Alert != nil {
				banners = append(banners, *panel.Alert)
			}
			for _, section := range panel.Sections {
				if section.Alert != nil {
					banners = append(banners, *section.Alert)
				}
			}
		}
	}
	return banners
}
