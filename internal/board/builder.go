// Package board renders panels from the raw results of a poll cycle
package board

import (
	"github.com/rs/zerolog/log"

	"github.com/jusunglee/mbta-board/internal/alerts"
	"github.com/jusunglee/mbta-board/internal/catalog"
	"github.com/jusunglee/mbta-board/internal/models"
	"github.com/jusunglee/mbta-board/internal/predict"
	"github.com/jusunglee/mbta-board/internal/store"
)

const (
	// NoBikesText is shown for stations missing from the feed
	NoBikesText = "No bikes"

	busStoppedLabel = "Bus at stop"
)

// Builder turns a snapshot into rendered panels. One builder serves every
// cycle; it holds no per-cycle state.
type Builder struct {
	catalog   *catalog.Catalog
	fallbacks *Fallbacks
}

// NewBuilder creates a builder for the catalog, compiling its fallback table
func NewBuilder(c *catalog.Catalog) (*Builder, error) {
	fallbacks, err := CompileFallbacks(c.Fallbacks)
	if err != nil {
		return nil, err
	}
	return &Builder{catalog: c, fallbacks: fallbacks}, nil
}

// Build renders every panel of a group
func (b *Builder) Build(group string, snap *store.Snapshot) models.GroupBoard {
	board := models.GroupBoard{
		Name:      group,
		Panels:    []models.Panel{},
		UpdatedAt: snap.Now,
	}
	if g, ok := b.catalog.Group(group); ok {
		board.Title = g.Title
	}

	for _, stop := range b.catalog.StopsIn(group) {
		board.Panels = append(board.Panels, b.StopPanel(stop, snap))
	}
	for _, station := range b.catalog.StationsIn(group) {
		board.Panels = append(board.Panels, b.BikePanel(station, snap))
	}

	return board
}

// StopPanel renders a train stop or bus route. Each leg shows live
// predictions, else its published schedule, else a static fallback; legs
// with none of these are left out.
func (b *Builder) StopPanel(stop catalog.TrackedStop, snap *store.Snapshot) models.Panel {
	panel := models.Panel{
		ID:       stop.Panel,
		Kind:     string(stop.Kind),
		Name:     stop.Name,
		Location: stop.Location,
		Route:    stop.Route,
	}

	for _, leg := range stop.Legs() {
		records, source := b.legRecords(stop, leg, snap)
		if len(records) == 0 {
			continue
		}
		records = predict.Head(records, stop.Rows())

		section := models.Section{
			Direction:   leg.Direction.String(),
			Label:       leg.Label,
			Destination: records[0].Destination,
			Source:      source,
			Alert:       alerts.Banner(snap.Alerts(leg.StopID), stop.Route, leg.Direction.Label()),
			Rows:        make([]models.Row, 0, len(records)),
		}
		for _, p := range records {
			section.Rows = append(section.Rows, row(p))
		}

		panel.Sections = append(panel.Sections, section)
	}

	panel.Unavailable = unavailable(stop, snap)

	if len(panel.Sections) == 0 {
		panel.Empty = true
		panel.EmptyText = stop.NoServiceText()
		panel.Alert = alerts.Banner(snap.Alerts(stop.StopID), stop.Route, "")

		if panel.Unavailable {
			log.Debug().Str("panel", stop.Panel).Msg("No service shown while data is unavailable")
		}
	}

	return panel
}

func (b *Builder) legRecords(stop catalog.TrackedStop, leg catalog.Leg, snap *store.Snapshot) ([]models.Prediction, models.SectionSource) {
	opts := predict.Options{
		Live:         true,
		LowFrequency: stop.LowFrequency,
		Now:          snap.Now,
	}
	if stop.Kind == catalog.KindBus {
		opts.StoppedLabel = busStoppedLabel
	}

	live := predict.Normalize(snap.Payload(store.LegKey(stop, leg, store.KindPredictions)), opts)
	if len(live) > 0 {
		return live, models.SectionLive
	}

	if leg.Schedule != nil {
		opts.Live = false
		scheduled := predict.Normalize(snap.Payload(store.LegKey(stop, leg, store.KindSchedules)), opts)
		if len(scheduled) > 0 {
			return scheduled, models.SectionSchedule
		}
	}

	fallback, err := b.fallbacks.Next(stop.Route, leg.Direction, snap.Now.In(b.catalog.Location()))
	if err != nil {
		log.Warn().Err(err).Str("panel", stop.Panel).Str("route", stop.Route).Msg("Fallback schedule failed")
		return nil, ""
	}
	if len(fallback) > 0 {
		return fallback, models.SectionFallback
	}

	return nil, ""
}

// BikePanel renders a bike-share station
func (b *Builder) BikePanel(station catalog.TrackedBikeStation, snap *store.Snapshot) models.Panel {
	panel := models.Panel{
		ID:       station.Panel,
		Kind:     string(catalog.KindBike),
		Name:     station.Name,
		Location: station.Location,
	}

	bikes, ok := snap.Bikes(station.StationID)
	if !ok {
		panel.Empty = true
		panel.EmptyText = NoBikesText
		panel.Unavailable = snap.BikesFailed()
		return panel
	}

	panel.Bikes = &bikes
	return panel
}

// unavailable reports whether any fetch behind the panel failed
func unavailable(stop catalog.TrackedStop, snap *store.Snapshot) bool {
	for _, leg := range stop.Legs() {
		if snap.Status(store.LegKey(stop, leg, store.KindPredictions)) == store.StatusFailed {
			return true
		}
		if leg.Schedule != nil && snap.Status(store.LegKey(stop, leg, store.KindSchedules)) == store.StatusFailed {
			return true
		}
	}
	for _, id := range stop.StopIDs() {
		if snap.AlertsFailed(id) {
			return true
		}
	}
	return false
}
