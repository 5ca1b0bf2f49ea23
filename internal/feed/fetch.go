package feed

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jusunglee/mbta-board/internal/alerts"
	"github.com/jusunglee/mbta-board/internal/bikes"
	"github.com/jusunglee/mbta-board/internal/catalog"
	"github.com/jusunglee/mbta-board/internal/gtfsrt"
	"github.com/jusunglee/mbta-board/internal/mbta"
	"github.com/jusunglee/mbta-board/internal/models"
	"github.com/jusunglee/mbta-board/internal/store"
)

const (
	DefaultRequestTimeout = 5 * time.Second
	DefaultConcurrency    = 8
)

// TransitAPI is the subset of the v3 API the fetcher calls
type TransitAPI interface {
	Predictions(ctx context.Context, q mbta.PredictionQuery) (*mbta.Document, error)
	Schedules(ctx context.Context, q mbta.ScheduleQuery) (*mbta.Document, error)
	Alerts(ctx context.Context, stop string) (*mbta.Document, error)
}

// BikeFeed returns the bike-share station_status feed
type BikeFeed interface {
	StationStatus(ctx context.Context) (*bikes.Feed, error)
}

// AlertFeed returns every alert from a single feed
type AlertFeed interface {
	Alerts(ctx context.Context) ([]models.Alert, error)
}

// Source fills a snapshot with everything a set of panels needs
type Source interface {
	Fetch(ctx context.Context, stops []catalog.TrackedStop, stations []catalog.TrackedBikeStation, snap *store.Snapshot)
}

// FetcherOptions tunes a Fetcher
type FetcherOptions struct {
	// AlertFeed replaces per-stop alert requests when set
	AlertFeed      AlertFeed
	RequestTimeout time.Duration
	Concurrency    int
	Location       *time.Location
}

// Fetcher issues all requests of a cycle concurrently. Failures are logged
// and recorded in the snapshot; they never abort the cycle.
type Fetcher struct {
	transit   TransitAPI
	bikes     BikeFeed
	alertFeed AlertFeed
	timeout   time.Duration
	limit     int
	loc       *time.Location
}

// NewFetcher creates a fetcher
func NewFetcher(transit TransitAPI, bikeFeed BikeFeed, opts FetcherOptions) *Fetcher {
	f := &Fetcher{
		transit:   transit,
		bikes:     bikeFeed,
		alertFeed: opts.AlertFeed,
		timeout:   opts.RequestTimeout,
		limit:     opts.Concurrency,
		loc:       opts.Location,
	}
	if f.timeout <= 0 {
		f.timeout = DefaultRequestTimeout
	}
	if f.limit <= 0 {
		f.limit = DefaultConcurrency
	}
	if f.loc == nil {
		f.loc = time.Local
	}
	return f
}

// Fetch requests predictions for every leg, schedules for legs that declare
// one, alerts for every distinct stop and the bike feed when stations are
// tracked. It returns once every request has completed or timed out.
func (f *Fetcher) Fetch(ctx context.Context, stops []catalog.TrackedStop, stations []catalog.TrackedBikeStation, snap *store.Snapshot) {
	var g errgroup.Group
	g.SetLimit(f.limit)

	seen := make(map[string]bool)
	var alertStops []string

	for _, stop := range stops {
		for _, leg := range stop.Legs() {
			g.Go(func() error {
				f.fetchPredictions(ctx, stop, leg, snap)
				return nil
			})
			if leg.Schedule != nil {
				g.Go(func() error {
					f.fetchSchedules(ctx, stop, leg, snap)
					return nil
				})
			}
			if !seen[leg.StopID] {
				seen[leg.StopID] = true
				alertStops = append(alertStops, leg.StopID)
			}
		}
	}

	if f.alertFeed != nil {
		if len(alertStops) > 0 {
			g.Go(func() error {
				f.fetchAlertFeed(ctx, alertStops, snap)
				return nil
			})
		}
	} else {
		for _, id := range alertStops {
			g.Go(func() error {
				f.fetchAlerts(ctx, id, snap)
				return nil
			})
		}
	}

	if len(stations) > 0 && f.bikes != nil {
		g.Go(func() error {
			f.fetchBikes(ctx, stations, snap)
			return nil
		})
	}

	_ = g.Wait()
}

func (f *Fetcher) fetchPredictions(ctx context.Context, stop catalog.TrackedStop, leg catalog.Leg, snap *store.Snapshot) {
	key := store.LegKey(stop, leg, store.KindPredictions)
	q := mbta.PredictionQuery{Stop: leg.StopID, Route: stop.Route}
	if leg.FilterDirection {
		dir := int(leg.Direction)
		q.Direction = &dir
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	doc, err := f.transit.Predictions(ctx, q)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key.String()).Msg("Failed to fetch predictions")
	}
	snap.SetPayload(key, doc, err)
}

func (f *Fetcher) fetchSchedules(ctx context.Context, stop catalog.TrackedStop, leg catalog.Leg, snap *store.Snapshot) {
	key := store.LegKey(stop, leg, store.KindSchedules)
	q := ScheduleQuery(stop, leg, snap.Now.In(f.loc))

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	doc, err := f.transit.Schedules(ctx, q)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key.String()).Msg("Failed to fetch schedules")
	}
	snap.SetPayload(key, doc, err)
}

func (f *Fetcher) fetchAlerts(ctx context.Context, stopID string, snap *store.Snapshot) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	doc, err := f.transit.Alerts(ctx, stopID)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("stop", stopID).Msg("Failed to fetch alerts")
	}
	snap.SetAlerts(stopID, alerts.FromDocument(doc), err)
}

func (f *Fetcher) fetchAlertFeed(ctx context.Context, stopIDs []string, snap *store.Snapshot) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	all, err := f.alertFeed.Alerts(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to fetch alerts feed")
	}
	for _, id := range stopIDs {
		snap.SetAlerts(id, gtfsrt.ForStop(all, id), err)
	}
}

func (f *Fetcher) fetchBikes(ctx context.Context, stations []catalog.TrackedBikeStation, snap *store.Snapshot) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	feed, err := f.bikes.StationStatus(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Failed to fetch bike availability")
		snap.SetBikes(nil, err)
		return
	}

	ids := make([]string, len(stations))
	for i, s := range stations {
		ids[i] = s.StationID
	}
	snap.SetBikes(feed.Lookup(ids), nil)
}

// ScheduleQuery builds the schedules request for a leg. now must be in the
// catalog's local time zone.
func ScheduleQuery(stop catalog.TrackedStop, leg catalog.Leg, now time.Time) mbta.ScheduleQuery {
	dir := int(leg.Direction)
	q := mbta.ScheduleQuery{
		Stop:      leg.StopID,
		Route:     stop.Route,
		Direction: &dir,
	}

	switch leg.Schedule.Window {
	case catalog.WindowTomorrow:
		y, m, d := now.Date()
		q.MinTime = time.Date(y, m, d+1, 3, 0, 0, 0, now.Location())
		q.MaxTime = q.MinTime.AddDate(0, 0, 1)
	case catalog.WindowUpcoming:
		q.MinTime = now
	}
	q.Limit = leg.Schedule.Limit

	return q
}
