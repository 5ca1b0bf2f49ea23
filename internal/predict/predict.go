// Package predict turns JSON:API prediction and schedule documents into
// ordered, windowed arrival records
package predict

import (
	"sort"
	"time"

	"github.com/jusunglee/mbta-board/internal/mbta"
	"github.com/jusunglee/mbta-board/internal/models"
)

const (
	// Ceiling is the furthest-out arrival shown, in minutes
	Ceiling = 120
	// LowFrequencyCeiling applies to routes with sparse service
	LowFrequencyCeiling = 240

	// DefaultStoppedLabel replaces a missing headsign for stopped vehicles
	DefaultStoppedLabel = "Train at station"
)

var stoppedStatuses = map[string]bool{
	"Stopped":            true,
	"Stopped at station": true,
}

// Options controls how a document is normalized
type Options struct {
	// Live marks records as live predictions rather than published schedule
	Live         bool
	LowFrequency bool
	Now          time.Time
	StoppedLabel string
}

// Normalize converts a document into records sorted ascending by minutes.
// Records outside [0, ceiling] or without a headsign are dropped; stopped
// vehicles are always kept at minute 0. A nil document yields nothing.
func Normalize(doc *mbta.Document, opts Options) []models.Prediction {
	if doc.Empty() {
		return nil
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	stoppedLabel := opts.StoppedLabel
	if stoppedLabel == "" {
		stoppedLabel = DefaultStoppedLabel
	}
	ceiling := float64(Ceiling)
	if opts.LowFrequency {
		ceiling = LowFrequencyCeiling
	}
	source := models.SourceScheduled
	if opts.Live {
		source = models.SourceLive
	}

	trips := doc.Trips()
	records := make([]models.Prediction, 0, len(doc.Data))

	for _, r := range doc.Data {
		attrs := r.Attributes
		headsign := trips[r.TripID()].Headsign

		if attrs.Status != nil && stoppedStatuses[*attrs.Status] {
			dest := headsign
			if dest == "" {
				dest = stoppedLabel
			}
			records = append(records, models.Prediction{
				Minutes:              0,
				Destination:          dest,
				Source:               models.SourceLive,
				Status:               models.StatusStopped,
				ScheduleRelationship: value(attrs.ScheduleRelationship),
			})
			continue
		}

		t, ok := timestamp(attrs)
		if !ok {
			continue
		}

		minutes := t.Sub(now).Minutes()
		if minutes < 0 || minutes > ceiling {
			continue
		}
		if headsign == "" {
			continue
		}

		records = append(records, models.Prediction{
			Minutes:              minutes,
			Destination:          headsign,
			Source:               source,
			ScheduleRelationship: value(attrs.ScheduleRelationship),
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Minutes < records[j].Minutes
	})

	return records
}

// Head returns at most n leading records
func Head(records []models.Prediction, n int) []models.Prediction {
	if n < 0 {
		n = 0
	}
	if len(records) > n {
		return records[:n]
	}
	return records
}

// timestamp prefers departure over arrival. Unparsable times count as absent.
func timestamp(attrs mbta.Attributes) (time.Time, bool) {
	raw := attrs.DepartureTime
	if raw == nil || *raw == "" {
		raw = attrs.ArrivalTime
	}
	if raw == nil || *raw == "" {
		return time.Time{}, false
	}

	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
