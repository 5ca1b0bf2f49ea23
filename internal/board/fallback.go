package board

import (
	"fmt"
	"sort"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/jusunglee/mbta-board/internal/catalog"
	"github.com/jusunglee/mbta-board/internal/models"
)

type clock struct {
	hour, minute int
}

type fallback struct {
	route      string
	direction  catalog.Direction
	headsign   string
	when       *vm.Program
	departures []clock
	rollOver   bool
}

// Fallbacks is the compiled static departure table for low-frequency routes
type Fallbacks struct {
	entries []fallback
}

// clockEnv is the environment fallback expressions are evaluated against
func clockEnv(now time.Time) map[string]any {
	weekday := now.Weekday()
	return map[string]any{
		"hour":    float64(now.Hour()) + float64(now.Minute())/60,
		"minute":  now.Minute(),
		"weekday": weekday.String(),
		"weekend": weekday == time.Saturday || weekday == time.Sunday,
	}
}

// CompileFallbacks compiles the catalog's fallback table
func CompileFallbacks(defs []catalog.FallbackSchedule) (*Fallbacks, error) {
	f := &Fallbacks{}

	for _, def := range defs {
		dir, err := catalog.ParseDirection(def.Direction)
		if err != nil {
			return nil, fmt.Errorf("fallback for route %s: %w", def.Route, err)
		}

		program, err := expr.Compile(def.When, expr.Env(clockEnv(time.Time{})), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("fallback for route %s %s: invalid when expression: %w", def.Route, def.Direction, err)
		}

		entry := fallback{
			route:     def.Route,
			direction: dir,
			headsign:  def.Headsign,
			when:      program,
			rollOver:  def.RollOver,
		}
		for _, d := range def.Departures {
			t, err := time.Parse("15:04", d)
			if err != nil {
				return nil, fmt.Errorf("fallback for route %s: invalid departure %q: %w", def.Route, d, err)
			}
			entry.departures = append(entry.departures, clock{t.Hour(), t.Minute()})
		}
		sort.Slice(entry.departures, func(i, j int) bool {
			a, b := entry.departures[i], entry.departures[j]
			return a.hour*60+a.minute < b.hour*60+b.minute
		})

		f.entries = append(f.entries, entry)
	}

	return f, nil
}

// Next returns the next static departure for a route and direction while
// the entry's expression holds at now. Once the day's departures have passed
// the first one of the next day is used if the entry rolls over.
func (f *Fallbacks) Next(route string, dir catalog.Direction, now time.Time) ([]models.Prediction, error) {
	if f == nil {
		return nil, nil
	}

	for _, e := range f.entries {
		if e.route != route || e.direction != dir {
			continue
		}

		out, err := expr.Run(e.when, clockEnv(now))
		if err != nil {
			return nil, fmt.Errorf("evaluating fallback for route %s: %w", route, err)
		}
		if active, _ := out.(bool); !active {
			continue
		}

		t, ok := e.next(now)
		if !ok {
			continue
		}

		return []models.Prediction{{
			Minutes:     t.Sub(now).Minutes(),
			Destination: e.headsign,
			Source:      models.SourceScheduled,
		}}, nil
	}

	return nil, nil
}

func (e fallback) next(now time.Time) (time.Time, bool) {
	y, m, d := now.Date()
	for _, c := range e.departures {
		t := time.Date(y, m, d, c.hour, c.minute, 0, 0, now.Location())
		if !t.Before(now) {
			return t, true
		}
	}

	if e.rollOver && len(e.departures) > 0 {
		c := e.departures[0]
		return time.Date(y, m, d+1, c.hour, c.minute, 0, 0, now.Location()), true
	}

	return time.Time{}, false
}
