// Package alerts converts upstream alerts and picks the one shown for a route
package alerts

import (
	"strings"

	"github.com/jusunglee/mbta-board/internal/mbta"
	"github.com/jusunglee/mbta-board/internal/models"
)

// DefaultIcon is used for effects without a dedicated icon
const DefaultIcon = "⚠️"

var icons = map[string]string{
	"delay":        "⏱️",
	"cancellation": "❌",
	"suspension":   "⏸️",
	"track_change": "🔄",
	"detour":       "↩️",
	"shuttle":      "🚌",
}

// Icon returns the banner icon for an alert effect
func Icon(effect string) string {
	if icon, ok := icons[strings.ToLower(effect)]; ok {
		return icon
	}
	return DefaultIcon
}

// FromDocument converts JSON:API alert resources. Informed entities are read
// from both the informed_entity attribute and relationship.
func FromDocument(doc *mbta.Document) []models.Alert {
	if doc.Empty() {
		return nil
	}

	alerts := make([]models.Alert, 0, len(doc.Data))
	for _, r := range doc.Data {
		attrs := r.Attributes
		a := models.Alert{
			ID:       r.ID,
			Severity: attrs.Severity,
			Effect:   attrs.Effect,
			Header:   attrs.Header,
		}
		if attrs.Description != nil {
			a.Description = *attrs.Description
		}

		for _, ie := range attrs.InformedEntity {
			if ie.Route != "" {
				a.Routes = appendUnique(a.Routes, ie.Route)
			}
			if ie.Stop != "" {
				a.Stops = appendUnique(a.Stops, ie.Stop)
			}
		}
		for _, id := range r.Relationships["informed_entity"].Data {
			switch id.Type {
			case "route":
				a.Routes = appendUnique(a.Routes, id.ID)
			case "stop":
				a.Stops = appendUnique(a.Stops, id.ID)
			}
		}

		alerts = append(alerts, a)
	}

	return alerts
}

// Select returns the most severe alert (lowest severity value) that informs
// the route. An empty route matches every alert, and an alert naming no
// route informs every route. Ties keep the earliest.
func Select(alerts []models.Alert, route string) (models.Alert, bool) {
	var (
		best  models.Alert
		found bool
	)
	for _, a := range alerts {
		if route != "" && !informs(a, route) {
			continue
		}
		if !found || a.Severity < best.Severity {
			best = a
			found = true
		}
	}
	return best, found
}

// Banner selects an alert for the route and formats it for a direction.
// It returns nil when nothing applies.
func Banner(alerts []models.Alert, route, direction string) *models.Banner {
	a, ok := Select(alerts, route)
	if !ok {
		return nil
	}
	return &models.Banner{
		Direction:   direction,
		Severity:    a.Severity,
		High:        a.High(),
		Effect:      strings.ToLower(a.Effect),
		Icon:        Icon(a.Effect),
		Header:      a.Header,
		Description: a.Description,
	}
}

func informs(a models.Alert, route string) bool {
	if len(a.Routes) == 0 {
		return true
	}
	for _, r := range a.Routes {
		if r == route {
			return true
		}
	}
	return false
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
