package alerts

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jusunglee/mbta-board/internal/mbta"
	"github.com/jusunglee/mbta-board/internal/models"
)

func TestSelectLowestSeverity(t *testing.T) {
	alerts := []models.Alert{
		{ID: "a", Severity: 3, Routes: []string{"Green-B"}},
		{ID: "b", Severity: 7, Routes: []string{"Green-B"}},
		{ID: "c", Severity: 1, Routes: []string{"Green-B"}},
	}

	got, ok := Select(alerts, "Green-B")
	require.True(t, ok)
	assert.Equal(t, "c", got.ID)
	assert.True(t, got.High())
}

func TestSelectFiltersRoute(t *testing.T) {
	alerts := []models.Alert{
		{ID: "green", Severity: 1, Routes: []string{"Green-D"}},
		{ID: "bus", Severity: 6, Routes: []string{"51"}},
	}

	got, ok := Select(alerts, "51")
	require.True(t, ok)
	assert.Equal(t, "bus", got.ID)
	assert.False(t, got.High())

	_, ok = Select(alerts, "86")
	assert.False(t, ok)

	got, ok = Select(alerts, "")
	require.True(t, ok)
	assert.Equal(t, "green", got.ID)

	_, ok = Select(nil, "")
	assert.False(t, ok)
}

func TestSelectStopWideAlert(t *testing.T) {
	alerts := []models.Alert{
		{ID: "elevator", Severity: 7, Effect: "ACCESS_ISSUE"},
		{ID: "green", Severity: 9, Routes: []string{"Green-D"}},
	}

	got, ok := Select(alerts, "51")
	require.True(t, ok)
	assert.Equal(t, "elevator", got.ID)

	got, ok = Select(alerts, "Green-D")
	require.True(t, ok)
	assert.Equal(t, "elevator", got.ID, "lower severity value wins")
}

func TestSelectTieKeepsFirst(t *testing.T) {
	alerts := []models.Alert{
		{ID: "first", Severity: 4},
		{ID: "second", Severity: 4},
	}
	got, _ := Select(alerts, "")
	assert.Equal(t, "first", got.ID)
}

func TestIcon(t *testing.T) {
	tests := map[string]string{
		"DELAY":           "⏱️",
		"cancellation":    "❌",
		"SUSPENSION":      "⏸️",
		"TRACK_CHANGE":    "🔄",
		"DETOUR":          "↩️",
		"SHUTTLE":         "🚌",
		"STATION_CLOSURE": DefaultIcon,
		"":                DefaultIcon,
	}
	for effect, want := range tests {
		assert.Equal(t, want, Icon(effect), effect)
	}
}

func TestFromDocument(t *testing.T) {
	body := `{
  "data": [
    {
      "id": "100",
      "type": "alert",
      "attributes": {
        "severity": 5,
        "effect": "SHUTTLE",
        "header": "Shuttle buses replace Green Line D trains",
        "description": "Use shuttle buses at Reservoir.",
        "informed_entity": [{"route": "Green-D", "stop": "place-rsmnl"}, {"route": "Green-D", "stop": "70110"}]
      }
    },
    {
      "id": "200",
      "type": "alert",
      "attributes": {"severity": 3, "effect": "DETOUR", "header": "Route 51 detour"},
      "relationships": {
        "informed_entity": {"data": [{"type": "route", "id": "51"}, {"type": "stop", "id": "place-rsmnl"}]}
      }
    }
  ]
}`
	var doc mbta.Document
	require.NoError(t, json.Unmarshal([]byte(body), &doc))

	got := FromDocument(&doc)
	require.Len(t, got, 2)

	assert.Equal(t, []string{"Green-D"}, got[0].Routes)
	assert.Equal(t, []string{"place-rsmnl", "70110"}, got[0].Stops)
	assert.Equal(t, "Use shuttle buses at Reservoir.", got[0].Description)

	assert.Equal(t, []string{"51"}, got[1].Routes)
	assert.Equal(t, []string{"place-rsmnl"}, got[1].Stops)

	// Reservoir is shared by Green-D and bus 51; each panel sees its own alert
	d, ok := Select(got, "Green-D")
	require.True(t, ok)
	assert.Equal(t, "100", d.ID)

	bus, ok := Select(got, "51")
	require.True(t, ok)
	assert.Equal(t, "200", bus.ID)

	assert.Empty(t, FromDocument(nil))
}

func TestBanner(t *testing.T) {
	doc := mbta.MockDocument([]mbta.Resource{
		mbta.MockAlert("1", 7, "DELAY", "Minor delays", "86"),
		mbta.MockAlert("2", 2, "SUSPENSION", "No service", "Green-B"),
	})
	alerts := FromDocument(doc)

	b := Banner(alerts, "86", "Outbound")
	require.NotNil(t, b)
	assert.Equal(t, models.Banner{
		Direction: "Outbound",
		Severity:  7,
		High:      false,
		Effect:    "delay",
		Icon:      "⏱️",
		Header:    "Minor delays",
	}, *b)

	b = Banner(alerts, "Green-B", "Inbound")
	require.NotNil(t, b)
	assert.True(t, b.High)
	assert.Equal(t, "⏸️", b.Icon)

	assert.Nil(t, Banner(alerts, "501", "Outbound"))
}
