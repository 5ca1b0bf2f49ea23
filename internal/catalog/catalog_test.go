package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []string{"green", "bus", "bikes"}, c.GroupNames())
	assert.Len(t, c.StopsIn("green"), 3)
	assert.Len(t, c.StopsIn("bus"), 3)
	assert.Len(t, c.StationsIn("bikes"), 3)
	assert.Len(t, c.Fallbacks, 2)
	assert.Equal(t, "America/New_York", c.Location().String())
}

func TestLegs(t *testing.T) {
	t.Run("through stop with inbound platform", func(t *testing.T) {
		s := TrackedStop{Kind: KindTrain, StopID: "70111", InboundID: "70112", Route: "Green-B"}
		legs := s.Legs()
		require.Len(t, legs, 2)

		assert.Equal(t, Outbound, legs[0].Direction)
		assert.Equal(t, "70111", legs[0].StopID)
		assert.True(t, legs[0].FilterDirection)
		assert.Equal(t, "Outbound", legs[0].Label)

		assert.Equal(t, Inbound, legs[1].Direction)
		assert.Equal(t, "70112", legs[1].StopID)
	})

	t.Run("terminal", func(t *testing.T) {
		s := TrackedStop{Kind: KindTrain, StopID: "place-clmnl", Terminal: true}
		legs := s.Legs()
		require.Len(t, legs, 2)
		assert.Equal(t, "place-clmnl", legs[1].StopID)
	})

	t.Run("single direction bus", func(t *testing.T) {
		s := TrackedStop{Kind: KindBus, StopID: "place-rsmnl", Route: "51"}
		legs := s.Legs()
		require.Len(t, legs, 1)
		assert.False(t, legs[0].FilterDirection)
	})

	t.Run("custom labels", func(t *testing.T) {
		s := TrackedStop{Kind: KindBus, StopID: "1030", InboundID: "1085", OutboundLabel: "Strathmore Rd", InboundLabel: "Embassy Rd"}
		legs := s.Legs()
		require.Len(t, legs, 2)
		assert.Equal(t, "Strathmore Rd", legs[0].Label)
		assert.Equal(t, "Embassy Rd", legs[1].Label)
	})
}

func TestStopDefaults(t *testing.T) {
	train := TrackedStop{Kind: KindTrain}
	bus := TrackedStop{Kind: KindBus}

	assert.Equal(t, 4, train.Rows())
	assert.Equal(t, 2, bus.Rows())
	assert.Equal(t, 3, TrackedStop{Kind: KindBus, MaxRows: 3}.Rows())

	assert.Equal(t, "No trains running", train.NoServiceText())
	assert.Equal(t, "No buses", bus.NoServiceText())
	assert.Equal(t, "No buses scheduled", TrackedStop{Kind: KindBus, EmptyText: "No buses scheduled"}.NoServiceText())

	assert.Equal(t, []string{"1030", "1085"}, TrackedStop{StopID: "1030", InboundID: "1085"}.StopIDs())
	assert.Equal(t, []string{"place-clmnl"}, TrackedStop{StopID: "place-clmnl", InboundID: "place-clmnl"}.StopIDs())
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("inbound")
	require.NoError(t, err)
	assert.Equal(t, Inbound, d)

	d, err = ParseDirection("0")
	require.NoError(t, err)
	assert.Equal(t, Outbound, d)

	_, err = ParseDirection("north")
	assert.Error(t, err)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no groups", "stops: []\n"},
		{"bad kind", `
groups: [{name: g}]
stops:
  - {panel: p, group: g, name: P, kind: tram, stop_id: "1", route: r}
`},
		{"unknown group", `
groups: [{name: g}]
stops:
  - {panel: p, group: other, name: P, kind: bus, stop_id: "1", route: r}
`},
		{"duplicate panel", `
groups: [{name: g}]
stops:
  - {panel: p, group: g, name: P, kind: bus, stop_id: "1", route: r}
bike_stations:
  - {panel: p, group: g, name: B, station_id: "9"}
`},
		{"bad departure", `
groups: [{name: g}]
fallbacks:
  - {route: r, direction: outbound, headsign: H, when: "true", departures: ["4pm"]}
`},
		{"unknown field", `
groups: [{name: g}]
colour: green
`},
		{"bad timezone", `
timezone: Mars/Olympus
groups: [{name: g}]
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	err := os.WriteFile(path, []byte(`
timezone: UTC
groups: [{name: bus, title: Buses}]
stops:
  - {panel: bus-1, group: bus, name: Route 1, kind: bus, stop_id: "64", route: "1"}
`), 0o644)
	require.NoError(t, err)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "UTC", c.Location().String())

	g, ok := c.Group("bus")
	assert.True(t, ok)
	assert.Equal(t, "Buses", g.Title)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
