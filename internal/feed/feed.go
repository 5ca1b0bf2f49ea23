package feed

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/panics"

	"github.com/jusunglee/mbta-board/internal/board"
	"github.com/jusunglee/mbta-board/internal/catalog"
	"github.com/jusunglee/mbta-board/internal/store"
)

// DefaultUpdateInterval is the period between poll cycles
const DefaultUpdateInterval = 15 * time.Second

// Mode selects which groups a cycle refreshes
type Mode string

const (
	// ModeAll refreshes every group each cycle
	ModeAll Mode = "all"
	// ModeKiosk shows one group at a time, rotating each cycle
	ModeKiosk Mode = "kiosk"
)

// Manager runs the fetch and render pipeline on a fixed interval
type Manager struct {
	catalog        *catalog.Catalog
	source         Source
	builder        *board.Builder
	store          *store.Store
	updateInterval time.Duration
	mode           Mode
	now            func() time.Time

	running atomic.Bool
	// rotation state, only touched by the cycle holding running
	next   int
	active string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a new feed manager
func NewManager(c *catalog.Catalog, source Source, builder *board.Builder, s *store.Store, updateInterval time.Duration, mode Mode) *Manager {
	if updateInterval <= 0 {
		updateInterval = DefaultUpdateInterval
	}
	if mode == "" {
		mode = ModeAll
	}
	return &Manager{
		catalog:        c,
		source:         source,
		builder:        builder,
		store:          s,
		updateInterval: updateInterval,
		mode:           mode,
		now:            time.Now,
	}
}

// Start begins the feed update loop. The first cycle runs immediately.
func (m *Manager) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	m.wg.Add(1)
	go m.updateLoop(ctx)
}

// Stop stops the feed update loop and waits for in-flight cycles
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

func (m *Manager) updateLoop(ctx context.Context) {
	defer m.wg.Done()

	m.tickAsync(ctx)

	ticker := time.NewTicker(m.updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.tickAsync(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// tickAsync lets a slow cycle overlap the next tick, which Tick then skips
func (m *Manager) tickAsync(ctx context.Context) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.Tick(ctx)
	}()
}

// Tick runs one cycle unless another is still in flight. It reports whether
// the cycle ran. A skipped tick does not advance kiosk rotation.
func (m *Manager) Tick(ctx context.Context) bool {
	if !m.running.CompareAndSwap(false, true) {
		log.Debug().Msg("Previous update still running, skipping tick")
		return false
	}
	defer m.running.Store(false)

	cycle := uuid.NewString()
	logger := log.With().Str("cycle", cycle).Logger()
	ctx = logger.WithContext(ctx)

	var pc panics.Catcher
	pc.Try(func() {
		m.update(ctx, m.rotate())
	})
	if r := pc.Recovered(); r != nil {
		logger.Error().Err(r.AsError()).Msg("Update panicked")
	}

	return true
}

// rotate returns the groups to refresh this cycle. In kiosk mode it clears
// the previously shown group and activates the next one.
func (m *Manager) rotate() []string {
	groups := m.catalog.GroupNames()
	if m.mode != ModeKiosk || len(groups) == 0 {
		return groups
	}

	group := groups[m.next%len(groups)]
	m.next++

	if m.active != "" && m.active != group {
		m.store.ClearGroup(m.active)
	}
	m.active = group
	m.store.SetActive(group)

	return []string{group}
}

func (m *Manager) update(ctx context.Context, groups []string) {
	began := time.Now()
	logger := log.Ctx(ctx)

	snap := store.NewSnapshot(m.now())

	var (
		stops    []catalog.TrackedStop
		stations []catalog.TrackedBikeStation
	)
	for _, g := range groups {
		stops = append(stops, m.catalog.StopsIn(g)...)
		stations = append(stations, m.catalog.StationsIn(g)...)
	}

	m.source.Fetch(ctx, stops, stations, snap)

	if ctx.Err() != nil {
		logger.Debug().Msg("Update cancelled")
		return
	}

	for _, g := range groups {
		m.store.UpdateGroup(m.builder.Build(g, snap))
	}

	logger.Info().
		Strs("groups", groups).
		Int("failures", snap.Failures()).
		Dur("duration", time.Since(began)).
		Msg("Board updated")
}
