package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/jusunglee/mbta-board/internal/bikes"
	"github.com/jusunglee/mbta-board/internal/board"
	"github.com/jusunglee/mbta-board/internal/catalog"
	"github.com/jusunglee/mbta-board/internal/feed"
	"github.com/jusunglee/mbta-board/internal/gtfsrt"
	"github.com/jusunglee/mbta-board/internal/mbta"
	"github.com/jusunglee/mbta-board/internal/models"
	"github.com/jusunglee/mbta-board/internal/store"
)

// LocalClient implements the Client interface in process.
// It owns the store and the background feed manager.
type LocalClient struct {
	config      Config
	catalog     *catalog.Catalog
	store       *store.Store
	feedManager *feed.Manager
}

// NewLocal creates a local client and starts background updates
func NewLocal(config Config) (*LocalClient, error) {
	c, err := New(config)
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

// New creates a local client wired to the live upstream APIs without
// starting it
func New(config Config) (*LocalClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	cat, err := catalog.Load(config.CatalogPath)
	if err != nil {
		return nil, err
	}

	return NewWithSource(config, cat, NewSource(config, cat))
}

// NewWithSource creates a local client that fetches through source
func NewWithSource(config Config, cat *catalog.Catalog, source feed.Source) (*LocalClient, error) {
	builder, err := board.NewBuilder(cat)
	if err != nil {
		return nil, err
	}

	mode := feed.ModeAll
	if config.Kiosk {
		mode = feed.ModeKiosk
	}

	s := store.NewStore(cat.GroupNames())
	fm := feed.NewManager(cat, source, builder, s, config.UpdateInterval, mode)

	return &LocalClient{
		config:      config,
		catalog:     cat,
		store:       s,
		feedManager: fm,
	}, nil
}

// NewSource wires the upstream clients for a catalog
func NewSource(config Config, cat *catalog.Catalog) *feed.Fetcher {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	opts := feed.FetcherOptions{
		RequestTimeout: config.RequestTimeout,
		Concurrency:    config.MaxConcurrent,
		Location:       cat.Location(),
	}
	if config.AlertsSource == AlertsGTFSRT {
		opts.AlertFeed = gtfsrt.NewClient(config.AlertsFeedURL, httpClient)
	}

	return feed.NewFetcher(
		mbta.NewClient(config.BaseURL, config.APIKey, httpClient),
		bikes.NewClient(config.BikesFeedURL, httpClient),
		opts,
	)
}

// Start begins background updates
func (c *LocalClient) Start() {
	c.feedManager.Start()
}

// Refresh runs one update cycle in the caller's goroutine. It reports
// false when a cycle was already in flight.
func (c *LocalClient) Refresh(ctx context.Context) bool {
	return c.feedManager.Tick(ctx)
}

// Close gracefully shuts down the local client.
// Must be called to stop background goroutines.
func (c *LocalClient) Close() {
	c.feedManager.Stop()
}

// Catalog returns the loaded catalog
func (c *LocalClient) Catalog() *catalog.Catalog {
	return c.catalog
}

func (c *LocalClient) GetBoard() (models.Board, error) {
	return c.store.GetBoard(), nil
}

func (c *LocalClient) GetGroup(name string) (models.GroupBoard, error) {
	return c.store.GetGroup(name)
}

func (c *LocalClient) GetPanels(ids []string) ([]models.Panel, error) {
	return c.store.GetPanels(ids)
}

func (c *LocalClient) GetAlerts() ([]models.Banner, error) {
	return c.store.GetAlerts(), nil
}

func (c *LocalClient) GetLastUpdate() time.Time {
	return c.store.GetLastUpdate()
}

func (c *LocalClient) RefreshInterval() time.Duration {
	return c.config.UpdateInterval
}

func (c *LocalClient) Location() *time.Location {
	return c.catalog.Location()
}
