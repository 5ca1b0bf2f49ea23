package dashboard

import (
	"time"

	"github.com/jusunglee/mbta-board/internal/models"
)

// Client defines the interface for reading the rendered board.
// Handlers and the CLIs depend on this rather than on the pipeline.
type Client interface {
	GetBoard() (models.Board, error)
	GetGroup(name string) (models.GroupBoard, error)
	GetPanels(ids []string) ([]models.Panel, error)
	GetAlerts() ([]models.Banner, error)

	GetLastUpdate() time.Time

	// RefreshInterval is how often the kiosk page should reload
	RefreshInterval() time.Duration
	// Location is the board's local time zone
	Location() *time.Location
}
