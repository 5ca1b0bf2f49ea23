package board

import (
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/jusunglee/mbta-board/internal/models"
)

const (
	LiveIcon     = "📡"
	ScheduleIcon = "🕐"
)

//go:embed templates/board.html
var templates embed.FS

var page = template.Must(template.ParseFS(templates, "templates/board.html"))

type pageData struct {
	Board        models.Board
	Refresh      int
	Updated      string
	LiveIcon     string
	ScheduleIcon string
}

// RenderHTML writes the kiosk page for a board. The page reloads itself
// every refresh interval.
func RenderHTML(w io.Writer, board models.Board, refresh time.Duration, loc *time.Location) error {
	seconds := int(refresh.Seconds())
	if seconds <= 0 {
		seconds = 15
	}

	updated := "never"
	if !board.LastUpdate.IsZero() {
		if loc == nil {
			loc = time.Local
		}
		updated = board.LastUpdate.In(loc).Format("3:04:05 PM")
	}

	return page.Execute(w, pageData{
		Board:        board,
		Refresh:      seconds,
		Updated:      updated,
		LiveIcon:     LiveIcon,
		ScheduleIcon: ScheduleIcon,
	})
}
