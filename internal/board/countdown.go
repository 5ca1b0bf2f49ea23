package board

import (
	"fmt"
	"math"

	"github.com/jusunglee/mbta-board/internal/models"
)

// StoppedText replaces the countdown of a vehicle stopped at the platform
const StoppedText = "At station"

// FormatCountdown renders minutes until arrival
func FormatCountdown(minutes float64) string {
	if minutes <= 0 {
		return "Now"
	}
	if minutes < 2 {
		return "1 min"
	}
	return fmt.Sprintf("%d min", int(math.Floor(minutes)))
}

// Imminent reports whether a row gets the arriving style
func Imminent(minutes float64) bool {
	return minutes <= 1
}

func row(p models.Prediction) models.Row {
	r := models.Row{
		Countdown:   FormatCountdown(p.Minutes),
		Destination: p.Destination,
		Minutes:     p.Minutes,
		Live:        p.Live(),
		Imminent:    Imminent(p.Minutes),
	}
	if p.Status == models.StatusStopped {
		r.Countdown = StoppedText
		r.Stopped = true
	}
	return r
}
