package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kr/pretty"
	"github.com/rodaine/table"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/jusunglee/mbta-board/internal/board"
	"github.com/jusunglee/mbta-board/internal/models"
	"github.com/jusunglee/mbta-board/pkg/dashboard"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(zerolog.WarnLevel)
	if os.Getenv("BOARD_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	}

	app := &cli.App{
		Name:  "mbta-board-local",
		Usage: "fetch the board once and print it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "MBTA v3 API key",
				EnvVars: []string{"MBTA_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "catalog",
				Usage:   "YAML catalog of stops and stations (default: built-in)",
				EnvVars: []string{"BOARD_CATALOG"},
			},
			&cli.StringFlag{
				Name:  "group",
				Usage: "only print this group",
			},
			&cli.BoolFlag{
				Name:  "dump",
				Usage: "pretty-print the rendered board structure instead of tables",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func run(c *cli.Context) error {
	config, err := dashboard.ConfigFromEnv()
	if err != nil {
		return err
	}
	if c.IsSet("api-key") {
		config.APIKey = c.String("api-key")
	}
	if c.IsSet("catalog") {
		config.CatalogPath = c.String("catalog")
	}

	client, err := dashboard.New(config)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, time.Minute)
	defer cancel()
	client.Refresh(ctx)

	b, err := client.GetBoard()
	if err != nil {
		return err
	}

	if name := c.String("group"); name != "" {
		g, err := client.GetGroup(name)
		if err != nil {
			return err
		}
		b.Groups = []models.GroupBoard{g}
	}

	if c.Bool("dump") {
		pretty.Println(b)
		return nil
	}

	printBoard(os.Stdout, b, client.Location())
	return nil
}

func printBoard(w io.Writer, b models.Board, loc *time.Location) {
	for _, g := range b.Groups {
		fmt.Fprintf(w, "\n== %s ==\n", g.Title)
		for _, p := range g.Panels {
			printPanel(w, p)
		}
	}

	if !b.LastUpdate.IsZero() {
		fmt.Fprintf(w, "\nUpdated %s\n", b.LastUpdate.In(loc).Format("3:04:05 PM"))
	}
}

func printPanel(w io.Writer, p models.Panel) {
	title := p.Name
	if p.Location != "" {
		title += " (" + p.Location + ")"
	}
	if p.Unavailable {
		title += " [data unavailable]"
	}
	fmt.Fprintf(w, "\n%s\n", title)

	if p.Alert != nil {
		fmt.Fprintf(w, "  %s\n", banner(*p.Alert))
	}

	if p.Bikes != nil {
		tbl := table.New("Classic", "E-Bike", "Total").WithWriter(w)
		tbl.AddRow(p.Bikes.Classic, p.Bikes.Ebike, p.Bikes.Total)
		tbl.Print()
	}

	if p.Empty {
		fmt.Fprintf(w, "  %s\n", p.EmptyText)
		return
	}

	for _, s := range p.Sections {
		if s.Alert != nil {
			fmt.Fprintf(w, "  %s\n", banner(*s.Alert))
		}

		label := s.Label
		if label == "" {
			label = s.Direction
		}
		tbl := table.New(label, "Destination", "Arrives").WithWriter(w)
		for _, r := range s.Rows {
			icon := board.ScheduleIcon
			if r.Live {
				icon = board.LiveIcon
			}
			tbl.AddRow(icon, r.Destination, r.Countdown)
		}
		tbl.Print()
	}
}

func banner(b models.Banner) string {
	var sb strings.Builder
	sb.WriteString(b.Icon)
	sb.WriteString(" ")
	if b.Direction != "" {
		sb.WriteString(b.Direction)
		sb.WriteString(": ")
	}
	sb.WriteString(b.Header)
	return sb.String()
}
