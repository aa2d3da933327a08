package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/urfave/cli/v3"

	sl "github.com/samcharles93/tilesave/pkg/saveload"

	"github.com/samcharles93/tilesave/internal/chunks"
	"github.com/samcharles93/tilesave/internal/logger"
	"github.com/samcharles93/tilesave/internal/savestore"
	"github.com/samcharles93/tilesave/internal/world"
)

type inspectReport struct {
	File     string      `json:"file"`
	Summary  *sl.Summary `json:"summary"`
	MapSizeX uint32      `json:"map_size_x"`
	MapSizeY uint32      `json:"map_size_y"`
	Stations int         `json:"stations"`
	Objects  int         `json:"objects"`
	Plans    int         `json:"plans"`
	Signals  int         `json:"signals"`
	DebugLog int         `json:"debug_log_bytes"`
}

func newInspectReport(path string, w *world.World, s *sl.Summary) inspectReport {
	return inspectReport{
		File:     path,
		Summary:  s,
		MapSizeX: w.Map.SizeX,
		MapSizeY: w.Map.SizeY,
		Stations: w.Stations.Len(),
		Objects:  w.Objects.Len(),
		Plans:    w.Plans.Len(),
		Signals:  len(w.Signals),
		DebugLog: len(w.Debug.Log),
	}
}

func inspectCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Load a save and show its chunks and contents",
		ArgsUsage: "FILE",
		Flags: append(limitFlags(), &cli.BoolFlag{
			Name:        "json",
			Usage:       "print the report as JSON",
			Destination: &asJSON,
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyLimitConfig(cmd, cfg)
			if cmd.NArg() != 1 {
				return errors.New("inspect: exactly one file expected")
			}
			path := cmd.Args().First()

			f, err := savestore.OpenFile(path)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()
			w, s, err := chunks.Load(ctx, f.Reader(), sl.LoadOptions{Limits: limits(), Log: log})
			if err != nil {
				return err
			}
			report := newInspectReport(path, w, s)

			out := stdout(cmd)
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			renderReport(out, report)
			return nil
		},
	}
}

func renderReport(out io.Writer, r inspectReport) {
	s := r.Summary
	_, _ = fmt.Fprintf(out, "%s: version %d, compression %s, map %dx%d, loaded in %s\n",
		r.File, s.Version, s.Compression, r.MapSizeX, r.MapSizeY, s.Elapsed)

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Tag", "Type", "Bytes", "Rows", "Known"})
	for _, ci := range s.Chunks {
		rows := ""
		if ci.Type != sl.TypeRIFF {
			rows = fmt.Sprint(ci.Rows)
		}
		t.AppendRow(table.Row{ci.Tag.String(), ci.Type.String(), ci.Bytes, rows, ci.Known})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	t.SetStyle(table.StyleLight)
	t.Render()

	ft := table.NewWriter()
	ft.SetOutputMirror(out)
	ft.AppendHeader(table.Row{"Feature", "Revision"})
	names := s.Features.Names()
	slices.Sort(names)
	for _, name := range names {
		ft.AppendRow(table.Row{name, s.Features.Revision(name)})
	}
	if len(names) == 0 {
		ft.AppendRow(table.Row{"(none)", ""})
	}
	ft.SetStyle(table.StyleLight)
	ft.Render()

	ct := table.NewWriter()
	ct.SetOutputMirror(out)
	ct.AppendHeader(table.Row{"Content", "Count"})
	ct.AppendRows([]table.Row{
		{"stations", r.Stations},
		{"objects", r.Objects},
		{"plans", r.Plans},
		{"signal programs", r.Signals},
		{"debug log bytes", r.DebugLog},
	})
	ct.SetStyle(table.StyleLight)
	ct.Render()
}
