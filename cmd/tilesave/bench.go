package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/urfave/cli/v3"

	sl "github.com/samcharles93/tilesave/pkg/saveload"

	"github.com/samcharles93/tilesave/internal/chunks"
	"github.com/samcharles93/tilesave/internal/logger"
	"github.com/samcharles93/tilesave/internal/world"
)

// benchResult holds latencies in microseconds.
type benchResult struct {
	Bytes int
	Save  *hdrhistogram.Histogram
	Load  *hdrhistogram.Histogram
	Check *hdrhistogram.Histogram
}

func newLatencyHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(1, int64(time.Minute/time.Microsecond), 3)
}

func runBench(ctx context.Context, w *world.World, opts sl.SaveOptions, warmup, runs int) (*benchResult, error) {
	res := &benchResult{Save: newLatencyHistogram(), Load: newLatencyHistogram(), Check: newLatencyHistogram()}
	var buf bytes.Buffer
	load := sl.LoadOptions{Limits: opts.Limits}

	for i := range warmup + runs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record := i >= warmup

		buf.Reset()
		start := time.Now()
		if err := chunks.Save(ctx, &buf, w, opts); err != nil {
			return nil, err
		}
		saveTime := time.Since(start)
		res.Bytes = buf.Len()

		start = time.Now()
		if _, _, err := chunks.Load(ctx, bytes.NewReader(buf.Bytes()), load); err != nil {
			return nil, err
		}
		loadTime := time.Since(start)

		start = time.Now()
		if _, err := chunks.Check(ctx, bytes.NewReader(buf.Bytes()), load); err != nil {
			return nil, err
		}
		checkTime := time.Since(start)

		if record {
			_ = res.Save.RecordValue(max(saveTime.Microseconds(), 1))
			_ = res.Load.RecordValue(max(loadTime.Microseconds(), 1))
			_ = res.Check.RecordValue(max(checkTime.Microseconds(), 1))
		}
	}
	return res, nil
}

func renderBench(out io.Writer, r *benchResult) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Op", "Runs", "p50 (us)", "p90 (us)", "p99 (us)", "Max (us)", "Mean (us)"})
	for _, row := range []struct {
		name string
		h    *hdrhistogram.Histogram
	}{{"save", r.Save}, {"load", r.Load}, {"check", r.Check}} {
		h := row.h
		t.AppendRow(table.Row{
			row.name, h.TotalCount(),
			h.ValueAtQuantile(50), h.ValueAtQuantile(90), h.ValueAtQuantile(99),
			h.Max(), fmt.Sprintf("%.1f", h.Mean()),
		})
	}
	cfgs := []table.ColumnConfig{}
	for n := 2; n <= 7; n++ {
		cfgs = append(cfgs, table.ColumnConfig{Number: n, Align: text.AlignRight})
	}
	t.SetColumnConfigs(cfgs)
	t.SetStyle(table.StyleLight)
	t.Render()
	_, _ = fmt.Fprintf(out, "save size: %d bytes\n", r.Bytes)
}

func benchCmd() *cli.Command {
	var (
		size   string
		seed   int64
		warmup int64
		runs   int64
		sf     saveFlags
	)

	return &cli.Command{
		Name:  "bench",
		Usage: "Measure in-memory save, load and check latency",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "size", Usage: "map size", Value: "256", Destination: &size},
			&cli.Int64Flag{Name: "seed", Usage: "generator seed", Value: 1, Destination: &seed},
			&cli.Int64Flag{Name: "warmup", Usage: "number of warmup runs", Value: 2, Destination: &warmup},
			&cli.Int64Flag{Name: "runs", Usage: "number of measured runs", Value: 20, Destination: &runs},
		}, sf.flags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applySaveConfig(cmd, cfg, &sf)
			opts, err := sf.options()
			if err != nil {
				return err
			}
			if runs < 1 || warmup < 0 {
				return fmt.Errorf("bench: need at least one run")
			}

			gen := world.DefaultGenerateOptions()
			if gen.SizeX, gen.SizeY, err = parseSize(size); err != nil {
				return err
			}
			gen.Seed = uint32(seed)
			gen.Stations, gen.Objects = 256, 2048
			gen.Plans, gen.Signals = 64, 512
			w, err := world.Generate(gen)
			if err != nil {
				return err
			}

			log.Info("benchmark starting", "size", size, "runs", runs, "compression", opts.Compression)
			res, err := runBench(ctx, w, opts, int(warmup), int(runs))
			if err != nil {
				return err
			}
			renderBench(stdout(cmd), res)
			return nil
		},
	}
}
