package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/tilesave/internal/chunks"
	"github.com/samcharles93/tilesave/internal/logger"
	"github.com/samcharles93/tilesave/internal/savestore"
	"github.com/samcharles93/tilesave/internal/world"
)

func newCmd() *cli.Command {
	var (
		out      string
		size     string
		seed     int64
		stations int64
		objects  int64
		plans    int64
		signals  int64
		sf       saveFlags
	)
	def := world.DefaultGenerateOptions()

	return &cli.Command{
		Name:  "new",
		Usage: "Generate a demo world and save it",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output save file",
				Required:    true,
				Destination: &out,
			},
			&cli.StringFlag{
				Name:        "size",
				Usage:       "map size, e.g. 64 or 256x128",
				Value:       fmt.Sprintf("%dx%d", def.SizeX, def.SizeY),
				Destination: &size,
			},
			&cli.Int64Flag{Name: "seed", Usage: "generator seed", Value: int64(def.Seed), Destination: &seed},
			&cli.Int64Flag{Name: "stations", Usage: "number of stations", Value: int64(def.Stations), Destination: &stations},
			&cli.Int64Flag{Name: "objects", Usage: "number of map objects", Value: int64(def.Objects), Destination: &objects},
			&cli.Int64Flag{Name: "plans", Usage: "number of plans", Value: int64(def.Plans), Destination: &plans},
			&cli.Int64Flag{Name: "signals", Usage: "number of signal programs", Value: int64(def.Signals), Destination: &signals},
		}, sf.flags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applySaveConfig(cmd, cfg, &sf)
			opts, err := sf.options()
			if err != nil {
				return err
			}
			opts.Log = log

			gen := def
			if gen.SizeX, gen.SizeY, err = parseSize(size); err != nil {
				return err
			}
			gen.Seed = uint32(seed)
			gen.Stations, gen.Objects = int(stations), int(objects)
			gen.Plans, gen.Signals = int(plans), int(signals)
			w, err := world.Generate(gen)
			if err != nil {
				return err
			}

			err = savestore.WriteFileAtomic(out, func(f *os.File) error {
				return chunks.Save(ctx, f, w, opts)
			}, nil)
			if err != nil {
				return err
			}
			log.Info("save written", "path", out, "size", fmt.Sprintf("%dx%d", gen.SizeX, gen.SizeY))
			return nil
		},
	}
}
