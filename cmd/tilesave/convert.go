package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	sl "github.com/samcharles93/tilesave/pkg/saveload"

	"github.com/samcharles93/tilesave/internal/chunks"
	"github.com/samcharles93/tilesave/internal/logger"
	"github.com/samcharles93/tilesave/internal/savestore"
)

func convertCmd() *cli.Command {
	var sf saveFlags

	return &cli.Command{
		Name:      "convert",
		Usage:     "Rewrite a save at another version or compression",
		ArgsUsage: "IN OUT",
		Flags:     append(sf.flags(), limitFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applySaveConfig(cmd, cfg, &sf)
			applyLimitConfig(cmd, cfg)
			if cmd.NArg() != 2 {
				return errors.New("convert: IN and OUT expected")
			}
			in, out := cmd.Args().Get(0), cmd.Args().Get(1)
			if filepath.Clean(in) == filepath.Clean(out) {
				return errors.New("convert: IN and OUT must differ")
			}
			opts, err := sf.options()
			if err != nil {
				return err
			}
			opts.Log = log

			src, err := savestore.OpenFile(in)
			if err != nil {
				return err
			}
			defer func() { _ = src.Close() }()

			var s *sl.Summary
			err = savestore.WriteFileAtomic(out, func(f *os.File) error {
				var cerr error
				s, cerr = chunks.Convert(ctx, src.Reader(), f, sl.LoadOptions{Limits: limits(), Log: log}, opts)
				return cerr
			}, nil)
			if err != nil {
				return err
			}
			target := opts.Version
			if target == 0 {
				target = chunks.Format.Current
			}
			log.Info("save converted", "in", in, "out", out,
				"from_version", s.Version, "to_version", target, "compression", opts.Compression)
			return nil
		},
	}
}
