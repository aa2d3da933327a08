package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	sl "github.com/samcharles93/tilesave/pkg/saveload"

	"github.com/samcharles93/tilesave/internal/chunks"
	"github.com/samcharles93/tilesave/internal/logger"
	"github.com/samcharles93/tilesave/internal/savestore"
)

type checkResult struct {
	File     string      `json:"file"`
	OK       bool        `json:"ok"`
	Error    string      `json:"error,omitempty"`
	MapSizeX uint32      `json:"map_size_x,omitempty"`
	MapSizeY uint32      `json:"map_size_y,omitempty"`
	Summary  *sl.Summary `json:"summary,omitempty"`
}

func checkFile(ctx context.Context, path string, opts sl.LoadOptions) checkResult {
	res := checkResult{File: path}
	f, err := savestore.OpenFile(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer func() { _ = f.Close() }()
	s, err := chunks.Check(ctx, f.Reader(), opts)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.OK = true
	res.Summary = s
	res.MapSizeX, res.MapSizeY, _ = chunks.MapSize(s)
	return res
}

func checkCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:      "check",
		Usage:     "Validate saves without building the world",
		ArgsUsage: "FILE...",
		Flags: append(limitFlags(), &cli.BoolFlag{
			Name:        "json",
			Usage:       "print results as JSON",
			Destination: &asJSON,
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyLimitConfig(cmd, cfg)
			files := cmd.Args().Slice()
			if len(files) == 0 {
				return errors.New("check: no files given")
			}
			opts := sl.LoadOptions{Limits: limits(), Log: log}

			results := make([]checkResult, 0, len(files))
			failed := 0
			for _, path := range files {
				res := checkFile(ctx, path, opts)
				if !res.OK {
					failed++
				}
				results = append(results, res)
			}

			w := stdout(cmd)
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			} else {
				pass := color.New(color.FgGreen, color.Bold).SprintFunc()
				fail := color.New(color.FgRed, color.Bold).SprintFunc()
				for _, res := range results {
					if !res.OK {
						_, _ = fmt.Fprintf(w, "%s %s: %s\n", fail("FAIL"), res.File, res.Error)
						continue
					}
					s := res.Summary
					_, _ = fmt.Fprintf(w, "%s %s: version %d, %s, %dx%d, %d chunks, features %s\n",
						pass("OK"), res.File, s.Version, s.Compression, res.MapSizeX, res.MapSizeY, len(s.Chunks), s.Features)
				}
			}
			if failed > 0 {
				return fmt.Errorf("check: %d of %d saves failed", failed, len(files))
			}
			return nil
		},
	}
}
