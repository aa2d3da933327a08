package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"

	sl "github.com/samcharles93/tilesave/pkg/saveload"

	"github.com/samcharles93/tilesave/internal/chunks"
	"github.com/samcharles93/tilesave/internal/logger"
	"github.com/samcharles93/tilesave/internal/remote"
)

func remoteCmd() *cli.Command {
	var (
		baseURL string
		timeout time.Duration
		retries int64
	)
	client := func(cmd *cli.Command) *remote.Client {
		if cfg.RemoteURL != "" && !cmd.IsSet("url") {
			baseURL = cfg.RemoteURL
		}
		return remote.New(baseURL, remote.Options{Timeout: timeout, Retries: int(retries)})
	}

	return &cli.Command{
		Name:  "remote",
		Usage: "Transfer saves to and from a tilesave server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "url",
				Usage:       "server base URL",
				Value:       "http://127.0.0.1:8080",
				Destination: &baseURL,
			},
			&cli.DurationFlag{
				Name:        "timeout",
				Usage:       "request timeout",
				Value:       time.Minute,
				Destination: &timeout,
			},
			&cli.Int64Flag{
				Name:        "retries",
				Usage:       "extra attempts for reads that fail",
				Value:       2,
				Destination: &retries,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List saves on the server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					list, err := client(cmd).List(ctx)
					if err != nil {
						return err
					}
					t := table.NewWriter()
					t.SetOutputMirror(stdout(cmd))
					t.AppendHeader(table.Row{"Name", "Bytes", "Version", "Compression", "Map", "Status"})
					for _, info := range list {
						status := "ok"
						if !info.OK() {
							status = info.Err
						}
						t.AppendRow(table.Row{
							info.Name, info.Size, info.Version, info.Compression,
							fmt.Sprintf("%dx%d", info.MapSizeX, info.MapSizeY), status,
						})
					}
					t.SetStyle(table.StyleLight)
					t.Render()
					return nil
				},
			},
			{
				Name:      "pull",
				Usage:     "Download a save and check it locally",
				ArgsUsage: "NAME [FILE]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					log := logger.FromContext(ctx)
					if cmd.NArg() < 1 || cmd.NArg() > 2 {
						return errors.New("remote pull: NAME [FILE] expected")
					}
					name := cmd.Args().Get(0)
					out := name
					if cmd.NArg() == 2 {
						out = cmd.Args().Get(1)
					}

					var buf bytes.Buffer
					n, err := client(cmd).Pull(ctx, name, &buf)
					if err != nil {
						return err
					}
					if _, err := chunks.Check(ctx, bytes.NewReader(buf.Bytes()), sl.LoadOptions{Log: log}); err != nil {
						return fmt.Errorf("remote pull: %s: %w", name, err)
					}
					if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
						return err
					}
					log.Info("save pulled", "name", name, "path", out, "bytes", n)
					return nil
				},
			},
			{
				Name:      "push",
				Usage:     "Upload a save; the server checks it before publishing",
				ArgsUsage: "FILE [NAME]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					log := logger.FromContext(ctx)
					if cmd.NArg() < 1 || cmd.NArg() > 2 {
						return errors.New("remote push: FILE [NAME] expected")
					}
					path := cmd.Args().Get(0)
					name := filepath.Base(path)
					if cmd.NArg() == 2 {
						name = cmd.Args().Get(1)
					}
					f, err := os.Open(path)
					if err != nil {
						return err
					}
					defer func() { _ = f.Close() }()
					info, err := client(cmd).Push(ctx, name, f)
					if err != nil {
						return err
					}
					log.Info("save pushed", "name", info.Name, "bytes", info.Size, "version", info.Version)
					return nil
				},
			},
			{
				Name:      "check",
				Usage:     "Show the server's verdict on a save",
				ArgsUsage: "NAME",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.NArg() != 1 {
						return errors.New("remote check: NAME expected")
					}
					info, err := client(cmd).Info(ctx, cmd.Args().First())
					if err != nil {
						return err
					}
					w := stdout(cmd)
					if !info.OK() {
						_, _ = fmt.Fprintf(w, "%s %s: %s\n", color.New(color.FgRed, color.Bold).Sprint("FAIL"), info.Name, info.Err)
						return fmt.Errorf("remote check: %s failed", info.Name)
					}
					_, _ = fmt.Fprintf(w, "%s %s: version %d, %s, %dx%d, %d chunks\n",
						color.New(color.FgGreen, color.Bold).Sprint("OK"),
						info.Name, info.Version, info.Compression, info.MapSizeX, info.MapSizeY, len(info.Chunks))
					return nil
				},
			},
			{
				Name:      "rm",
				Usage:     "Delete a save on the server",
				ArgsUsage: "NAME",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.NArg() != 1 {
						return errors.New("remote rm: NAME expected")
					}
					return client(cmd).Delete(ctx, cmd.Args().First())
				},
			},
			{
				Name:  "version",
				Usage: "Print the server version",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					info, err := client(cmd).Version(ctx)
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintf(stdout(cmd), "server version: %s\n", info.String())
					return nil
				},
			},
		},
	}
}
