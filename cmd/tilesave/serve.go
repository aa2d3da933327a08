package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	sl "github.com/samcharles93/tilesave/pkg/saveload"

	"github.com/samcharles93/tilesave/internal/api"
	"github.com/samcharles93/tilesave/internal/logger"
	"github.com/samcharles93/tilesave/internal/savestore"
)

func serveCmd() *cli.Command {
	var (
		dir          string
		addr         string
		downloadRate int64
		maxUpload    int64
		watch        bool
		readTimeout  time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve a save directory over HTTP",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:        "dir",
				Usage:       "save directory",
				Value:       "saves",
				Destination: &dir,
			},
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.Int64Flag{
				Name:        "download-rate",
				Usage:       "per-download limit in bytes per second (0 = unlimited)",
				Destination: &downloadRate,
			},
			&cli.Int64Flag{
				Name:        "max-upload",
				Usage:       "largest accepted upload in bytes",
				Value:       64 << 20,
				Destination: &maxUpload,
			},
			&cli.BoolFlag{
				Name:        "watch",
				Usage:       "track changes made to the directory by other processes",
				Value:       true,
				Destination: &watch,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		}, limitFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, cfg, &dir, &addr, &downloadRate, &maxUpload)
			applyLimitConfig(cmd, cfg)

			store, err := savestore.Open(savestore.Options{
				Dir:       dir,
				Load:      sl.LoadOptions{Limits: limits(), Log: log},
				MaxUpload: maxUpload,
				Watch:     watch,
				Log:       log,
			})
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					log.Warn("closing store", "error", err)
				}
			}()

			server := api.NewServer(api.Config{
				Store:        store,
				DownloadRate: int(downloadRate),
				Log:          log,
			})
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)

			log.Info("starting server", "address", addr, "dir", dir)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			if err := sc.Start(ctx, e); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
}
