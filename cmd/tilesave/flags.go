package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	sl "github.com/samcharles93/tilesave/pkg/saveload"

	"github.com/samcharles93/tilesave/internal/chunks"
)

var (
	configFile string
	logLevel   string
	logFormat  string
	debug      bool

	maxElements  int64
	maxStringLen int64
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "config file (.yaml or .toml); defaults to the user config dir",
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func limitFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "max-elements",
			Usage:       "largest count prefix accepted while loading",
			Value:       sl.DefaultMaxElements,
			Destination: &maxElements,
		},
		&cli.Int64Flag{
			Name:        "max-string",
			Usage:       "largest string or byte payload accepted while loading",
			Value:       sl.DefaultMaxStringLen,
			Destination: &maxStringLen,
		},
	}
}

func limits() sl.Limits {
	return sl.Limits{MaxElements: int(maxElements), MaxStringLen: int(maxStringLen)}
}

// saveFlags are the output options shared by new and convert.
type saveFlags struct {
	version     int64
	compression string
	level       int64
	features    string
}

func (f *saveFlags) flags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "save-version",
			Usage:       fmt.Sprintf("format version to write (%d-%d, 0 for current)", chunks.Format.Oldest, chunks.Format.Current),
			Destination: &f.version,
		},
		&cli.StringFlag{
			Name:        "compression",
			Aliases:     []string{"z"},
			Usage:       "compression filter (none, zlib)",
			Value:       "zlib",
			Destination: &f.compression,
		},
		&cli.Int64Flag{
			Name:        "level",
			Usage:       "compression level, negative for the filter default",
			Value:       -1,
			Destination: &f.level,
		},
		&cli.StringFlag{
			Name:        "features",
			Usage:       `extensions to record, e.g. "plans=1,day_length"; "none" for none`,
			Destination: &f.features,
		},
	}
}

func (f *saveFlags) options() (sl.SaveOptions, error) {
	if f.version < 0 || f.version > int64(chunks.Format.Current) {
		return sl.SaveOptions{}, fmt.Errorf("save version %d out of range", f.version)
	}
	fs, err := parseFeatures(f.features)
	if err != nil {
		return sl.SaveOptions{}, err
	}
	return sl.SaveOptions{
		Version:     sl.Version(f.version),
		Features:    fs,
		Compression: f.compression,
		Level:       int(f.level),
		Limits:      limits(),
	}, nil
}

// parseFeatures reads "name[=rev],..." into a feature set. Empty input means
// the default set and "none" an empty one. A bare name enables revision 1.
func parseFeatures(s string) (sl.FeatureSet, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return nil, nil
	case "none":
		return sl.FeatureSet{}, nil
	}
	fs := sl.FeatureSet{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, rev, found := strings.Cut(part, "=")
		n := uint64(1)
		if found {
			var err error
			n, err = strconv.ParseUint(strings.TrimSpace(rev), 10, 16)
			if err != nil || n == 0 {
				return nil, fmt.Errorf("feature %q: invalid revision %q", name, rev)
			}
		}
		fs[strings.TrimSpace(name)] = uint16(n)
	}
	return fs, nil
}

// parseSize reads "64" or "64x128".
func parseSize(s string) (x, y uint32, err error) {
	xs, ys, found := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !found {
		ys = xs
	}
	nx, err := strconv.ParseUint(xs, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("map size %q: %w", s, err)
	}
	ny, err := strconv.ParseUint(ys, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("map size %q: %w", s, err)
	}
	return uint32(nx), uint32(ny), nil
}
