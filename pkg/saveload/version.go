package saveload

import (
	"errors"
	"fmt"
)

// Version is the format version stamped once per stream.
type Version uint16

// MaxVersion is used as the open upper bound of a field's validity range.
const MaxVersion Version = 0xFFFF

// Format is the version ladder of the program embedding the engine. The engine
// only knows the framing milestones; field-level history lives in descriptors.
type Format struct {
	// Current is the version written by default and the newest one accepted.
	Current Version
	// Oldest is the oldest version still accepted on load.
	Oldest Version

	// TerminatorSince marks the first version whose streams end with a zero tag.
	TerminatorSince Version
	// FeatureBlockSince marks the first version carrying a feature flag block.
	FeatureBlockSince Version
	// TableSince marks the first version allowed to contain Table chunks.
	TableSince Version
	// UTF8StringsSince marks the first version with UTF-8 strings; older streams
	// use Windows-1252.
	UTF8StringsSince Version
}

// Validate checks the ladder is ordered.
func (f Format) Validate() error {
	if f.Oldest == 0 || f.Current < f.Oldest {
		return fmt.Errorf("saveload: invalid version range %d..%d", f.Oldest, f.Current)
	}
	milestones := []struct {
		name string
		v    Version
	}{
		{"terminator", f.TerminatorSince},
		{"feature block", f.FeatureBlockSince},
		{"table", f.TableSince},
		{"utf-8 strings", f.UTF8StringsSince},
	}
	for _, m := range milestones {
		if m.v == 0 {
			return fmt.Errorf("saveload: %s milestone not set", m.name)
		}
	}
	if f.TableSince < f.TerminatorSince {
		return errors.New("saveload: table chunks require the stream terminator")
	}
	return nil
}

// Supports reports whether v can be loaded.
func (f Format) Supports(v Version) bool {
	return v >= f.Oldest && v <= f.Current
}

func (f Format) checkVersion(v Version) error {
	switch {
	case v < f.Oldest:
		return unsupportedf("version %d is older than %d", v, f.Oldest)
	case v > f.Current:
		return unsupportedf("version %d is newer than %d", v, f.Current)
	}
	return nil
}
