package saveload

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// FeatureSet maps an extension name to its revision. Absent names are revision 0.
type FeatureSet map[string]uint16

// Revision returns the revision of name, 0 when absent.
func (fs FeatureSet) Revision(name string) uint16 { return fs[name] }

// Enabled reports whether name is present at any revision.
func (fs FeatureSet) Enabled(name string) bool { return fs[name] > 0 }

// With returns a copy of fs with name set to rev. A zero rev removes the name.
func (fs FeatureSet) With(name string, rev uint16) FeatureSet {
	out := maps.Clone(fs)
	if out == nil {
		out = FeatureSet{}
	}
	if rev == 0 {
		delete(out, name)
	} else {
		out[name] = rev
	}
	return out
}

// Names returns the enabled feature names in sorted order.
func (fs FeatureSet) Names() []string {
	names := make([]string, 0, len(fs))
	for name, rev := range fs {
		if rev > 0 {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

func (fs FeatureSet) String() string {
	var b strings.Builder
	for i, name := range fs.Names() {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s@%d", name, fs[name])
	}
	return b.String()
}

// FeatureSpec describes an extension the program knows about.
type FeatureSpec struct {
	Name    string
	Current uint16
}

// FeatureFlags are the per-feature flags stored in the feature block.
type FeatureFlags uint32

const (
	// FeatureIgnorableUnknown lets readers that do not know the feature drop it.
	FeatureIgnorableUnknown FeatureFlags = 1 << iota
	// FeatureIgnorableVersion lets readers clamp a newer revision to their own.
	FeatureIgnorableVersion
	// FeatureExtraData is followed by a u32 length and an opaque payload.
	FeatureExtraData
)

const featureFlagMask = FeatureIgnorableUnknown | FeatureIgnorableVersion | FeatureExtraData

// FeatureTest is a predicate over a FeatureSet attached to a field descriptor.
type FeatureTest interface {
	Eval(fs FeatureSet) bool
	// References lists the feature names the test reads.
	References() []string
}

type atLeast struct {
	name string
	min  uint16
}

func (t atLeast) Eval(fs FeatureSet) bool { return fs.Revision(t.name) >= t.min }
func (t atLeast) References() []string    { return []string{t.name} }

type revRange struct {
	name     string
	min, max uint16
}

func (t revRange) Eval(fs FeatureSet) bool {
	rev := fs.Revision(t.name)
	return rev >= t.min && rev <= t.max
}
func (t revRange) References() []string { return []string{t.name} }

type absent struct{ name string }

func (t absent) Eval(fs FeatureSet) bool { return !fs.Enabled(t.name) }
func (t absent) References() []string    { return []string{t.name} }

type allOf []FeatureTest

func (t allOf) Eval(fs FeatureSet) bool {
	for _, sub := range t {
		if !sub.Eval(fs) {
			return false
		}
	}
	return true
}
func (t allOf) References() []string { return collectRefs(t) }

type anyOf []FeatureTest

func (t anyOf) Eval(fs FeatureSet) bool {
	for _, sub := range t {
		if sub.Eval(fs) {
			return true
		}
	}
	return false
}
func (t anyOf) References() []string { return collectRefs(t) }

func collectRefs(tests []FeatureTest) []string {
	var refs []string
	for _, sub := range tests {
		refs = append(refs, sub.References()...)
	}
	slices.Sort(refs)
	return slices.Compact(refs)
}

// Feature requires name at revision rev or newer.
func Feature(name string, rev uint16) FeatureTest { return atLeast{name: name, min: max(rev, 1)} }

// FeatureRange requires the revision of name to lie in [lo, hi].
func FeatureRange(name string, lo, hi uint16) FeatureTest {
	return revRange{name: name, min: lo, max: hi}
}

// Absent requires name to be disabled.
func Absent(name string) FeatureTest { return absent{name: name} }

// All requires every test to pass.
func All(tests ...FeatureTest) FeatureTest { return allOf(tests) }

// Any requires at least one test to pass.
func Any(tests ...FeatureTest) FeatureTest { return anyOf(tests) }

func writeFeatureBlock(d *MemoryDumper, fs FeatureSet) {
	names := fs.Names()
	d.WriteLength(len(names))
	for _, name := range names {
		d.WriteU32(uint32(FeatureIgnorableUnknown))
		d.WriteU16(fs[name])
		d.WriteString(name)
	}
}

// readFeatureBlock parses the stream's feature block against the features the
// reader knows.
func readFeatureBlock(r *ReadBuffer, known []FeatureSpec, limits Limits, log Logger) FeatureSet {
	current := make(map[string]uint16, len(known))
	for _, spec := range known {
		current[spec.Name] = spec.Current
	}

	count := r.ReadGamma()
	if r.Err() == nil && int64(count) > int64(limits.maxElements()) {
		r.Fail(limitf("feature block declares %d entries", count))
	}
	fs := make(FeatureSet)
	seen := make(map[string]bool)
	for i := uint32(0); i < count && r.Err() == nil; i++ {
		flags := FeatureFlags(r.ReadU32())
		rev := r.ReadU16()
		name := readString(r, limits)
		if flags&FeatureExtraData != 0 {
			r.Skip(int64(r.ReadU32()))
		}
		if r.Err() != nil {
			break
		}
		switch {
		case flags&^featureFlagMask != 0:
			r.Fail(corruptf("feature %q has unknown flags 0x%x", name, uint32(flags)))
		case name == "":
			r.Fail(corruptf("feature block entry %d has no name", i))
		case rev == 0:
			r.Fail(corruptf("feature %q stored at revision 0", name))
		case seen[name]:
			r.Fail(corruptf("feature %q listed twice", name))
		}
		if r.Err() != nil {
			break
		}
		seen[name] = true

		cur, ok := current[name]
		switch {
		case !ok && flags&FeatureIgnorableUnknown != 0:
			log.Warn("ignoring unknown savegame feature", "feature", name, "revision", rev)
		case !ok:
			r.Fail(unsupportedf("savegame requires unknown feature %q revision %d", name, rev))
		case rev > cur && flags&FeatureIgnorableVersion != 0:
			log.Warn("clamping savegame feature revision", "feature", name, "revision", rev, "supported", cur)
			fs[name] = cur
		case rev > cur:
			r.Fail(unsupportedf("feature %q revision %d is newer than %d", name, rev, cur))
		default:
			fs[name] = rev
		}
	}
	return fs
}
