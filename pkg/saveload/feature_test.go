package saveload

import (
	"bytes"
	"errors"
	"testing"
)

type featureEntry struct {
	flags FeatureFlags
	rev   uint16
	name  string
	extra []byte
}

func featureBlock(t *testing.T, entries ...featureEntry) *ReadBuffer {
	t.Helper()
	var out bytes.Buffer
	d := NewMemoryDumper(&out, 0)
	d.WriteLength(len(entries))
	for _, e := range entries {
		d.WriteU32(uint32(e.flags))
		d.WriteU16(e.rev)
		d.WriteString(e.name)
		if e.flags&FeatureExtraData != 0 {
			d.WriteU32(uint32(len(e.extra)))
			d.WriteRaw(e.extra)
		}
	}
	if err := d.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	return NewReadBuffer(bytes.NewReader(out.Bytes()), 0)
}

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Debug(string, ...any)       {}
func (l *recordingLogger) Info(string, ...any)        {}
func (l *recordingLogger) Warn(msg string, _ ...any) { l.warnings = append(l.warnings, msg) }

var knownFeatures = []FeatureSpec{{Name: "plans", Current: 2}, {Name: "flows", Current: 1}}

func TestFeatureBlockRoundTrip(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	d := NewMemoryDumper(&out, 0)
	writeFeatureBlock(d, FeatureSet{"plans": 2, "flows": 1, "off": 0})
	if err := d.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	r := NewReadBuffer(bytes.NewReader(out.Bytes()), 0)
	fs := readFeatureBlock(r, knownFeatures, Limits{}, nopLogger{})
	if err := r.Err(); err != nil {
		t.Fatalf("read: %v", err)
	}
	if fs.Revision("plans") != 2 || fs.Revision("flows") != 1 || fs.Enabled("off") {
		t.Fatalf("features = %v", fs)
	}
}

func TestFeatureBlockUnknownFeatures(t *testing.T) {
	t.Parallel()

	log := &recordingLogger{}
	r := featureBlock(t,
		featureEntry{flags: FeatureIgnorableUnknown, rev: 1, name: "plans"},
		featureEntry{flags: FeatureIgnorableUnknown | FeatureExtraData, rev: 4, name: "weather", extra: []byte("rain")},
	)
	fs := readFeatureBlock(r, knownFeatures, Limits{}, log)
	if err := r.Err(); err != nil {
		t.Fatalf("read: %v", err)
	}
	if fs.Enabled("weather") || fs.Revision("plans") != 1 || len(log.warnings) != 1 {
		t.Fatalf("features = %v, warnings = %v", fs, log.warnings)
	}

	r = featureBlock(t, featureEntry{rev: 1, name: "weather"})
	readFeatureBlock(r, knownFeatures, Limits{}, nopLogger{})
	if !errors.Is(r.Err(), ErrUnsupportedVersion) {
		t.Fatalf("expected unsupported version, got %v", r.Err())
	}
}

func TestFeatureBlockNewerRevision(t *testing.T) {
	t.Parallel()

	r := featureBlock(t, featureEntry{flags: FeatureIgnorableVersion, rev: 5, name: "plans"})
	fs := readFeatureBlock(r, knownFeatures, Limits{}, nopLogger{})
	if err := r.Err(); err != nil || fs.Revision("plans") != 2 {
		t.Fatalf("clamp: features = %v, err = %v", fs, err)
	}

	r = featureBlock(t, featureEntry{rev: 5, name: "plans"})
	readFeatureBlock(r, knownFeatures, Limits{}, nopLogger{})
	if !errors.Is(r.Err(), ErrUnsupportedVersion) {
		t.Fatalf("expected unsupported version, got %v", r.Err())
	}
}

func TestFeatureBlockMalformed(t *testing.T) {
	t.Parallel()

	cases := map[string][]featureEntry{
		"unknown flags": {{flags: 0x80, rev: 1, name: "plans"}},
		"empty name":    {{rev: 1}},
		"revision zero": {{name: "plans"}},
		"duplicate":     {{rev: 1, name: "plans"}, {rev: 2, name: "plans"}},
	}
	for name, entries := range cases {
		r := featureBlock(t, entries...)
		readFeatureBlock(r, knownFeatures, Limits{}, nopLogger{})
		if !errors.Is(r.Err(), ErrCorruptFormat) {
			t.Fatalf("%s: expected corrupt format, got %v", name, r.Err())
		}
	}
}
