package saveload

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"
)

// SaveOptions configure one save pass.
type SaveOptions struct {
	// Version to write; zero means Format.Current.
	Version Version
	// Features to enable; nil means every known feature at its current revision
	// when the version has a feature block, none otherwise.
	Features FeatureSet
	// Compression names the filter; empty means "none".
	Compression string
	// Level is the compression level, negative for the filter default.
	Level int

	Limits     Limits
	Log        Logger
	BufferSize int
}

// LoadOptions configure a load or check pass.
type LoadOptions struct {
	Limits     Limits
	Log        Logger
	BufferSize int
}

// ChunkInfo describes one chunk seen in a stream.
type ChunkInfo struct {
	Tag   Tag       `json:"tag" yaml:"tag"`
	Type  ChunkType `json:"type" yaml:"type"`
	Bytes int64     `json:"bytes" yaml:"bytes"`
	Rows  int       `json:"rows,omitempty" yaml:"rows,omitempty"`
	Known bool      `json:"known" yaml:"known"`
}

// Summary describes a stream: its header, features and chunks, plus the
// properties check handlers chose to report.
type Summary struct {
	Version     Version        `json:"version" yaml:"version"`
	Compression string         `json:"compression" yaml:"compression"`
	Features    FeatureSet     `json:"features,omitempty" yaml:"features,omitempty"`
	Chunks      []ChunkInfo    `json:"chunks" yaml:"chunks"`
	Properties  map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
	Elapsed     time.Duration  `json:"-" yaml:"-"`
}

// Set records a property.
func (s *Summary) Set(key string, v any) {
	if s.Properties == nil {
		s.Properties = make(map[string]any)
	}
	s.Properties[key] = v
}

// Property returns a recorded property.
func (s *Summary) Property(key string) (any, bool) {
	v, ok := s.Properties[key]
	return v, ok
}

// Chunk returns the info of tag.
func (s *Summary) Chunk(tag Tag) (ChunkInfo, bool) {
	for _, ci := range s.Chunks {
		if ci.Tag == tag {
			return ci, true
		}
	}
	return ChunkInfo{}, false
}

// Save writes every saveable chunk of reg to out.
func Save(ctx context.Context, out io.Writer, reg *Registry, opts SaveOptions) error {
	f := reg.format
	c := &Context{
		Version: opts.Version,
		Format:  f,
		Limits:  opts.Limits,
		Log:     opts.Log,
	}
	if c.Version == 0 {
		c.Version = f.Current
	}
	if err := f.checkVersion(c.Version); err != nil {
		return err
	}
	hasBlock := c.Version >= f.FeatureBlockSince
	switch {
	case opts.Features == nil && hasBlock:
		c.Features = reg.CurrentFeatures()
	case opts.Features == nil:
		c.Features = FeatureSet{}
	default:
		if err := reg.validateFeatures(opts.Features); err != nil {
			return err
		}
		if !hasBlock && len(opts.Features.Names()) > 0 {
			return fmt.Errorf("saveload: version %d cannot record features %s", c.Version, opts.Features)
		}
		c.Features = opts.Features
	}

	comp, err := CompressionByName(opts.Compression)
	if err != nil {
		return err
	}
	h := Header{Compression: comp, Version: c.Version}
	if hasBlock {
		h.Flags |= headerFeatureBlock
	}
	if err := writeHeader(out, h); err != nil {
		return err
	}
	cw, err := comp.NewWriter(out, opts.Level)
	if err != nil {
		return err
	}
	d := NewMemoryDumper(cw, opts.BufferSize)
	if hasBlock {
		writeFeatureBlock(d, c.Features)
	}

	log := c.logger()
	for _, hd := range reg.handlers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if hd.Flags()&ChunkReadOnly != 0 {
			continue
		}
		if sp, ok := hd.(SpecialHandler); ok && !sp.Special(c, OpShouldSave) {
			log.Debug("chunk not saved", "tag", hd.Tag().String())
			continue
		}
		start := d.Written()
		if err := saveChunk(d, c, hd); err != nil {
			return wrapChunk(hd.Tag(), "save", err)
		}
		log.Debug("saved chunk", "tag", hd.Tag().String(), "bytes", d.Written()-start)
	}
	if c.Version >= f.TerminatorSince {
		d.WriteRaw(make([]byte, len(Tag{})))
	}
	if err := d.Flush(); err != nil {
		return err
	}
	if err := cw.Close(); err != nil {
		return &ioError{op: "close filter", err: err}
	}
	return nil
}

func saveChunk(d *MemoryDumper, c *Context, h Handler) error {
	ct, err := chunkType(c, h)
	if err != nil {
		return err
	}
	tag := h.Tag()
	d.WriteRaw(tag[:])
	d.WriteU8(uint8(ct))
	w := &ChunkWriter{ctx: c, d: d, tag: tag, typ: ct}

	if ct != TypeRIFF {
		if err := h.Save(w); err != nil {
			return err
		}
		return d.Err()
	}

	if sz, ok := h.(Sizer); ok {
		n := sz.RIFFSize(c)
		if n < 0 || n > math.MaxUint32 {
			return fmt.Errorf("saveload: RIFF size %d out of range", n)
		}
		d.WriteU32(uint32(n))
		start := d.Written()
		if err := h.Save(w); err != nil {
			return err
		}
		if got := d.Written() - start; got != n && d.Err() == nil {
			return fmt.Errorf("saveload: RIFF body is %d bytes, declared %d", got, n)
		}
		return d.Err()
	}

	d.BeginAutoLength()
	err = h.Save(w)
	d.EndAutoLength(PrefixU32)
	if err != nil {
		return err
	}
	return d.Err()
}

type passMode uint8

const (
	modeLoad passMode = iota
	modeCheck
)

// Load reads a stream into the state the handlers of reg are bound to, then runs
// the Ptrs pass.
func Load(ctx context.Context, in io.Reader, reg *Registry, opts LoadOptions) (*Summary, error) {
	return run(ctx, in, reg, opts, modeLoad)
}

// Check walks a stream without materialising state. Handlers implementing
// CheckHandler report properties; every other chunk is skipped by its framing.
func Check(ctx context.Context, in io.Reader, reg *Registry, opts LoadOptions) (*Summary, error) {
	return run(ctx, in, reg, opts, modeCheck)
}

func run(ctx context.Context, in io.Reader, reg *Registry, opts LoadOptions, mode passMode) (*Summary, error) {
	started := time.Now()
	f := reg.format
	// flate reads an io.ByteReader byte-exact, so raw is left at the end of the
	// compressed stream.
	raw := bufio.NewReader(in)
	h, err := ReadHeader(raw, f)
	if err != nil {
		return nil, err
	}
	src, err := h.Compression.NewReader(raw)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()

	c := &Context{
		Version:  h.Version,
		Features: FeatureSet{},
		Format:   f,
		Limits:   opts.Limits,
		Log:      opts.Log,
	}
	r := NewReadBuffer(src, opts.BufferSize)
	if h.hasFeatureBlock() {
		c.Features = readFeatureBlock(r, reg.features, c.Limits, c.logger())
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("feature block: %w", err)
		}
	}

	s := &Summary{Version: c.Version, Compression: h.Compression.Name, Features: c.Features}
	if err := walkChunks(ctx, r, c, reg, s, mode); err != nil {
		return nil, err
	}
	if err := drained(raw); err != nil {
		return nil, err
	}
	if mode == modeLoad {
		for _, hd := range reg.handlers {
			if p, ok := hd.(PtrsHandler); ok {
				if err := p.Ptrs(c); err != nil {
					return nil, wrapChunk(hd.Tag(), "ptrs", err)
				}
			}
		}
	}
	s.Elapsed = time.Since(started)
	return s, nil
}

// drained fails when the source holds bytes past the end of the filtered stream.
func drained(raw *bufio.Reader) error {
	n, err := raw.Discard(1)
	if n > 0 {
		return corruptf("trailing data after compressed stream")
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return sourceError(err)
	}
	return nil
}

func walkChunks(ctx context.Context, r *ReadBuffer, c *Context, reg *Registry, s *Summary, mode passMode) error {
	terminated := c.Version >= c.Format.TerminatorSince
	seen := make(map[Tag]bool)
	op := "load"
	if mode == modeCheck {
		op = "check"
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var tag Tag
		copy(tag[:], r.ReadRaw(len(tag)))
		if err := r.Err(); err != nil {
			return fmt.Errorf("reading chunk tag: %w", err)
		}
		if tag.IsZero() {
			if !terminated {
				return corruptf("zero tag in a version %d stream", c.Version)
			}
			break
		}
		if seen[tag] {
			return wrapChunk(tag, op, corruptf("chunk appears twice"))
		}
		seen[tag] = true

		typ := ChunkType(r.ReadU8())
		if err := r.Err(); err != nil {
			return wrapChunk(tag, op, err)
		}
		switch typ {
		case TypeRIFF, TypeArray:
		case TypeTable:
			if !c.TablesAllowed() {
				return wrapChunk(tag, op, corruptf("table chunk in a version %d stream", c.Version))
			}
		default:
			return wrapChunk(tag, op, corruptf("unknown chunk type 0x%02x", uint8(typ)))
		}

		cr := &ChunkReader{ctx: c, r: r, tag: tag, typ: typ, size: -1}
		prev := int64(noLimit)
		if typ == TypeRIFF {
			cr.size = int64(r.ReadU32())
			prev = r.PushLimit(cr.size)
		}
		start := r.Offset()
		hd, known := reg.byTag[tag]
		err := dispatchChunk(cr, hd, known, reg, s, mode)
		if typ == TypeRIFF {
			if err == nil && mode == modeCheck {
				if rem := r.Remaining(); rem > 0 {
					r.Skip(rem)
				}
			}
			r.PopLimit(prev)
		}
		if err == nil {
			err = r.Err()
		}
		if err != nil {
			return wrapChunk(tag, op, err)
		}
		s.Chunks = append(s.Chunks, ChunkInfo{
			Tag:   tag,
			Type:  typ,
			Bytes: r.Offset() - start,
			Rows:  cr.rows,
			Known: known,
		})
		c.logger().Debug("chunk "+op, "tag", tag.String(), "type", typ.String(), "bytes", r.Offset()-start)

		if !terminated && known && hd.Flags()&ChunkLast != 0 {
			break
		}
	}
	if !r.atEnd() {
		if err := r.Err(); err != nil {
			return err
		}
		return corruptf("trailing data after end of stream at offset %d", r.Offset())
	}
	return nil
}

func dispatchChunk(cr *ChunkReader, h Handler, known bool, reg *Registry, s *Summary, mode passMode) error {
	if !known {
		if reg.fallback == nil {
			return corruptf("unknown chunk")
		}
		if mode == modeCheck {
			return cr.Skip()
		}
		return reg.fallback.LoadUnknown(cr)
	}
	if !h.Flags().supports(cr.typ) {
		return corruptf("stored as %s, handler supports %s", cr.typ, h.Flags()&chunkEncodings)
	}
	if mode == modeCheck {
		if ch, ok := h.(CheckHandler); ok {
			return ch.Check(cr, s)
		}
		return cr.Skip()
	}
	return h.Load(cr)
}
