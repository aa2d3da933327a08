package saveload

import (
	"fmt"
	"slices"
)

// Registry holds the chunk handlers of a program in save order together with the
// version ladder and the features the program understands.
type Registry struct {
	format   Format
	features []FeatureSpec
	handlers []Handler
	byTag    map[Tag]Handler
	fallback FallbackHandler
}

// NewRegistry validates and indexes handlers. Save order is the order given.
func NewRegistry(format Format, features []FeatureSpec, handlers ...Handler) (*Registry, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	reg := &Registry{
		format:   format,
		features: slices.Clone(features),
		handlers: slices.Clone(handlers),
		byTag:    make(map[Tag]Handler, len(handlers)),
	}

	names := make(map[string]bool, len(features))
	for _, f := range features {
		if f.Name == "" || f.Current == 0 {
			return nil, fmt.Errorf("saveload: invalid feature %q revision %d", f.Name, f.Current)
		}
		if names[f.Name] {
			return nil, fmt.Errorf("saveload: feature %q registered twice", f.Name)
		}
		names[f.Name] = true
	}

	last := -1
	for i, h := range handlers {
		tag, flags := h.Tag(), h.Flags()
		if tag.IsZero() {
			return nil, fmt.Errorf("saveload: handler %d has the zero tag", i)
		}
		if _, dup := reg.byTag[tag]; dup {
			return nil, fmt.Errorf("saveload: chunk %s registered twice", tag)
		}
		if flags&chunkEncodings == 0 {
			return nil, fmt.Errorf("saveload: chunk %s has no encoding", tag)
		}
		if flags&ChunkLast != 0 {
			if last >= 0 {
				return nil, fmt.Errorf("saveload: chunks %s and %s both carry the last flag", handlers[last].Tag(), tag)
			}
			if flags&ChunkReadOnly != 0 {
				return nil, fmt.Errorf("saveload: last chunk %s cannot be read-only", tag)
			}
			last = i
		}
		reg.byTag[tag] = h
	}
	if last < 0 {
		return nil, fmt.Errorf("saveload: no chunk carries the last flag")
	}
	for _, h := range handlers[last+1:] {
		if h.Flags()&ChunkReadOnly == 0 {
			return nil, fmt.Errorf("saveload: chunk %s is saved after last chunk %s", h.Tag(), handlers[last].Tag())
		}
	}
	return reg, nil
}

// SetFallback installs the handler used for unregistered tags.
func (reg *Registry) SetFallback(h FallbackHandler) { reg.fallback = h }

func (reg *Registry) Format() Format { return reg.format }

// Features lists the features the program understands.
func (reg *Registry) Features() []FeatureSpec { return slices.Clone(reg.features) }

// CurrentFeatures returns every known feature at its current revision.
func (reg *Registry) CurrentFeatures() FeatureSet {
	fs := make(FeatureSet, len(reg.features))
	for _, f := range reg.features {
		fs[f.Name] = f.Current
	}
	return fs
}

// Handlers returns the handlers in save order.
func (reg *Registry) Handlers() []Handler { return slices.Clone(reg.handlers) }

// Lookup finds the handler for tag.
func (reg *Registry) Lookup(tag Tag) (Handler, bool) {
	h, ok := reg.byTag[tag]
	return h, ok
}

func (reg *Registry) validateFeatures(fs FeatureSet) error {
	for name, rev := range fs {
		if rev == 0 {
			continue
		}
		cur := uint16(0)
		for _, f := range reg.features {
			if f.Name == name {
				cur = f.Current
			}
		}
		if cur == 0 {
			return fmt.Errorf("saveload: unknown feature %q", name)
		}
		if rev > cur {
			return fmt.Errorf("saveload: feature %q revision %d is newer than %d", name, rev, cur)
		}
	}
	return nil
}

// chunkType picks the framing h is saved with.
func chunkType(c *Context, h Handler) (ChunkType, error) {
	var ct ChunkType
	if sel, ok := h.(TypeSelector); ok {
		ct = sel.ChunkType(c)
	} else {
		switch flags := h.Flags(); {
		case flags&ChunkRIFF != 0:
			ct = TypeRIFF
		case flags&ChunkArray != 0:
			ct = TypeArray
		default:
			ct = TypeTable
		}
	}
	if !h.Flags().supports(ct) {
		return ct, fmt.Errorf("saveload: chunk %s does not support %s framing", h.Tag(), ct)
	}
	if ct == TypeTable && !c.TablesAllowed() {
		return ct, fmt.Errorf("saveload: chunk %s: table framing needs version %d, saving %d", h.Tag(), c.Format.TableSince, c.Version)
	}
	return ct, nil
}

type skipUnknown struct{}

func (skipUnknown) LoadUnknown(r *ChunkReader) error {
	r.Context().logger().Warn("skipping unknown chunk", "tag", r.Tag().String(), "type", r.Type().String())
	return r.Skip()
}

// SkipUnknown is a fallback that discards unregistered chunks by their framing.
var SkipUnknown FallbackHandler = skipUnknown{}
