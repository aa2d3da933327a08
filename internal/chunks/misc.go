package chunks

import (
	"errors"

	sl "github.com/samcharles93/tilesave/pkg/saveload"

	"github.com/samcharles93/tilesave/internal/world"
)

// signalChunk stores signal programs as a counted list of records.
type signalChunk struct{ w *world.World }

func (signalChunk) Tag() sl.Tag          { return TagSignals }
func (signalChunk) Flags() sl.ChunkFlags { return sl.ChunkRIFF }

func (h signalChunk) Save(cw *sl.ChunkWriter) error {
	cw.Dumper().WriteLength(len(h.w.Signals))
	for i := range h.w.Signals {
		if err := sl.SaveStruct(cw, signalTable, &h.w.Signals[i]); err != nil {
			return err
		}
	}
	return cw.Dumper().Err()
}

func (h signalChunk) Load(cr *sl.ChunkReader) error {
	buf := cr.Buffer()
	n := buf.ReadGamma()
	if err := buf.Err(); err != nil {
		return err
	}
	if err := cr.Context().CheckCount(n, "signal program"); err != nil {
		return err
	}
	h.w.Signals = nil
	for range n {
		var sp world.SignalProgram
		if err := sl.LoadStruct(cr, signalTable, &sp); err != nil {
			return err
		}
		h.w.Signals = append(h.w.Signals, sp)
	}
	return nil
}

// debugLogChunk stores the raw debug log. Empty logs are not written.
type debugLogChunk struct{ w *world.World }

func (debugLogChunk) Tag() sl.Tag          { return TagDebugLog }
func (debugLogChunk) Flags() sl.ChunkFlags { return sl.ChunkRIFF }

func (h debugLogChunk) Special(_ *sl.Context, op sl.SpecialOp) bool {
	return op == sl.OpShouldSave && len(h.w.Debug.Log) > 0
}

func (h debugLogChunk) Save(cw *sl.ChunkWriter) error {
	cw.Dumper().WriteRaw(h.w.Debug.Log)
	return cw.Dumper().Err()
}

func (h debugLogChunk) Load(cr *sl.ChunkReader) error {
	b, err := readBody(cr)
	h.w.Debug.Log = b
	return err
}

// debugConfigChunk is the debug configuration text older builds wrote. It is
// read for compatibility and never written.
type debugConfigChunk struct{ w *world.World }

func (debugConfigChunk) Tag() sl.Tag          { return TagDebugConfig }
func (debugConfigChunk) Flags() sl.ChunkFlags { return sl.ChunkRIFF | sl.ChunkReadOnly }

func (debugConfigChunk) Save(*sl.ChunkWriter) error {
	return errors.New("debug config is read-only")
}

func (h debugConfigChunk) Load(cr *sl.ChunkReader) error {
	b, err := readBody(cr)
	h.w.Debug.Config = string(b)
	return err
}

func readBody(cr *sl.ChunkReader) ([]byte, error) {
	n := cr.Size()
	if n == 0 {
		return nil, nil
	}
	if err := cr.Context().CheckCount(uint32(n), "debug byte"); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	cr.Buffer().CopyInto(b)
	return b, cr.Buffer().Err()
}

// dateChunk stores the calendar. It closes streams written before the
// terminator existed.
type dateChunk struct{ w *world.World }

func (dateChunk) Tag() sl.Tag          { return TagDate }
func (dateChunk) Flags() sl.ChunkFlags { return sl.ChunkRIFF | sl.ChunkLast }

func (h dateChunk) Save(cw *sl.ChunkWriter) error {
	return sl.SaveStruct(cw, dateTable, &h.w.Date)
}

func (h dateChunk) Load(cr *sl.ChunkReader) error {
	return sl.LoadStruct(cr, dateTable, &h.w.Date)
}
