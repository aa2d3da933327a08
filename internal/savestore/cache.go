package savestore

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/ugorji/go/codec"

	sl "github.com/samcharles93/tilesave/pkg/saveload"

	"github.com/samcharles93/tilesave/internal/chunks"
)

// CacheFile is the summary cache kept next to the saves.
const CacheFile = ".summaries"

var codecHandler = newCodecHandle()

func newCodecHandle() *codec.MsgpackHandle {
	h := &codec.MsgpackHandle{}
	h.RawToString = true
	return h
}

// ChunkStat is one chunk of a listed save.
type ChunkStat struct {
	Tag   string `codec:"tag" json:"tag"`
	Type  string `codec:"type" json:"type"`
	Bytes int64  `codec:"bytes" json:"bytes"`
	Rows  int    `codec:"rows" json:"rows,omitempty"`
}

// Info describes a stored save as Check saw it. Err is set when the save does
// not pass Check; the other summary fields are then empty.
type Info struct {
	Name        string            `codec:"name" json:"name"`
	Size        int64             `codec:"size" json:"size"`
	ModTime     time.Time         `codec:"-" json:"mod_time"`
	Version     uint16            `codec:"version" json:"version,omitempty"`
	Compression string            `codec:"compression" json:"compression,omitempty"`
	Features    map[string]uint16 `codec:"features" json:"features,omitempty"`
	MapSizeX    uint32            `codec:"map_x" json:"map_size_x,omitempty"`
	MapSizeY    uint32            `codec:"map_y" json:"map_size_y,omitempty"`
	Chunks      []ChunkStat       `codec:"chunks" json:"chunks,omitempty"`
	Err         string            `codec:"err" json:"error,omitempty"`

	// Stored in place of ModTime so the cache does not depend on a time extension.
	ModNanos int64 `codec:"mtime" json:"-"`
}

// OK reports whether the save passed Check.
func (i Info) OK() bool { return i.Err == "" }

func (i Info) fresh(st fs.FileInfo) bool {
	return i.Size == st.Size() && i.ModNanos == st.ModTime().UnixNano()
}

func newInfo(name string, st fs.FileInfo, s *sl.Summary, checkErr error) Info {
	info := Info{
		Name:     name,
		Size:     st.Size(),
		ModTime:  st.ModTime(),
		ModNanos: st.ModTime().UnixNano(),
	}
	if checkErr != nil {
		info.Err = checkErr.Error()
		return info
	}
	info.Version = uint16(s.Version)
	info.Compression = s.Compression
	info.Features = map[string]uint16(s.Features)
	info.MapSizeX, info.MapSizeY, _ = chunks.MapSize(s)
	for _, ci := range s.Chunks {
		info.Chunks = append(info.Chunks, ChunkStat{
			Tag:   ci.Tag.String(),
			Type:  ci.Type.String(),
			Bytes: ci.Bytes,
			Rows:  ci.Rows,
		})
	}
	return info
}

func encodeCache(w io.Writer, entries map[string]Info) error {
	return codec.NewEncoder(w, codecHandler).Encode(entries)
}

func decodeCache(r io.Reader) (map[string]Info, error) {
	entries := make(map[string]Info)
	if err := codec.NewDecoder(r, codecHandler).Decode(&entries); err != nil {
		return nil, err
	}
	for name, info := range entries {
		info.ModTime = time.Unix(0, info.ModNanos)
		entries[name] = info
	}
	return entries, nil
}

// readCache loads the persisted summaries. A missing cache is empty.
func readCache(path string) (map[string]Info, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]Info), nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return decodeCache(f)
}
