package saveload

// Logger is the subset of a structured logger the engine reports through.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}

const (
	DefaultMaxElements  = 1 << 24
	DefaultMaxStringLen = 1 << 16
)

// Limits bound the allocations a stream can request.
type Limits struct {
	// MaxElements caps any count prefix (rows, list elements, pool indexes).
	MaxElements int
	// MaxStringLen caps a single string or byte payload.
	MaxStringLen int
}

func (l Limits) maxElements() int {
	if l.MaxElements <= 0 {
		return DefaultMaxElements
	}
	return l.MaxElements
}

func (l Limits) maxStringLen() int {
	if l.MaxStringLen <= 0 {
		return DefaultMaxStringLen
	}
	return l.MaxStringLen
}

// Context is the per-pass state handed to every chunk callback. Version and
// Features are fixed once the stream header has been processed.
type Context struct {
	Version  Version
	Features FeatureSet
	Format   Format
	Limits   Limits
	Log      Logger
}

// LegacyStrings reports whether strings in this stream are Windows-1252.
func (c *Context) LegacyStrings() bool { return c.Version < c.Format.UTF8StringsSince }

// TablesAllowed reports whether Table chunks may appear in this stream.
func (c *Context) TablesAllowed() bool { return c.Version >= c.Format.TableSince }

// CheckCount validates a count prefix against the element limit.
func (c *Context) CheckCount(n uint32, what string) error {
	if int64(n) > int64(c.Limits.maxElements()) {
		return limitf("%s count %d exceeds limit %d", what, n, c.Limits.maxElements())
	}
	return nil
}

func (c *Context) logger() Logger {
	if c.Log == nil {
		return nopLogger{}
	}
	return c.Log
}
