package log

// Config bounds a segment's two files. MaxIndexBytes bounds an ASCII
// fixed-width index (32 bytes/entry). A partition's first segment always
// starts at offset 0, so there is no InitialOffset field to carry.
type Config struct {
	Segment struct {
		// MaxStoreBytes is the segment size limit: a segment's log file
		// may never grow past this many bytes.
		MaxStoreBytes uint64
		// MaxIndexBytes bounds the mmap-backed index file. Must be a
		// multiple of protocol.IndexEntryWidth (32).
		MaxIndexBytes uint64
	}
}

const (
	defaultMaxStoreBytes = 1024 * 1024
	// 4096 entries * 32 bytes/entry. A segment rolls when either file is
	// full, so with records averaging under 256 bytes the index, not
	// MaxStoreBytes, ends a segment.
	defaultMaxIndexBytes = 4096 * 32
)

func (c Config) withDefaults() Config {
	if c.Segment.MaxStoreBytes == 0 {
		c.Segment.MaxStoreBytes = defaultMaxStoreBytes
	}
	if c.Segment.MaxIndexBytes == 0 {
		c.Segment.MaxIndexBytes = defaultMaxIndexBytes
	}
	return c
}
