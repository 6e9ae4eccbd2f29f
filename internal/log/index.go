package log

import (
	"io"
	"os"

	"github.com/tysonmote/gommap"

	"github.com/nmatsuda/gobroker/internal/protocol"
)

// entWidth is the fixed width of one index entry: the index file is a
// concatenation of 32-ASCII-digit entries (16 for the record's absolute
// offset, 16 for its byte position in the log file). Entries store the
// record's absolute offset, not an offset relative to the segment's base,
// and use ASCII decimal text rather than binary integers so the on-disk
// bytes are readable with any text tool.
const entWidth = uint64(protocol.IndexEntryWidth)

// index is a segment's index file: a memory-mapped, fixed-width-entry
// sidecar to the log file, grown to its configured max size on open and
// truncated back down to the bytes actually used on close. Entries are
// ASCII decimal rather than binary uint32/uint64.
type index struct {
	file *os.File
	mmap gommap.MMap
	size uint64
}

// newIndex opens (or creates) an index file, grows it to the segment's
// configured MaxIndexBytes (mmap'd regions can't be resized in place), and
// memory-maps it. Close truncates back down to the bytes actually used.
func newIndex(f *os.File, c Config) (*index, error) {
	idx := &index{file: f}

	fi, err := os.Stat(f.Name())
	if err != nil {
		return nil, err
	}
	idx.size = uint64(fi.Size())

	if err := os.Truncate(f.Name(), int64(c.Segment.MaxIndexBytes)); err != nil {
		return nil, err
	}

	if idx.mmap, err = gommap.Map(
		idx.file.Fd(),
		gommap.PROT_READ|gommap.PROT_WRITE,
		gommap.MAP_SHARED,
	); err != nil {
		return nil, err
	}

	return idx, nil
}

func (i *index) Close() error {
	if err := i.mmap.Sync(gommap.MS_SYNC); err != nil {
		return err
	}
	if err := i.file.Sync(); err != nil {
		return err
	}
	if err := i.file.Truncate(int64(i.size)); err != nil {
		return err
	}
	return i.file.Close()
}

// entryAt returns the n-th entry (0-indexed) written to this index.
// entryAt(-1) returns the last entry. io.EOF means there is no such entry.
func (i *index) entryAt(n int64) (offset, pos uint64, err error) {
	if i.size == 0 {
		return 0, 0, io.EOF
	}

	var idx uint64
	if n == -1 {
		idx = i.size/entWidth - 1
	} else {
		idx = uint64(n)
	}

	bytePos := idx * entWidth
	if i.size < bytePos+entWidth {
		return 0, 0, io.EOF
	}
	return protocol.DecodeIndexEntry(i.mmap[bytePos : bytePos+entWidth])
}

// scanFrom sequentially visits entries starting at entry index n
// (0-indexed) until visit returns false or the entries run out.
func (i *index) scanFrom(n int64, visit func(offset, pos uint64) bool) error {
	for {
		offset, pos, err := i.entryAt(n)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if !visit(offset, pos) {
			return nil
		}
		n++
	}
}

// Write appends one (offset, position) entry.
func (i *index) Write(offset, pos uint64) error {
	if uint64(len(i.mmap)) < i.size+entWidth {
		return io.EOF
	}
	copy(i.mmap[i.size:i.size+entWidth], protocol.EncodeIndexEntry(offset, pos))
	i.size += entWidth
	return nil
}

// Len reports how many entries have been written.
func (i *index) Len() uint64 {
	return i.size / entWidth
}

func (i *index) Name() string {
	return i.file.Name()
}
