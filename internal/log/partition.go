package log

import (
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/nmatsuda/gobroker/internal/protocol"
)

// Partition is an ordered list of segments rooted at one directory. A
// partition's first segment always starts at offset 0, so there is no
// configurable initial offset.
type Partition struct {
	mu sync.RWMutex

	Dir    string
	Config Config

	activeSegment *segment
	segments      []*segment
}

// NewPartition opens (or creates) the partition rooted at dir, recovering
// its segments from disk if any exist.
func NewPartition(dir string, c Config) (*Partition, error) {
	c = c.withDefaults()
	p := &Partition{
		Dir:    dir,
		Config: c,
	}
	return p, p.setup()
}

func (p *Partition) setup() error {
	files, err := os.ReadDir(p.Dir)
	if err != nil {
		return err
	}

	seen := map[uint64]bool{}
	var baseOffsets []uint64
	for _, file := range files {
		name := file.Name()
		if !strings.HasSuffix(name, ".log") {
			continue
		}
		offStr := strings.TrimSuffix(name, ".log")
		off, err := strconv.ParseUint(offStr, 10, 64)
		if err != nil {
			continue
		}
		if !seen[off] {
			seen[off] = true
			baseOffsets = append(baseOffsets, off)
		}
	}

	slices.SortFunc(baseOffsets, func(a, b uint64) int {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	})

	for _, off := range baseOffsets {
		if err := p.newSegment(off); err != nil {
			return err
		}
	}

	if p.segments == nil {
		if err := p.newSegment(0); err != nil {
			return err
		}
	}

	p.activeSegment = p.segments[len(p.segments)-1]
	return nil
}

func (p *Partition) newSegment(baseOffset uint64) error {
	s, err := newSegment(p.Dir, baseOffset, p.Config)
	if err != nil {
		return err
	}
	p.segments = append(p.segments, s)
	p.activeSegment = s
	return nil
}

// Append appends one record, rolling to a new segment first if the active
// segment can't fit it.
func (p *Partition) Append(value, key []byte, timestamp int64, headers map[string][]byte) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.activeSegment.WouldExceed(value, key, headers) {
		if err := p.newSegment(p.activeSegment.NextOffset()); err != nil {
			return 0, err
		}
	}

	off, err := p.activeSegment.Append(value, key, timestamp, headers)
	if err != nil {
		return 0, err
	}
	return off, nil
}

// Fetch returns records starting at startOffset, across as many segments
// as needed, until maxBytes is reached. Returns InvalidOffsetError if
// startOffset is past the partition's log-end offset.
func (p *Partition) Fetch(startOffset uint64, maxBytes int) ([]protocol.RecordFields, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if startOffset > p.logEndOffsetLocked() {
		return nil, &InvalidOffsetError{Reason: "start offset is past the log end offset"}
	}

	var result []protocol.RecordFields
	remaining := maxBytes
	for _, s := range p.segments {
		if s.NextOffset() <= startOffset {
			// this segment's highest offset is below startOffset: entirely
			// behind the requested range.
			continue
		}

		segStart := startOffset
		if segStart < s.baseOffset {
			segStart = s.baseOffset
		}

		recs, err := s.Read(segStart, remaining)
		if err != nil {
			return nil, err
		}
		for _, r := range recs {
			size := protocol.PayloadLengthWidth + approxRecordSize(r)
			if len(result) > 0 && size > remaining {
				return result, nil
			}
			result = append(result, r)
			remaining -= size
		}
		if remaining <= 0 {
			break
		}
	}
	return result, nil
}

// approxRecordSize is used only to track the fetch byte budget across
// segment boundaries; the authoritative per-segment budget enforcement
// happens inside segment.Read.
func approxRecordSize(r protocol.RecordFields) int {
	return len(r.Value) + len(r.Key) + 64
}

// LogEndOffset is the offset that would be assigned to the next appended
// record.
func (p *Partition) LogEndOffset() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.logEndOffsetLocked()
}

func (p *Partition) logEndOffsetLocked() uint64 {
	return p.activeSegment.NextOffset()
}

func (p *Partition) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.segments {
		if err := s.Close(); err != nil {
			return err
		}
	}
	return nil
}

// Name returns the "<topic>-<partition>" directory basename.
func (p *Partition) Name() string {
	return filepath.Base(p.Dir)
}
