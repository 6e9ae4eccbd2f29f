package log

import (
	"os"
	"path/filepath"

	"github.com/nmatsuda/gobroker/internal/protocol"
)

// segment wraps one .log/.index file pair and coordinates operations
// across the two. Records are length-prefixed JSON, index entries are
// fixed-width ASCII, and offsets stored in the index are absolute, not
// relative to baseOffset.
type segment struct {
	store      *store
	index      *index
	baseOffset uint64
	nextOffset uint64
	config     Config
}

// newSegment opens or creates the segment rooted at dir with the given
// base offset. The log calls this both to bootstrap a fresh partition and
// to create a segment when rolling.
func newSegment(dir string, baseOffset uint64, c Config) (*segment, error) {
	s := &segment{
		baseOffset: baseOffset,
		config:     c,
	}

	name := protocol.SegmentFilename(baseOffset)

	storeFile, err := os.OpenFile(
		filepath.Join(dir, name+".log"),
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0644,
	)
	if err != nil {
		return nil, err
	}
	if s.store, err = newStore(storeFile); err != nil {
		return nil, err
	}

	indexFile, err := os.OpenFile(
		filepath.Join(dir, name+".index"),
		os.O_RDWR|os.O_CREATE,
		0644,
	)
	if err != nil {
		return nil, err
	}
	if s.index, err = newIndex(indexFile, c); err != nil {
		return nil, err
	}

	if off, _, err := s.index.entryAt(-1); err == nil {
		s.nextOffset = off + 1
	} else {
		s.nextOffset = baseOffset
	}

	return s, nil
}

// Append assigns the next offset to the record, encodes it, and appends it
// to the store and index. It rejects the write without mutating anything
// if the encoded record would push the log file past its size limit — the
// caller (partition) is responsible for rolling to a new segment and
// retrying there.
func (s *segment) Append(value, key []byte, timestamp int64, headers map[string][]byte) (offset uint64, err error) {
	cur := s.nextOffset
	payload, err := protocol.EncodeRecordPayload(value, key, timestamp, headers, &cur)
	if err != nil {
		return 0, err
	}

	encodedSize := uint64(protocol.PayloadLengthWidth + len(payload))
	if s.store.Size()+encodedSize > s.config.Segment.MaxStoreBytes {
		return 0, &ExceedSegmentSizeError{RecordSize: len(payload), Limit: s.config.Segment.MaxStoreBytes}
	}

	_, pos, err := s.store.Append(payload)
	if err != nil {
		return 0, err
	}

	if err = s.index.Write(cur, pos); err != nil {
		return 0, err
	}
	s.nextOffset++
	return cur, nil
}

// Read scans the index sequentially for entries at or past startOffset,
// decoding records from the store and accumulating them until adding
// another would exceed maxBytes. A record that alone exceeds maxBytes is
// excluded, even if it's the first one scanned.
func (s *segment) Read(startOffset uint64, maxBytes int) ([]protocol.RecordFields, error) {
	var (
		result    []protocol.RecordFields
		totalSize int
		scanErr   error
	)
	err := s.index.scanFrom(0, func(offset, pos uint64) bool {
		if offset < startOffset {
			return true
		}
		payload, rerr := s.store.Read(pos)
		if rerr != nil {
			scanErr = rerr
			return false
		}
		recordSize := protocol.PayloadLengthWidth + len(payload)
		if totalSize+recordSize > maxBytes {
			return false
		}
		fields, derr := protocol.DecodeRecordPayload(payload)
		if derr != nil {
			scanErr = derr
			return false
		}
		result = append(result, fields)
		totalSize += recordSize
		return true
	})
	if err != nil {
		return nil, err
	}
	if scanErr != nil {
		return nil, scanErr
	}
	return result, nil
}

// NextOffset is this segment's logical end: the offset its next Append
// call would assign.
func (s *segment) NextOffset() uint64 {
	return s.nextOffset
}

// WouldExceed reports whether appending a record of this shape would push
// the segment's log file past its size limit, or finds its index full,
// without mutating anything. Partition uses this to decide when to roll
// before attempting the real Append.
func (s *segment) WouldExceed(value, key []byte, headers map[string][]byte) bool {
	if s.index.size+entWidth > uint64(len(s.index.mmap)) {
		return true
	}
	cur := s.nextOffset
	payload, err := protocol.EncodeRecordPayload(value, key, 0, headers, &cur)
	if err != nil {
		return true
	}
	encodedSize := uint64(protocol.PayloadLengthWidth + len(payload))
	return s.store.Size()+encodedSize > s.config.Segment.MaxStoreBytes
}

func (s *segment) Close() error {
	if err := s.index.Close(); err != nil {
		return err
	}
	return s.store.Close()
}

func (s *segment) Remove() error {
	indexName := s.index.Name()
	storeName := s.store.Name()
	if err := s.Close(); err != nil {
		return err
	}
	if err := os.Remove(indexName); err != nil {
		return err
	}
	return os.Remove(storeName)
}
