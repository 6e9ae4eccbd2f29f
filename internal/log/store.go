package log

import (
	"bufio"
	"os"
	"sync"

	"github.com/nmatsuda/gobroker/internal/protocol"
)

// store is a segment's log file: a flat append-only sequence of
// length-prefixed record payloads, buffered over an os.File. The length
// prefix is the wire protocol's 4-digit ASCII decimal
// (protocol.PayloadLengthWidth), matching the on-disk format byte-for-byte.
type store struct {
	*os.File
	mu   sync.RWMutex
	buf  *bufio.Writer
	size uint64
}

func newStore(f *os.File) (*store, error) {
	// get the file size
	fi, err := os.Stat(f.Name())
	if err != nil {
		return nil, err
	}

	// in case we're recreating the store from a file that has existing data
	// which would happen if our service had restarted
	size := uint64(fi.Size())
	return &store{
		File: f,
		size: size,
		buf:  bufio.NewWriter(f),
	}, nil
}

// Append writes the length-prefixed payload and returns the number of
// bytes written and the position (within the log file) where its length
// prefix begins — the position a segment records in its index.
func (s *store) Append(payload []byte) (n uint64, pos uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos = s.size
	prefix, err := protocol.EncodeLengthPrefix(len(payload))
	if err != nil {
		return 0, 0, err
	}
	if _, err = s.buf.Write(prefix); err != nil {
		return 0, 0, err
	}

	w, err := s.buf.Write(payload)
	if err != nil {
		return 0, 0, err
	}

	written := uint64(w + len(prefix))
	s.size += written
	// flushed before returning so a concurrent reader never observes a
	// log-file prefix that isn't on disk yet.
	if err := s.buf.Flush(); err != nil {
		return 0, 0, err
	}
	return written, pos, nil
}

// Read returns the record payload (without its length prefix) starting at
// the given byte position.
func (s *store) Read(pos uint64) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.buf.Flush(); err != nil {
		return nil, err
	}

	prefix := make([]byte, protocol.PayloadLengthWidth)
	if _, err := s.File.ReadAt(prefix, int64(pos)); err != nil {
		return nil, err
	}
	length, err := protocol.DecodeLengthPrefix(prefix)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, length)
	if length > 0 {
		if _, err := s.File.ReadAt(payload, int64(pos)+int64(protocol.PayloadLengthWidth)); err != nil {
			return nil, err
		}
	}
	return payload, nil
}

// ReadAt reads len(p) bytes into p starting at the off offset in the store's file.
func (s *store) ReadAt(p []byte, off int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.buf.Flush(); err != nil {
		return 0, err
	}

	return s.File.ReadAt(p, off)
}

func (s *store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.buf.Flush()
	if err != nil {
		return err
	}
	return s.File.Close()
}

// Size returns the current size of the store's file, including bytes that
// have been written to the buffered writer but not yet reported via Stat.
func (s *store) Size() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}
