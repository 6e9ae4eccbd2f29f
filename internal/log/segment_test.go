package log

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nmatsuda/gobroker/internal/protocol"
)

func testConfig() Config {
	var c Config
	c.Segment.MaxStoreBytes = 1024
	c.Segment.MaxIndexBytes = 1024
	return c.withDefaults()
}

func TestSegment_AppendAssignsOffsetsAndReads(t *testing.T) {
	dir := t.TempDir()
	s, err := newSegment(dir, 0, testConfig())
	require.NoError(t, err)
	defer s.Close()

	off, err := s.Append([]byte("hello"), nil, 1, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(0), off)

	off, err = s.Append([]byte("world"), nil, 2, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(1), off)

	records, err := s.Read(0, 10_000)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, []byte("hello"), records[0].Value)
	require.Equal(t, uint64(0), records[0].Offset)
	require.Equal(t, []byte("world"), records[1].Value)
	require.Equal(t, uint64(1), records[1].Offset)
}

func TestSegment_AppendRejectsOversizeRecord(t *testing.T) {
	dir := t.TempDir()
	var c Config
	c.Segment.MaxStoreBytes = 40
	c.Segment.MaxIndexBytes = 1024
	c = c.withDefaults()

	s, err := newSegment(dir, 0, c)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Append([]byte("this record is much too large to fit"), nil, 1, nil)
	require.Error(t, err)
	var sizeErr *ExceedSegmentSizeError
	require.ErrorAs(t, err, &sizeErr)
}

func TestSegment_RecoversNextOffsetFromExistingIndex(t *testing.T) {
	dir := t.TempDir()
	c := testConfig()

	s, err := newSegment(dir, 0, c)
	require.NoError(t, err)
	_, err = s.Append([]byte("a"), nil, 1, nil)
	require.NoError(t, err)
	_, err = s.Append([]byte("b"), nil, 1, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := newSegment(dir, 0, c)
	require.NoError(t, err)
	defer reopened.Close()
	require.Equal(t, uint64(2), reopened.NextOffset())
}

func TestSegment_ReadRespectsMaxBytes(t *testing.T) {
	dir := t.TempDir()
	s, err := newSegment(dir, 0, testConfig())
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < 5; i++ {
		_, err := s.Append([]byte("payload"), nil, 1, nil)
		require.NoError(t, err)
	}

	records, err := s.Read(0, 10_000)
	require.NoError(t, err)
	require.Len(t, records, 5)

	offset := uint64(0)
	payload, err := protocol.EncodeRecordPayload([]byte("payload"), nil, 1, nil, &offset)
	require.NoError(t, err)
	oneRecordSize := protocol.PayloadLengthWidth + len(payload)

	records, err = s.Read(0, oneRecordSize)
	require.NoError(t, err)
	require.Len(t, records, 1, "budget exactly covering one record returns that record")

	records, err = s.Read(0, oneRecordSize-1)
	require.NoError(t, err)
	require.Empty(t, records, "a record that alone exceeds max_bytes is excluded, not returned anyway")
}
