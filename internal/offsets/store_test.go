package offsets_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	. "github.com/nmatsuda/gobroker/internal/offsets"
)

func TestStore_UpdateThenGet(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	key := Key{Group: "g", Topic: "t1", Partition: 0}
	_, ok := s.Get(key)
	require.False(t, ok)

	s.Update(key, 7)
	got, ok := s.Get(key)
	require.True(t, ok)
	require.Equal(t, uint64(7), got)
}

func TestStore_CommitRoundTripsThroughDisk(t *testing.T) {
	root := t.TempDir()
	s, err := NewStore(root)
	require.NoError(t, err)

	key := Key{Group: "g", Topic: "t1", Partition: 0}
	s.Update(key, 7)
	require.NoError(t, s.Commit())

	reopened, err := NewStore(root)
	require.NoError(t, err)
	got, ok := reopened.Get(key)
	require.True(t, ok)
	require.Equal(t, uint64(7), got)
}

func TestStore_LastWriterWinsWithinProcess(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	key := Key{Group: "g", Topic: "t1", Partition: 0}
	s.Update(key, 1)
	s.Update(key, 2)
	got, ok := s.Get(key)
	require.True(t, ok)
	require.Equal(t, uint64(2), got)
}

func TestStore_LoadFromEmptyRootStartsEmpty(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, ok := s.Get(Key{Group: "g", Topic: "t1", Partition: 0})
	require.False(t, ok)
}
