package log

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogStorage_InitTopicCreatesPartitions(t *testing.T) {
	ls, err := NewLogStorage(t.TempDir(), testConfig())
	require.NoError(t, err)
	defer ls.Close()

	require.NoError(t, ls.InitTopic("t1", 2))
	require.Equal(t, map[string]int{"t1": 2}, ls.ListTopics())

	off, err := ls.LogEndOffset("t1", 0)
	require.NoError(t, err)
	require.Equal(t, uint64(0), off)
}

func TestLogStorage_InitTopicRejectsNonPositivePartitions(t *testing.T) {
	ls, err := NewLogStorage(t.TempDir(), testConfig())
	require.NoError(t, err)
	defer ls.Close()

	err = ls.InitTopic("t1", 0)
	require.Error(t, err)
	var cmdErr *InvalidAdminCommandError
	require.ErrorAs(t, err, &cmdErr)
}

func TestLogStorage_InitTopicIsIdempotentOnExistingTopic(t *testing.T) {
	ls, err := NewLogStorage(t.TempDir(), testConfig())
	require.NoError(t, err)
	defer ls.Close()

	require.NoError(t, ls.InitTopic("t1", 1))
	off, err := ls.AppendPartition("t1", 0, []byte("hello"), nil, 1, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(0), off)

	require.NoError(t, ls.InitTopic("t1", 1))
	require.Equal(t, map[string]int{"t1": 1}, ls.ListTopics())

	records, err := ls.ListLogs("t1", 0, 0, 10_000)
	require.NoError(t, err)
	require.Len(t, records, 1, "re-initializing an existing topic must not touch its data")
	require.Equal(t, []byte("hello"), records[0].Value)
}

func TestLogStorage_AppendAndFetchRoundTrip(t *testing.T) {
	ls, err := NewLogStorage(t.TempDir(), testConfig())
	require.NoError(t, err)
	defer ls.Close()

	require.NoError(t, ls.InitTopic("t1", 1))
	off, err := ls.AppendPartition("t1", 0, []byte("hello"), nil, 1, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(0), off)

	records, err := ls.ListLogs("t1", 0, 0, 10_000)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, []byte("hello"), records[0].Value)
}

func TestLogStorage_PartitionNotFound(t *testing.T) {
	ls, err := NewLogStorage(t.TempDir(), testConfig())
	require.NoError(t, err)
	defer ls.Close()

	require.NoError(t, ls.InitTopic("t1", 1))
	_, err = ls.AppendPartition("t1", 9, []byte("x"), nil, 1, nil)
	require.Error(t, err)
	var notFoundErr *PartitionNotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestLogStorage_RecoversFromRoot(t *testing.T) {
	root := t.TempDir()
	c := testConfig()

	ls, err := NewLogStorage(root, c)
	require.NoError(t, err)
	require.NoError(t, ls.InitTopic("t1", 2))
	_, err = ls.AppendPartition("t1", 0, []byte("a"), nil, 1, nil)
	require.NoError(t, err)
	_, err = ls.AppendPartition("t1", 0, []byte("b"), nil, 1, nil)
	require.NoError(t, err)
	require.NoError(t, ls.Close())

	reopened, err := NewLogStorage(root, c)
	require.NoError(t, err)
	defer reopened.Close()

	require.Equal(t, map[string]int{"t1": 2}, reopened.ListTopics())
	off, err := reopened.LogEndOffset("t1", 0)
	require.NoError(t, err)
	require.Equal(t, uint64(2), off)
}
