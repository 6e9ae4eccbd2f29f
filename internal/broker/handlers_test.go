package broker

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nmatsuda/gobroker/internal/log"
	"github.com/nmatsuda/gobroker/internal/offsets"
	"github.com/nmatsuda/gobroker/internal/protocol"
)

func newTestHandlers(t *testing.T) *Handlers {
	var c log.Config
	c.Segment.MaxStoreBytes = 1 << 20
	c.Segment.MaxIndexBytes = 1 << 16

	storage, err := log.NewLogStorage(t.TempDir(), c)
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	offStore, err := offsets.NewStore(t.TempDir())
	require.NoError(t, err)

	return NewHandlers(storage, offStore, nil)
}

func decodePayload(t *testing.T, frame protocol.Frame, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(frame.Payload, v))
}

// exercises creating a topic and listing it back.
func TestCreateTopics_ThenListTopics(t *testing.T) {
	h := newTestHandlers(t)

	createReq := protocol.Frame{
		CorrelationID: 1, APIKey: protocol.CreateTopics,
		Payload: mustJSON(t, createTopicsRequest{Topics: []createTopicsRequestTopic{{Name: "t1", NumPartitions: 2}}}),
	}
	resp := h.CreateTopics(createReq)
	var createResp createTopicsResponse
	decodePayload(t, resp, &createResp)
	require.Len(t, createResp.Topics, 1)
	require.Equal(t, "t1", createResp.Topics[0].Name)
	require.Equal(t, protocol.ErrCodeSuccess, createResp.Topics[0].ErrorCode)
	require.Nil(t, createResp.Topics[0].ErrorMessage)

	listReq := protocol.Frame{CorrelationID: 2, APIKey: protocol.ListTopics}
	listResp := h.ListTopics(listReq)
	var list listTopicsResponse
	decodePayload(t, listResp, &list)
	require.ElementsMatch(t, []string{"t1"}, list.Topics)
}

// exercises a single produce followed by a fetch of the same record.
func TestProduce_ThenFetch(t *testing.T) {
	h := newTestHandlers(t)
	require.NoError(t, h.Storage.InitTopic("t1", 1))

	ts := int64(1)
	produceReq := protocol.Frame{
		CorrelationID: 3, APIKey: protocol.Produce,
		Payload: mustJSON(t, produceRequest{
			Topic: "t1", Partition: 0,
			Records: []produceRequestRecord{{Value: []byte("hello"), Timestamp: &ts, Headers: map[string][]byte{}}},
		}),
	}
	produceResp := h.Produce(produceReq)
	var produce produceResponse
	decodePayload(t, produceResp, &produce)
	require.Equal(t, protocol.ErrCodeSuccess, produce.ErrorCode)
	require.EqualValues(t, 0, produce.BaseOffset)

	fetchReq := protocol.Frame{
		CorrelationID: 4, APIKey: protocol.Fetch,
		Payload: mustJSON(t, fetchRequest{Topic: "t1", Partition: 0, Offset: 0, MaxBytes: 1024}),
	}
	fetchResp := h.Fetch(fetchReq)
	var fetched fetchResponse
	decodePayload(t, fetchResp, &fetched)
	require.Equal(t, protocol.ErrCodeSuccess, fetched.ErrorCode)
	require.Len(t, fetched.Records, 1)
	require.Equal(t, []byte("hello"), fetched.Records[0].Value)
	require.Equal(t, int64(1), fetched.Records[0].Timestamp)
	require.Equal(t, uint64(0), fetched.Records[0].Offset)
}

// exercises producing to a partition number the topic was not created with.
func TestProduce_ToMissingPartition(t *testing.T) {
	h := newTestHandlers(t)
	require.NoError(t, h.Storage.InitTopic("t1", 2))

	produceReq := protocol.Frame{
		CorrelationID: 1, APIKey: protocol.Produce,
		Payload: mustJSON(t, produceRequest{
			Topic: "t1", Partition: 9,
			Records: []produceRequestRecord{{Value: []byte("x")}},
		}),
	}
	resp := h.Produce(produceReq)
	var produce produceResponse
	decodePayload(t, resp, &produce)
	require.Equal(t, protocol.ErrCodePartitionNotFound, produce.ErrorCode)
	require.EqualValues(t, -1, produce.BaseOffset)
	require.NotNil(t, produce.ErrorMessage)
}

// exercises committing a consumer group's offset and reading it back.
func TestOffsetCommit_ThenGet(t *testing.T) {
	h := newTestHandlers(t)
	require.NoError(t, h.Storage.InitTopic("t1", 1))

	commitReq := protocol.Frame{
		CorrelationID: 1, APIKey: protocol.OffsetCommit,
		Payload: mustJSON(t, offsetCommitRequest{
			GroupID: "g",
			Topics:  []offsetCommitRequestEntry{{Topic: "t1", Partition: 0, Offset: 7}},
		}),
	}
	resp := h.OffsetCommit(commitReq)
	var committed offsetCommitResponse
	decodePayload(t, resp, &committed)
	require.Len(t, committed.Topics, 1)
	require.Equal(t, protocol.ErrCodeSuccess, committed.Topics[0].ErrorCode)

	off, ok := h.Offsets.Get(offsets.Key{Group: "g", Topic: "t1", Partition: 0})
	require.True(t, ok)
	require.Equal(t, uint64(7), off)
}

// exercises rejecting a CreateTopics request that repeats a topic name,
// and leaves the topic uncreated.
func TestCreateTopics_RejectsDuplicateNameWithinRequest(t *testing.T) {
	h := newTestHandlers(t)

	resp := h.CreateTopics(protocol.Frame{
		CorrelationID: 1, APIKey: protocol.CreateTopics,
		Payload: mustJSON(t, createTopicsRequest{Topics: []createTopicsRequestTopic{
			{Name: "dup", NumPartitions: 1},
			{Name: "dup", NumPartitions: 3},
		}}),
	})
	var createResp createTopicsResponse
	decodePayload(t, resp, &createResp)
	require.Len(t, createResp.Topics, 2)
	for _, r := range createResp.Topics {
		require.Equal(t, "dup", r.Name)
		require.Equal(t, protocol.ErrCodeInvalidAdminCommand, r.ErrorCode)
		require.NotNil(t, r.ErrorMessage)
	}

	listResp := h.ListTopics(protocol.Frame{CorrelationID: 2, APIKey: protocol.ListTopics})
	var list listTopicsResponse
	decodePayload(t, listResp, &list)
	require.Empty(t, list.Topics)
}

// exercises re-creating an already-existing topic as a successful no-op
// that leaves its data untouched.
func TestCreateTopics_IsIdempotentOnExistingTopic(t *testing.T) {
	h := newTestHandlers(t)
	require.NoError(t, h.Storage.InitTopic("t1", 1))
	_, err := h.Storage.AppendPartition("t1", 0, []byte("hello"), nil, 1, nil)
	require.NoError(t, err)

	resp := h.CreateTopics(protocol.Frame{
		CorrelationID: 1, APIKey: protocol.CreateTopics,
		Payload: mustJSON(t, createTopicsRequest{Topics: []createTopicsRequestTopic{{Name: "t1", NumPartitions: 1}}}),
	})
	var createResp createTopicsResponse
	decodePayload(t, resp, &createResp)
	require.Len(t, createResp.Topics, 1)
	require.Equal(t, protocol.ErrCodeSuccess, createResp.Topics[0].ErrorCode)

	records, err := h.Storage.ListLogs("t1", 0, 0, 10_000)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestProduce_RejectsEmptyRecords(t *testing.T) {
	h := newTestHandlers(t)
	require.NoError(t, h.Storage.InitTopic("t1", 1))

	resp := h.Produce(protocol.Frame{
		CorrelationID: 1, APIKey: protocol.Produce,
		Payload: mustJSON(t, produceRequest{Topic: "t1", Partition: 0, Records: nil}),
	})
	var produce produceResponse
	decodePayload(t, resp, &produce)
	require.EqualValues(t, -1, produce.BaseOffset)
	require.NotEqual(t, protocol.ErrCodeSuccess, produce.ErrorCode)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
