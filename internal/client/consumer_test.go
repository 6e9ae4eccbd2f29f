package client

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nmatsuda/gobroker/internal/protocol"
)

func TestConsumerClient_FetchDecodesRecords(t *testing.T) {
	addr := echoServer(t, func(req protocol.Frame) protocol.Frame {
		payload, _ := json.Marshal(fetchResponse{
			Topic: "t1", Partition: 0, ErrorCode: protocol.ErrCodeSuccess,
			Records: []recordResult{{Value: []byte("hi"), Offset: 3, Timestamp: 42}},
		})
		return protocol.Frame{CorrelationID: req.CorrelationID, APIKey: req.APIKey, Payload: payload}
	})
	conn, err := Dial(addr)
	require.NoError(t, err)
	defer conn.Close()

	consumer := NewConsumerClient(conn)
	records, err := consumer.Fetch("t1", 0, 3, 4096)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, []byte("hi"), records[0].Value)
	require.Equal(t, uint64(3), records[0].Offset)
	require.Equal(t, int64(42), records[0].Timestamp)
}

func TestConsumerClient_CommitOffsetReturnsErrorOnFailure(t *testing.T) {
	addr := echoServer(t, func(req protocol.Frame) protocol.Frame {
		msg := "partition not found"
		payload, _ := json.Marshal(offsetCommitResponse{Topics: []offsetCommitResult{
			{Topic: "t1", Partition: 0, ErrorCode: protocol.ErrCodePartitionNotFoundRO, ErrorMessage: &msg},
		}})
		return protocol.Frame{CorrelationID: req.CorrelationID, APIKey: req.APIKey, Payload: payload}
	})
	conn, err := Dial(addr)
	require.NoError(t, err)
	defer conn.Close()

	consumer := NewConsumerClient(conn)
	err = consumer.CommitOffset("g", "t1", 0, 5)
	require.Error(t, err)
}
