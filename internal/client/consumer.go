package client

import (
	"encoding/json"
	"fmt"

	"github.com/nmatsuda/gobroker/internal/protocol"
)

// FetchedRecord is one record returned by a Fetch call.
type FetchedRecord struct {
	Value     []byte
	Key       []byte
	Timestamp int64
	Headers   map[string][]byte
	Offset    uint64
}

// ConsumerClient issues Fetch and OffsetCommit requests.
type ConsumerClient struct {
	conn *Conn
}

func NewConsumerClient(conn *Conn) *ConsumerClient {
	return &ConsumerClient{conn: conn}
}

// Fetch requests records from (topic, partition) starting at offset,
// bounded to maxBytes.
func (c *ConsumerClient) Fetch(topic string, partition uint32, offset uint64, maxBytes int) ([]FetchedRecord, error) {
	payload, err := json.Marshal(fetchRequest{Topic: topic, Partition: partition, Offset: offset, MaxBytes: maxBytes})
	if err != nil {
		return nil, err
	}
	cid, err := c.conn.send(protocol.Fetch, payload)
	if err != nil {
		return nil, err
	}
	ch, err := c.conn.dispatcher.link(cid)
	if err != nil {
		return nil, err
	}
	result := <-ch
	if result.err != nil {
		return nil, result.err
	}

	var resp fetchResponse
	if err := json.Unmarshal(result.payload, &resp); err != nil {
		return nil, fmt.Errorf("client: decode Fetch response: %w", err)
	}
	if resp.ErrorCode != protocol.ErrCodeSuccess {
		msg := ""
		if resp.ErrorMessage != nil {
			msg = *resp.ErrorMessage
		}
		return nil, fmt.Errorf("client: Fetch failed: code %d: %s", resp.ErrorCode, msg)
	}

	out := make([]FetchedRecord, len(resp.Records))
	for i, r := range resp.Records {
		out[i] = FetchedRecord{Value: r.Value, Key: r.Key, Timestamp: r.Timestamp, Headers: r.Headers, Offset: r.Offset}
	}
	return out, nil
}

// CommitOffset reports this consumer group's progress on (topic,
// partition) to the broker.
func (c *ConsumerClient) CommitOffset(groupID, topic string, partition uint32, offset uint64) error {
	payload, err := json.Marshal(offsetCommitRequest{
		GroupID: groupID,
		Topics:  []offsetCommitRequestEntry{{Topic: topic, Partition: partition, Offset: offset}},
	})
	if err != nil {
		return err
	}
	cid, err := c.conn.send(protocol.OffsetCommit, payload)
	if err != nil {
		return err
	}
	ch, err := c.conn.dispatcher.link(cid)
	if err != nil {
		return err
	}
	result := <-ch
	if result.err != nil {
		return result.err
	}

	var resp offsetCommitResponse
	if err := json.Unmarshal(result.payload, &resp); err != nil {
		return fmt.Errorf("client: decode OffsetCommit response: %w", err)
	}
	for _, t := range resp.Topics {
		if t.ErrorCode != protocol.ErrCodeSuccess {
			msg := ""
			if t.ErrorMessage != nil {
				msg = *t.ErrorMessage
			}
			return fmt.Errorf("client: OffsetCommit failed for %s-%d: code %d: %s", t.Topic, t.Partition, t.ErrorCode, msg)
		}
	}
	return nil
}
