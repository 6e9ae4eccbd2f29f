package client

import (
	"encoding/json"
	"fmt"

	"github.com/nmatsuda/gobroker/internal/protocol"
)

// RecordMetadata is what a successful Produce resolves each record to.
type RecordMetadata struct {
	Topic     string
	Partition uint32
	Offset    uint64
	Timestamp int64
}

// ProducerRecord is one record to append, mirroring the broker's Produce
// request record shape.
type ProducerRecord struct {
	Value     []byte
	Key       []byte
	Timestamp *int64
	Headers   map[string][]byte
}

// ProducerClient issues Produce requests directly and awaits their
// correlated responses. There is no background batching accumulator or
// sender: this client issues one correlated Produce call per caller
// invocation instead of accumulating records into batches behind the
// scenes.
type ProducerClient struct {
	conn *Conn
}

func NewProducerClient(conn *Conn) *ProducerClient {
	return &ProducerClient{conn: conn}
}

// Produce sends records to (topic, partition) and returns each record's
// resulting metadata in request order, or the server's reported error.
func (p *ProducerClient) Produce(topic string, partition uint32, records []ProducerRecord) ([]RecordMetadata, error) {
	reqRecords := make([]produceRequestRecord, len(records))
	for i, r := range records {
		reqRecords[i] = produceRequestRecord{Value: r.Value, Key: r.Key, Timestamp: r.Timestamp, Headers: r.Headers}
	}
	payload, err := json.Marshal(produceRequest{Topic: topic, Partition: partition, Records: reqRecords})
	if err != nil {
		return nil, err
	}

	cid, err := p.conn.send(protocol.Produce, payload)
	if err != nil {
		return nil, err
	}
	ch, err := p.conn.dispatcher.linkProduce(cid)
	if err != nil {
		return nil, err
	}
	result := <-ch
	if result.err != nil {
		return nil, result.err
	}

	var resp produceResponsePayload
	if err := json.Unmarshal(result.payload, &resp); err != nil {
		return nil, fmt.Errorf("client: decode Produce response: %w", err)
	}
	if resp.ErrorCode != protocol.ErrCodeSuccess {
		msg := ""
		if resp.ErrorMessage != nil {
			msg = *resp.ErrorMessage
		}
		return nil, fmt.Errorf("client: Produce failed: code %d: %s", resp.ErrorCode, msg)
	}

	out := make([]RecordMetadata, len(records))
	for i, r := range records {
		ts := int64(0)
		if r.Timestamp != nil {
			ts = *r.Timestamp
		}
		out[i] = RecordMetadata{
			Topic:     resp.Topic,
			Partition: resp.Partition,
			Offset:    uint64(resp.BaseOffset) + uint64(i),
			Timestamp: ts,
		}
	}
	return out, nil
}
