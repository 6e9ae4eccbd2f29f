package client

import (
	"encoding/json"
	"fmt"

	"github.com/nmatsuda/gobroker/internal/protocol"
)

// AdminClient issues CreateTopics/ListTopics requests and awaits their
// correlated responses. The connection's dispatch loop runs in its own
// goroutine, so the blocking channel receive here only blocks the
// calling goroutine, not the whole process.
type AdminClient struct {
	conn *Conn
}

func NewAdminClient(conn *Conn) *AdminClient {
	return &AdminClient{conn: conn}
}

// NewTopic names one topic to create. There is no replication_factor
// field: this broker is single-node, so it has no meaning here.
type NewTopic struct {
	Name          string
	NumPartitions int
}

// TopicResult is one topic's outcome from a CreateTopics call.
type TopicResult struct {
	Name         string
	ErrorCode    int
	ErrorMessage string
}

// CreateTopics requests creation of every named topic and returns each
// one's outcome, in request order.
func (a *AdminClient) CreateTopics(topics []NewTopic) ([]TopicResult, error) {
	reqTopics := make([]createTopicsRequestTopic, len(topics))
	for i, t := range topics {
		reqTopics[i] = createTopicsRequestTopic{Name: t.Name, NumPartitions: t.NumPartitions}
	}
	payload, err := json.Marshal(createTopicsRequest{Topics: reqTopics})
	if err != nil {
		return nil, err
	}

	cid, err := a.conn.send(protocol.CreateTopics, payload)
	if err != nil {
		return nil, err
	}
	ch, err := a.conn.dispatcher.link(cid)
	if err != nil {
		return nil, err
	}
	result := <-ch
	if result.err != nil {
		return nil, result.err
	}

	var resp createTopicsResponse
	if err := json.Unmarshal(result.payload, &resp); err != nil {
		return nil, fmt.Errorf("client: decode CreateTopics response: %w", err)
	}

	out := make([]TopicResult, len(resp.Topics))
	for i, t := range resp.Topics {
		out[i] = TopicResult{Name: t.Name, ErrorCode: t.ErrorCode}
		if t.ErrorMessage != nil {
			out[i].ErrorMessage = *t.ErrorMessage
		}
	}
	return out, nil
}

// ListTopics requests every known topic name.
func (a *AdminClient) ListTopics() ([]string, error) {
	cid, err := a.conn.send(protocol.ListTopics, []byte("{}"))
	if err != nil {
		return nil, err
	}
	ch, err := a.conn.dispatcher.link(cid)
	if err != nil {
		return nil, err
	}
	result := <-ch
	if result.err != nil {
		return nil, result.err
	}

	var resp listTopicsResponse
	if err := json.Unmarshal(result.payload, &resp); err != nil {
		return nil, fmt.Errorf("client: decode ListTopics response: %w", err)
	}
	if resp.ErrorCode != protocol.ErrCodeSuccess {
		msg := ""
		if resp.ErrorMessage != nil {
			msg = *resp.ErrorMessage
		}
		return nil, fmt.Errorf("client: ListTopics failed: code %d: %s", resp.ErrorCode, msg)
	}
	return resp.Topics, nil
}
