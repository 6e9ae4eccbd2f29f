package broker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nmatsuda/gobroker/internal/log"
	"github.com/nmatsuda/gobroker/internal/metrics"
	"github.com/nmatsuda/gobroker/internal/offsets"
	"github.com/nmatsuda/gobroker/internal/protocol"
)

// Handlers implements one method per API key against the broker's
// storage and offset layers.
type Handlers struct {
	Storage *log.LogStorage
	Offsets *offsets.Store
	Metrics *metrics.Recorder
}

func NewHandlers(storage *log.LogStorage, offsetStore *offsets.Store, rec *metrics.Recorder) *Handlers {
	return &Handlers{Storage: storage, Offsets: offsetStore, Metrics: rec}
}

func decodeStrict(payload []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &payloadError{reason: err.Error()}
	}
	return nil
}

// CreateTopics creates one or more topics, each with the requested
// number of partitions. Topic names must be unique within the request;
// every entry sharing a repeated name is rejected with
// InvalidAdminCommand instead of being created.
func (h *Handlers) CreateTopics(req protocol.Frame) protocol.Frame {
	var reqPayload createTopicsRequest
	if err := decodeStrict(req.Payload, &reqPayload); err != nil {
		return h.errorFrame(req, createTopicsResponse{Topics: []topicResult{{ErrorCode: protocol.ErrCodeUnexpected, ErrorMessage: strPtr(err.Error())}}})
	}

	nameCount := make(map[string]int, len(reqPayload.Topics))
	for _, t := range reqPayload.Topics {
		nameCount[t.Name]++
	}

	results := make([]topicResult, 0, len(reqPayload.Topics))
	for _, t := range reqPayload.Topics {
		if nameCount[t.Name] > 1 {
			msg := fmt.Sprintf("topic %q is repeated within this request", t.Name)
			h.Metrics.ObserveError(protocol.ErrCodeInvalidAdminCommand)
			results = append(results, topicResult{Name: t.Name, ErrorCode: protocol.ErrCodeInvalidAdminCommand, ErrorMessage: &msg})
			continue
		}
		results = append(results, h.createOneTopic(t))
	}
	return h.jsonFrame(req, createTopicsResponse{Topics: results})
}

func (h *Handlers) createOneTopic(t createTopicsRequestTopic) topicResult {
	err := h.Storage.InitTopic(t.Name, t.NumPartitions)
	if err == nil {
		return topicResult{Name: t.Name, ErrorCode: protocol.ErrCodeSuccess, ErrorMessage: nil}
	}
	code := protocol.ErrCodeUnexpected
	switch err.(type) {
	case *log.InvalidAdminCommandError:
		code = protocol.ErrCodeInvalidAdminCommand
	case *log.PartitionNotFoundError:
		code = protocol.ErrCodePartitionNotFound
	}
	h.Metrics.ObserveError(code)
	return topicResult{Name: t.Name, ErrorCode: code, ErrorMessage: strPtr(err.Error())}
}

// Produce appends a batch of records to one partition. Records already
// appended before a mid-batch failure are not rolled back; the response
// reports the error form with base_offset=-1 regardless.
func (h *Handlers) Produce(req protocol.Frame) protocol.Frame {
	var reqPayload produceRequest
	if err := decodeStrict(req.Payload, &reqPayload); err != nil {
		return h.jsonFrame(req, produceResponse{
			Topic: reqPayload.Topic, Partition: reqPayload.Partition,
			BaseOffset: -1, ErrorCode: protocol.ErrCodeUnexpected, ErrorMessage: strPtr(err.Error()),
		})
	}
	if len(reqPayload.Records) == 0 {
		msg := "produce request must carry at least one record"
		return h.jsonFrame(req, produceResponse{
			Topic: reqPayload.Topic, Partition: reqPayload.Partition,
			BaseOffset: -1, ErrorCode: protocol.ErrCodeUnexpected, ErrorMessage: &msg,
		})
	}

	now := time.Now().Unix()
	var baseOffset int64 = -1
	for i, r := range reqPayload.Records {
		ts := now
		if r.Timestamp != nil {
			ts = *r.Timestamp
		}
		off, err := h.Storage.AppendPartition(reqPayload.Topic, reqPayload.Partition, r.Value, r.Key, ts, r.Headers)
		if err != nil {
			code := protocol.ErrCodeUnexpected
			if _, ok := err.(*log.PartitionNotFoundError); ok {
				code = protocol.ErrCodePartitionNotFound
			}
			h.Metrics.ObserveError(code)
			return h.jsonFrame(req, produceResponse{
				Topic: reqPayload.Topic, Partition: reqPayload.Partition,
				BaseOffset: -1, ErrorCode: code, ErrorMessage: strPtr(err.Error()),
			})
		}
		h.Metrics.AppendBytes(len(r.Value) + len(r.Key))
		if i == 0 {
			baseOffset = int64(off)
		}
	}

	return h.jsonFrame(req, produceResponse{
		Topic: reqPayload.Topic, Partition: reqPayload.Partition,
		BaseOffset: baseOffset, ErrorCode: protocol.ErrCodeSuccess, ErrorMessage: nil,
	})
}

// Fetch reads records from one partition starting at an offset, bounded
// by a byte budget.
func (h *Handlers) Fetch(req protocol.Frame) protocol.Frame {
	var reqPayload fetchRequest
	if err := decodeStrict(req.Payload, &reqPayload); err != nil {
		return h.jsonFrame(req, fetchResponse{
			Topic: reqPayload.Topic, Partition: reqPayload.Partition,
			ErrorCode: protocol.ErrCodeUnexpected, ErrorMessage: strPtr(err.Error()), Records: []recordResult{},
		})
	}

	records, err := h.Storage.ListLogs(reqPayload.Topic, reqPayload.Partition, reqPayload.Offset, reqPayload.MaxBytes)
	if err != nil {
		code := protocol.ErrCodeUnexpected
		switch err.(type) {
		case *log.PartitionNotFoundError:
			code = protocol.ErrCodePartitionNotFoundRO
		case *log.InvalidOffsetError, *log.ExceedSegmentSizeError:
			code = protocol.ErrCodeInvalidOffset
		}
		h.Metrics.ObserveError(code)
		return h.jsonFrame(req, fetchResponse{
			Topic: reqPayload.Topic, Partition: reqPayload.Partition,
			ErrorCode: code, ErrorMessage: strPtr(err.Error()), Records: []recordResult{},
		})
	}

	out := make([]recordResult, 0, len(records))
	for _, r := range records {
		out = append(out, recordResult{
			Value: r.Value, Key: r.Key, Timestamp: r.Timestamp, Headers: r.Headers, Offset: r.Offset,
		})
	}
	return h.jsonFrame(req, fetchResponse{
		Topic: reqPayload.Topic, Partition: reqPayload.Partition,
		ErrorCode: protocol.ErrCodeSuccess, ErrorMessage: nil, Records: out,
	})
}

// OffsetCommit records a consumer group's progress on one or more
// partitions. Updates are applied one at a time, each immediately
// followed by a Commit so a crash between entries still persists every
// entry committed so far.
func (h *Handlers) OffsetCommit(req protocol.Frame) protocol.Frame {
	var reqPayload offsetCommitRequest
	if err := decodeStrict(req.Payload, &reqPayload); err != nil {
		return h.jsonFrame(req, offsetCommitResponse{Topics: []offsetCommitResult{{ErrorCode: protocol.ErrCodeUnexpected, ErrorMessage: strPtr(err.Error())}}})
	}

	results := make([]offsetCommitResult, 0, len(reqPayload.Topics))
	for _, entry := range reqPayload.Topics {
		results = append(results, h.commitOne(reqPayload.GroupID, entry))
	}
	return h.jsonFrame(req, offsetCommitResponse{Topics: results})
}

func (h *Handlers) commitOne(groupID string, entry offsetCommitRequestEntry) offsetCommitResult {
	if _, err := h.Storage.LogEndOffset(entry.Topic, entry.Partition); err != nil {
		return offsetCommitResult{Topic: entry.Topic, Partition: entry.Partition, ErrorCode: protocol.ErrCodePartitionNotFoundRO, ErrorMessage: strPtr(err.Error())}
	}

	h.Offsets.Update(offsets.Key{Group: groupID, Topic: entry.Topic, Partition: entry.Partition}, entry.Offset)
	if err := h.Offsets.Commit(); err != nil {
		return offsetCommitResult{Topic: entry.Topic, Partition: entry.Partition, ErrorCode: protocol.ErrCodeUnexpected, ErrorMessage: strPtr(err.Error())}
	}
	return offsetCommitResult{Topic: entry.Topic, Partition: entry.Partition, ErrorCode: protocol.ErrCodeSuccess, ErrorMessage: nil}
}

// ListTopics reports every known topic name, in no particular order. Its
// request payload is always empty.
func (h *Handlers) ListTopics(req protocol.Frame) protocol.Frame {
	topicMap := h.Storage.ListTopics()
	topics := make([]string, 0, len(topicMap))
	for name := range topicMap {
		topics = append(topics, name)
	}
	return h.jsonFrame(req, listTopicsResponse{Topics: topics, ErrorCode: protocol.ErrCodeSuccess, ErrorMessage: nil})
}

func (h *Handlers) jsonFrame(req protocol.Frame, payload any) protocol.Frame {
	data, err := json.Marshal(payload)
	if err != nil {
		data, _ = json.Marshal(map[string]any{"error_code": protocol.ErrCodeUnexpected, "error_message": fmt.Sprintf("broker: could not encode response: %s", err)})
	}
	return protocol.Frame{CorrelationID: req.CorrelationID, APIKey: req.APIKey, Payload: data}
}

func (h *Handlers) errorFrame(req protocol.Frame, payload any) protocol.Frame {
	return h.jsonFrame(req, payload)
}
