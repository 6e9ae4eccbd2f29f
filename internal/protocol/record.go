package protocol

import (
	"encoding/json"
	"fmt"
)

// ErrOffsetUnset is returned by EncodeRecordPayload when asked to encode a
// record whose offset has not yet been assigned by the partition.
var ErrOffsetUnset = fmt.Errorf("protocol: record offset is unset")

// storedRecord is the on-disk (and Fetch-response) shape of a record, with
// topic/partition stripped since both are implied by the file it lives
// in. encoding/json renders []byte and map[string][]byte values as
// base64, which is the wire convention used for value/key/headers
// throughout the broker and client.
type storedRecord struct {
	Value     []byte            `json:"value"`
	Key       []byte            `json:"key"`
	Timestamp int64             `json:"timestamp"`
	Headers   map[string][]byte `json:"headers"`
	Offset    uint64            `json:"offset"`
}

// RecordFields is the decoded form of a stored record, offset always set
// (DecodeRecordPayload never returns a record without one).
type RecordFields struct {
	Value     []byte
	Key       []byte
	Timestamp int64
	Headers   map[string][]byte
	Offset    uint64
}

// EncodeRecordPayload renders a record's JSON body (no length prefix, no
// topic/partition). offset must be non-nil: a record's offset is assigned
// by the partition before it is ever encoded.
func EncodeRecordPayload(value, key []byte, timestamp int64, headers map[string][]byte, offset *uint64) ([]byte, error) {
	if offset == nil {
		return nil, ErrOffsetUnset
	}
	if headers == nil {
		headers = map[string][]byte{}
	}
	return json.Marshal(storedRecord{
		Value:     value,
		Key:       key,
		Timestamp: timestamp,
		Headers:   headers,
		Offset:    *offset,
	})
}

// DecodeRecordPayload parses a record's JSON body as written by
// EncodeRecordPayload.
func DecodeRecordPayload(data []byte) (RecordFields, error) {
	var sr storedRecord
	if err := json.Unmarshal(data, &sr); err != nil {
		return RecordFields{}, fmt.Errorf("protocol: decode record payload: %w", err)
	}
	if sr.Headers == nil {
		sr.Headers = map[string][]byte{}
	}
	return RecordFields{
		Value:     sr.Value,
		Key:       sr.Key,
		Timestamp: sr.Timestamp,
		Headers:   sr.Headers,
		Offset:    sr.Offset,
	}, nil
}

// EncodeIndexEntry renders a fixed-width 32-ASCII-digit index entry:
// 16 digits of offset followed by 16 digits of position.
func EncodeIndexEntry(offset, position uint64) []byte {
	out := make([]byte, 0, IndexEntryWidth)
	out = appendZeroPadded(out, offset, LogRecordOffsetWidth)
	out = appendZeroPadded(out, position, LogRecordPositionWidth)
	return out
}

// DecodeIndexEntry parses a fixed-width index entry produced by
// EncodeIndexEntry.
func DecodeIndexEntry(b []byte) (offset, position uint64, err error) {
	if len(b) != IndexEntryWidth {
		return 0, 0, fmt.Errorf("protocol: index entry has wrong width %d", len(b))
	}
	offset, err = parseDigits(b[:LogRecordOffsetWidth])
	if err != nil {
		return 0, 0, fmt.Errorf("protocol: invalid index entry offset: %w", err)
	}
	position, err = parseDigits(b[LogRecordOffsetWidth:])
	if err != nil {
		return 0, 0, fmt.Errorf("protocol: invalid index entry position: %w", err)
	}
	return offset, position, nil
}

// EncodeLengthPrefix renders the 4-digit decimal length prefix that
// precedes every record payload in a segment's log file.
func EncodeLengthPrefix(n int) ([]byte, error) {
	if n > MaxPayloadLen {
		return nil, fmt.Errorf("protocol: record payload length %d exceeds %d-digit cap", n, PayloadLengthWidth)
	}
	out := appendZeroPadded(nil, uint64(n), PayloadLengthWidth)
	return out, nil
}

// DecodeLengthPrefix parses the 4-digit decimal length prefix.
func DecodeLengthPrefix(b []byte) (int, error) {
	if len(b) != PayloadLengthWidth {
		return 0, fmt.Errorf("protocol: length prefix has wrong width %d", len(b))
	}
	n, err := parseDigits(b)
	if err != nil {
		return 0, fmt.Errorf("protocol: invalid length prefix: %w", err)
	}
	return int(n), nil
}

// SegmentFilename renders a segment's base offset as the zero-padded
// 20-digit basename shared by its .log and .index files.
func SegmentFilename(baseOffset uint64) string {
	buf := appendZeroPadded(nil, baseOffset, LogFilenameLength)
	return string(buf)
}
