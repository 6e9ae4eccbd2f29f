package log

import "fmt"

// InvalidAdminCommandError reports a malformed admin request: a
// non-positive partition count. Server-surfaced as error code 10, the
// same code the CreateTopics handler gives a topic name repeated within
// one request.
type InvalidAdminCommandError struct {
	Reason string
}

func (e *InvalidAdminCommandError) Error() string {
	return fmt.Sprintf("invalid admin command: %s", e.Reason)
}

// PartitionNotFoundError reports a reference to a (topic, partition) pair
// that LogStorage has no directory for. Server-surfaced as error code 11
// (produce/create path) or 21 (fetch/commit path) depending on the caller.
type PartitionNotFoundError struct {
	Topic     string
	Partition uint32
}

func (e *PartitionNotFoundError) Error() string {
	return fmt.Sprintf("partition %s-%d does not exist", e.Topic, e.Partition)
}

// InvalidOffsetError reports a fetch offset past the partition's log-end
// offset. (Encoding a record with no offset fails with
// protocol.ErrOffsetUnset instead.) Server-surfaced as error code 20.
type InvalidOffsetError struct {
	Reason string
}

func (e *InvalidOffsetError) Error() string {
	return fmt.Sprintf("invalid offset: %s", e.Reason)
}

// ExceedSegmentSizeError reports that a single record is larger than the
// segment size limit, so no roll could ever make it fit. Server-surfaced
// as error code 20.
type ExceedSegmentSizeError struct {
	RecordSize int
	Limit      uint64
}

func (e *ExceedSegmentSizeError) Error() string {
	return fmt.Sprintf("record of %d bytes exceeds segment size limit of %d bytes", e.RecordSize, e.Limit)
}
