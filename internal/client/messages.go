package client

// Wire payload shapes mirroring internal/broker/messages.go from the
// client's side of the protocol. Kept as a separate, unexported set of
// types rather than importing internal/broker: the two packages
// serialize from opposite directions, and the client has no other use
// for the broker package.

type createTopicsRequest struct {
	Topics []createTopicsRequestTopic `json:"topics"`
}

type createTopicsRequestTopic struct {
	Name          string `json:"name"`
	NumPartitions int    `json:"num_partitions"`
}

type createTopicsResponse struct {
	Topics []topicResult `json:"topics"`
}

type topicResult struct {
	Name         string  `json:"name"`
	ErrorCode    int     `json:"error_code"`
	ErrorMessage *string `json:"error_message"`
}

type listTopicsResponse struct {
	Topics       []string `json:"topics"`
	ErrorCode    int      `json:"error_code"`
	ErrorMessage *string  `json:"error_message"`
}

type produceRequest struct {
	Topic     string                 `json:"topic"`
	Partition uint32                 `json:"partition"`
	Records   []produceRequestRecord `json:"records"`
}

type produceRequestRecord struct {
	Value     []byte            `json:"value"`
	Key       []byte            `json:"key"`
	Timestamp *int64            `json:"timestamp"`
	Headers   map[string][]byte `json:"headers"`
}

type produceResponsePayload struct {
	Topic        string  `json:"topic"`
	Partition    uint32  `json:"partition"`
	BaseOffset   int64   `json:"base_offset"`
	ErrorCode    int     `json:"error_code"`
	ErrorMessage *string `json:"error_message"`
}

type fetchRequest struct {
	Topic     string `json:"topic"`
	Partition uint32 `json:"partition"`
	Offset    uint64 `json:"offset"`
	MaxBytes  int    `json:"max_bytes"`
}

type fetchResponse struct {
	Topic        string         `json:"topic"`
	Partition    uint32         `json:"partition"`
	ErrorCode    int            `json:"error_code"`
	ErrorMessage *string        `json:"error_message"`
	Records      []recordResult `json:"records"`
}

type recordResult struct {
	Value     []byte            `json:"value"`
	Key       []byte            `json:"key"`
	Timestamp int64             `json:"timestamp"`
	Headers   map[string][]byte `json:"headers"`
	Offset    uint64            `json:"offset"`
}

type offsetCommitRequest struct {
	GroupID string                     `json:"group_id"`
	Topics  []offsetCommitRequestEntry `json:"topics"`
}

type offsetCommitRequestEntry struct {
	Topic     string `json:"topic"`
	Partition uint32 `json:"partition"`
	Offset    uint64 `json:"offset"`
}

type offsetCommitResponse struct {
	Topics []offsetCommitResult `json:"topics"`
}

type offsetCommitResult struct {
	Topic        string  `json:"topic"`
	Partition    uint32  `json:"partition"`
	ErrorCode    int     `json:"error_code"`
	ErrorMessage *string `json:"error_message"`
}
