package broker

// Request/response payload shapes for every API key. All payloads are
// JSON; unknown fields are rejected at decode time (decodeStrict in
// handlers.go). value/key/headers fields are []byte so encoding/json's
// built-in []byte<->base64 conversion gives the wire's base64 convention
// for free, the same trick internal/protocol's on-disk record encoding
// relies on.

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

type produceResponse struct {
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

type listTopicsResponse struct {
	Topics       []string `json:"topics"`
	ErrorCode    int      `json:"error_code"`
	ErrorMessage *string  `json:"error_message"`
}

func strPtr(s string) *string { return &s }
