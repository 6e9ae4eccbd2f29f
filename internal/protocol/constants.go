// Package protocol implements gobroker's wire framing: the fixed-width
// ASCII-decimal header used on every request and response, and the
// on-disk binary layout shared by the segment store and index.
package protocol

// Field widths for the message frame header. All fields are ASCII decimal
// digits, zero-padded, no delimiters.
const (
	CorrelationIDWidth = 10
	APIKeyWidth        = 2
	PayloadLengthWidth = 4
	HeaderWidth        = CorrelationIDWidth + APIKeyWidth + PayloadLengthWidth

	// MaxPayloadLen is what PayloadLengthWidth decimal digits can express.
	MaxPayloadLen = 9999
)

// Field widths for the on-disk record/index layout.
const (
	LogFilenameLength      = 20
	LogRecordOffsetWidth   = 16
	LogRecordPositionWidth = 16
	IndexEntryWidth        = LogRecordOffsetWidth + LogRecordPositionWidth
)

// APIKey tags the kind of request/response carried by a frame.
type APIKey int

const (
	CreateTopics APIKey = iota
	Produce
	Fetch
	OffsetCommit
	ListTopics
)

func (k APIKey) String() string {
	switch k {
	case CreateTopics:
		return "CREATE_TOPICS"
	case Produce:
		return "PRODUCE"
	case Fetch:
		return "FETCH"
	case OffsetCommit:
		return "OFFSET_COMMIT"
	case ListTopics:
		return "LIST_TOPICS"
	default:
		return "UNKNOWN"
	}
}

// Error codes carried in response payloads, per the broker's error
// registry. Framing-level failures never reach this table — they close
// the connection instead.
const (
	ErrCodeSuccess             = 0
	ErrCodeInvalidAdminCommand = 10
	ErrCodePartitionNotFound   = 11
	ErrCodeInvalidOffset       = 20
	ErrCodePartitionNotFoundRO = 21
	ErrCodeUnexpected          = -1
)
