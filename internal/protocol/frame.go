package protocol

import (
	"errors"
	"fmt"
	"io"
)

// SerializationError reports a malformed frame: wrong header shape or a
// payload whose length doesn't match its declared length. It is always a
// local, connection-closing failure — never surfaced to the peer as a
// framed response.
type SerializationError struct {
	Reason string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("protocol: serialization error: %s", e.Reason)
}

// Frame is the unit of the wire protocol: a correlation id and API key
// chosen by the sender, and an opaque JSON payload.
type Frame struct {
	CorrelationID uint64
	APIKey        APIKey
	Payload       []byte
}

// Encode renders f as CID(10)||KEY(2)||LEN(4)||PAYLOAD(LEN).
func Encode(f Frame) ([]byte, error) {
	if len(f.Payload) > MaxPayloadLen {
		return nil, &SerializationError{Reason: fmt.Sprintf("payload length %d exceeds %d-digit cap", len(f.Payload), PayloadLengthWidth)}
	}
	if f.CorrelationID >= pow10(CorrelationIDWidth) {
		return nil, &SerializationError{Reason: "correlation id overflows its field width"}
	}
	out := make([]byte, 0, HeaderWidth+len(f.Payload))
	out = appendZeroPadded(out, f.CorrelationID, CorrelationIDWidth)
	out = appendZeroPadded(out, uint64(f.APIKey), APIKeyWidth)
	out = appendZeroPadded(out, uint64(len(f.Payload)), PayloadLengthWidth)
	out = append(out, f.Payload...)
	return out, nil
}

// Decode parses a complete frame out of b, validating header shape and
// that the declared payload length matches the actual trailing bytes.
func Decode(b []byte) (Frame, error) {
	if len(b) < HeaderWidth {
		return Frame{}, &SerializationError{Reason: "frame shorter than header width"}
	}
	header := b[:HeaderWidth]
	for _, c := range header {
		if c < '0' || c > '9' {
			return Frame{}, &SerializationError{Reason: "header contains non-digit byte"}
		}
	}
	cid, err := parseDigits(header[0:CorrelationIDWidth])
	if err != nil {
		return Frame{}, &SerializationError{Reason: "invalid correlation id"}
	}
	key, err := parseDigits(header[CorrelationIDWidth : CorrelationIDWidth+APIKeyWidth])
	if err != nil {
		return Frame{}, &SerializationError{Reason: "invalid api key"}
	}
	declaredLen, err := parseDigits(header[CorrelationIDWidth+APIKeyWidth : HeaderWidth])
	if err != nil {
		return Frame{}, &SerializationError{Reason: "invalid payload length"}
	}
	payload := b[HeaderWidth:]
	if uint64(len(payload)) != declaredLen {
		return Frame{}, &SerializationError{Reason: "payload length does not match declared length"}
	}
	return Frame{
		CorrelationID: cid,
		APIKey:        APIKey(key),
		Payload:       payload,
	}, nil
}

// ReadFrame reads exactly one frame from r: the fixed header, then the
// declared-length payload. Returns (nil, nil) on a clean EOF before any
// header byte is read. Any other short read is a SerializationError.
func ReadFrame(r io.Reader) (*Frame, error) {
	header := make([]byte, HeaderWidth)
	n, err := io.ReadFull(r, header)
	if err != nil {
		if errors.Is(err, io.EOF) && n == 0 {
			return nil, nil
		}
		return nil, &SerializationError{Reason: "partial header read: " + err.Error()}
	}
	for _, c := range header {
		if c < '0' || c > '9' {
			return nil, &SerializationError{Reason: "header contains non-digit byte"}
		}
	}
	declaredLen, err := parseDigits(header[CorrelationIDWidth+APIKeyWidth : HeaderWidth])
	if err != nil {
		return nil, &SerializationError{Reason: "invalid payload length"}
	}
	payload := make([]byte, declaredLen)
	if declaredLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, &SerializationError{Reason: "partial payload read: " + err.Error()}
		}
	}
	full := append(header, payload...)
	f, err := Decode(full)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// WriteFrame encodes f and writes it in full to w.
func WriteFrame(w io.Writer, f Frame) error {
	b, err := Encode(f)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func pow10(width int) uint64 {
	n := uint64(1)
	for i := 0; i < width; i++ {
		n *= 10
	}
	return n
}

func parseDigits(b []byte) (uint64, error) {
	var n uint64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, &SerializationError{Reason: "non-digit byte in numeric field"}
		}
		n = n*10 + uint64(c-'0')
	}
	return n, nil
}

func appendZeroPadded(dst []byte, v uint64, width int) []byte {
	buf := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return append(dst, buf...)
}
