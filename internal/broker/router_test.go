package broker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nmatsuda/gobroker/internal/protocol"
)

func TestRouter_DispatchesByAPIKey(t *testing.T) {
	h := newTestHandlers(t)
	r := NewRouter(h)

	resp, err := r.Route(protocol.Frame{CorrelationID: 1, APIKey: protocol.ListTopics})
	require.NoError(t, err)
	var list listTopicsResponse
	decodePayload(t, resp, &list)
	require.Empty(t, list.Topics)
}

func TestRouter_UnknownAPIKeyReturnsError(t *testing.T) {
	h := newTestHandlers(t)
	r := NewRouter(h)

	_, err := r.Route(protocol.Frame{CorrelationID: 1, APIKey: protocol.APIKey(99)})
	require.Error(t, err)
	var unknown *UnknownMessageType
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, 99, unknown.APIKey)
}
