package broker

import "github.com/nmatsuda/gobroker/internal/protocol"

// HandlerFunc processes one decoded request frame and returns its
// response frame.
type HandlerFunc func(req protocol.Frame) protocol.Frame

// Router dispatches a frame to its registered handler by api_key.
type Router struct {
	handlers map[protocol.APIKey]HandlerFunc
}

// NewRouter builds the router for one Handlers instance, wiring every
// known API key.
func NewRouter(h *Handlers) *Router {
	return &Router{handlers: map[protocol.APIKey]HandlerFunc{
		protocol.CreateTopics: h.CreateTopics,
		protocol.Produce:      h.Produce,
		protocol.Fetch:        h.Fetch,
		protocol.OffsetCommit: h.OffsetCommit,
		protocol.ListTopics:   h.ListTopics,
	}}
}

// Route dispatches req to its handler. An api_key with no registered
// handler returns UnknownMessageType; the caller must close the
// connection rather than send a framed error response.
func (r *Router) Route(req protocol.Frame) (protocol.Frame, error) {
	handler, ok := r.handlers[req.APIKey]
	if !ok {
		return protocol.Frame{}, &UnknownMessageType{APIKey: int(req.APIKey)}
	}
	return handler(req), nil
}
