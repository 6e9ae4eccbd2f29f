// Package client implements gobroker's client library: one TCP
// connection, a correlation-id-routed response dispatcher, and thin
// Admin/Producer/Consumer wrappers over it.
package client

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/nmatsuda/gobroker/internal/protocol"
)

// Conn owns one TCP connection to a broker: a write mutex so concurrent
// callers' requests don't interleave mid-frame, a monotone correlation-id
// counter, and a background dispatch loop routing response frames back to
// their callers.
type Conn struct {
	netConn net.Conn
	writeMu sync.Mutex
	nextCID uint64
	logger  zerolog.Logger

	dispatcher *dispatcher

	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

// Dial connects to addr and starts the background dispatch loop.
func Dial(addr string) (*Conn, error) {
	nc, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	c := &Conn{
		netConn:    nc,
		dispatcher: newDispatcher(),
		done:       make(chan struct{}),
	}
	c.logger = zerolog.New(zerolog.NewConsoleWriter()).With().
		Timestamp().
		Str("component", "client").
		Logger()
	go c.dispatchLoop()
	return c, nil
}

// nextCorrelationID returns a fresh, process-local-to-this-connection
// correlation id. A monotone counter suffices.
func (c *Conn) nextCorrelationID() uint64 {
	return atomic.AddUint64(&c.nextCID, 1)
}

// send frames and writes a request, returning the correlation id used.
func (c *Conn) send(apiKey protocol.APIKey, payload []byte) (uint64, error) {
	cid := c.nextCorrelationID()
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	err := protocol.WriteFrame(c.netConn, protocol.Frame{
		CorrelationID: cid,
		APIKey:        apiKey,
		Payload:       payload,
	})
	if err != nil {
		return 0, err
	}
	return cid, nil
}

// dispatchLoop reads response frames until the connection closes, routing
// each to its linked pending slot. On exit, every still-pending slot is
// released with ErrConnectionClosed.
func (c *Conn) dispatchLoop() {
	var loopErr error
	for {
		frame, err := protocol.ReadFrame(c.netConn)
		if err != nil {
			loopErr = err
			break
		}
		if frame == nil {
			break
		}
		if derr := c.dispatcher.deliver(frame.CorrelationID, frame.Payload, nil); derr != nil {
			c.logger.Warn().Err(derr).Uint64("correlation_id", frame.CorrelationID).Msg("dropping response with no pending request")
		}
	}
	c.closeOnce.Do(func() {
		c.closeErr = loopErr
		close(c.done)
	})
	c.dispatcher.closeAll(&ErrConnectionClosed{Cause: loopErr})
}

// Close closes the underlying connection, unblocking the dispatch loop.
func (c *Conn) Close() error {
	return c.netConn.Close()
}
