package broker

import (
	"errors"
	"io"
	"net"

	"github.com/rs/zerolog"

	"github.com/nmatsuda/gobroker/internal/metrics"
	"github.com/nmatsuda/gobroker/internal/protocol"
)

// HandleConnection runs one connection's read/route/write loop to
// completion: requests are handled one at a time, sequentially, and
// responses appear in the same order as their requests. It returns when
// the connection's read side reaches EOF, the peer resets it, or a
// framing error forces the connection closed (the latter also logged,
// with no response frame sent).
func HandleConnection(conn net.Conn, router *Router, rec *metrics.Recorder, logger zerolog.Logger) {
	defer conn.Close()
	rec.ConnectionOpened()
	defer rec.ConnectionClosed()

	for {
		frame, err := protocol.ReadFrame(conn)
		if err != nil {
			var serErr *protocol.SerializationError
			if errors.As(err, &serErr) {
				logger.Warn().Err(err).Msg("closing connection after frame decode failure")
			} else if !errors.Is(err, io.EOF) {
				logger.Debug().Err(err).Msg("connection read failed")
			}
			return
		}
		if frame == nil {
			// clean EOF between frames: peer closed its write side.
			return
		}

		rec.ObserveRequest(frame.APIKey.String())
		resp, err := router.Route(*frame)
		if err != nil {
			logger.Warn().Err(err).Msg("closing connection: unrouteable request")
			return
		}

		if err := protocol.WriteFrame(conn, resp); err != nil {
			logger.Debug().Err(err).Msg("connection write failed")
			return
		}
	}
}
