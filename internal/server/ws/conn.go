package ws

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/simplegameutils/sgu/internal/protocol"
	"github.com/simplegameutils/sgu/internal/server/metrics"
	"github.com/simplegameutils/sgu/internal/server/session"
	"golang.org/x/net/websocket"
	"golang.org/x/time/rate"
)

const rateLimitedMessage = "too many messages, slow down"

// serveConn reads messages of one connection strictly in order until the
// peer goes away, stays idle too long or the server stops.
func (s *Server) serveConn(conn *websocket.Conn) {
	defer conn.Close()
	if !s.track(conn) {
		return
	}
	defer s.untrack(conn)

	conn.MaxPayloadBytes = maxMessageBytes
	ctx := conn.Request().Context()

	sess := session.New()
	log := s.logger.With("conn_id", sess.ID())
	defer s.sessions.Remove(sess)

	limiter := rate.NewLimiter(rate.Limit(s.opts.MessageRate), s.opts.MessageBurst)

	log.Debug(ctx, "connection opened", "remote_addr", conn.Request().RemoteAddr)

	for {
		if s.opts.IdleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.opts.IdleTimeout))
		}

		var data []byte
		if err := websocket.Message.Receive(conn, &data); err != nil {
			if errors.Is(err, websocket.ErrFrameTooLarge) {
				if !s.send(conn, protocol.NewError("message too large")) {
					return
				}
				continue
			}
			var ne net.Error
			switch {
			case errors.Is(err, io.EOF):
				log.Debug(ctx, "connection closed by peer")
			case errors.As(err, &ne) && ne.Timeout():
				log.Info(ctx, "closing idle connection")
			default:
				log.Debug(ctx, "connection read failed", "error", err.Error())
			}
			return
		}

		if !limiter.Allow() {
			metrics.MessagesTotal.WithLabelValues("unknown", metrics.ResultRejected).Inc()
			if !s.send(conn, protocol.NewError(rateLimitedMessage)) {
				return
			}
			continue
		}

		wasAuthenticated := sess.Authenticated()
		replies := s.handle(ctx, sess, data)
		if !wasAuthenticated && sess.Authenticated() {
			s.sessions.Add(sess)
			log = log.With("user_id", sess.UserID())
			log.Info(ctx, "session authenticated", "display_name", sess.DisplayName())
		}

		for _, m := range replies {
			if !s.send(conn, m) {
				return
			}
		}
	}
}

func (s *Server) handle(ctx context.Context, sess *session.Session, data []byte) []any {
	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}
	return s.dispatcher.Dispatch(ctx, sess, data)
}

// send writes one message as a text frame and reports whether the
// connection is still usable.
func (s *Server) send(conn *websocket.Conn, msg any) bool {
	if s.opts.RequestTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.opts.RequestTimeout))
	}
	return websocket.JSON.Send(conn, msg) == nil
}
