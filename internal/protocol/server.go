package protocol

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/RichardKnop/ajxgate/internal/config"
	"github.com/RichardKnop/ajxgate/internal/dispatch"
	"github.com/RichardKnop/ajxgate/internal/session"
)

// Handler executes raw command text against a session.
type Handler interface {
	Do(ctx context.Context, aSession *session.Session, raw string) dispatch.Response
}

type Server struct {
	listener     net.Listener
	httpListener net.Listener
	handler      Handler
	global       *session.Session
	cfg          config.Config
	quit         chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
	logger       *zap.Logger

	connections map[string]net.Conn
	connMu      sync.Mutex
}

// NewServer listens on cfg.Port, and on cfg.HTTPPort too when it is set. The
// global session is used by every connection unless the session scope is
// per connection.
func NewServer(cfg config.Config, handler Handler, global *session.Session, logger *zap.Logger) (*Server, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return nil, err
	}
	logger.Info("listening on port", zap.String("addr", listener.Addr().String()))

	srv := &Server{
		listener:    listener,
		handler:     handler,
		global:      global,
		cfg:         cfg,
		quit:        make(chan struct{}),
		logger:      logger,
		connections: make(map[string]net.Conn),
	}

	if cfg.HTTPPort != 0 {
		httpListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.HTTPPort))
		if err != nil {
			listener.Close()
			return nil, err
		}
		logger.Info("listening for HTTP on port", zap.String("addr", httpListener.Addr().String()))
		srv.httpListener = httpListener
	}

	return srv, nil
}

func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// HTTPAddr is nil when no dedicated HTTP port is configured.
func (s *Server) HTTPAddr() net.Addr {
	if s.httpListener == nil {
		return nil
	}
	return s.httpListener.Addr()
}

func (s *Server) Serve(ctx context.Context) {
	s.acceptLoop(ctx, s.listener, FlavorUnknown)
	if s.httpListener != nil {
		s.acceptLoop(ctx, s.httpListener, FlavorHTTP)
	}
}

func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
		s.listener.Close()
		if s.httpListener != nil {
			s.httpListener.Close()
		}

		s.connMu.Lock()
		for _, conn := range s.connections {
			conn.Close()
		}
		s.connMu.Unlock()
	})
	s.wg.Wait()
}

func (s *Server) stopping() bool {
	select {
	case <-s.quit:
		return true
	default:
		return false
	}
}

func (s *Server) acceptLoop(ctx context.Context, listener net.Listener, flavor Flavor) {
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		for {
			conn, err := listener.Accept()
			if err != nil {
				if s.stopping() || errors.Is(err, net.ErrClosed) {
					return
				}
				s.logger.Error("accept error", zap.Error(err))
				continue
			}

			s.wg.Add(1)
			go func(tcpConn net.Conn) {
				defer s.wg.Done()

				id := uuid.NewString()
				if !s.track(id, tcpConn) {
					tcpConn.Close()
					return
				}
				logger := s.logger.With(zap.String("connection", id))
				logger.Debug("new connection", zap.String("remote", tcpConn.RemoteAddr().String()))

				s.handleConnection(ctx, tcpConn, flavor, logger)

				s.untrack(id)
				logger.Debug("connection closed")
			}(conn)
		}
	}()
}

func (s *Server) track(id string, conn net.Conn) bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.stopping() {
		return false
	}
	s.connections[id] = conn
	return true
}

func (s *Server) untrack(id string) {
	s.connMu.Lock()
	delete(s.connections, id)
	s.connMu.Unlock()
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn, flavor Flavor, logger *zap.Logger) {
	defer conn.Close()

	aSession := s.global
	if s.cfg.SessionScope == session.ScopeConnection {
		aSession = session.New()
		defer func() {
			if err := aSession.Close(); err != nil {
				logger.Warn("error closing connection session", zap.Error(err))
			}
		}()
	}

	r := bufio.NewReader(conn)

	if flavor == FlavorUnknown {
		s.setReadDeadline(conn)
		sniffed, err := sniff(r)
		if err != nil {
			logger.Debug("connection closed before protocol was detected", zap.Error(err))
			return
		}
		flavor = sniffed
	}

	switch flavor {
	case FlavorEnvelope:
		s.serveEnvelope(ctx, conn, r, aSession, logger)
	case FlavorHTTP:
		s.serveHTTP(ctx, conn, r, aSession, logger)
	default:
		logger.Debug("ignoring connection with unknown protocol")
	}
}

func (s *Server) serveEnvelope(ctx context.Context, conn net.Conn, r *bufio.Reader, aSession *session.Session, logger *zap.Logger) {
	frames := newFrameReader(r, conn, s.cfg.IdleFlush, s.cfg.ReadTimeout, s.quit)

	for {
		raw, err := frames.Next()
		if err != nil {
			s.logReadError(logger, err)
			return
		}

		logger.Debug("received command", zap.String("command", raw))

		body := s.encode(s.handler.Do(ctx, aSession, raw))
		if err := WriteEnvelope(conn, body, s.cfg.ChunkSize); err != nil {
			s.logWriteError(logger, err)
			return
		}
	}
}

func (s *Server) serveHTTP(ctx context.Context, conn net.Conn, r *bufio.Reader, aSession *session.Session, logger *zap.Logger) {
	for {
		s.setReadDeadline(conn)
		raw, req, err := readHTTPCommand(r)
		if err != nil {
			if isMalformedRequest(err) {
				logger.Debug("malformed HTTP request", zap.Error(err))
				body := s.encode(dispatch.Response{Err: fmt.Errorf("malformed HTTP request: %w", err)})
				if err := writeHTTPResponse(conn, nil, body); err != nil {
					s.logWriteError(logger, err)
				}
				return
			}
			s.logReadError(logger, err)
			return
		}
		conn.SetReadDeadline(time.Time{})

		logger.Debug("received HTTP command", zap.String("method", req.Method), zap.String("path", req.URL.Path), zap.String("command", raw))

		body := s.encode(s.handler.Do(ctx, aSession, raw))
		if err := writeHTTPResponse(conn, req, body); err != nil {
			s.logWriteError(logger, err)
			return
		}
		if closeAfter(req) {
			return
		}
	}
}

func (s *Server) encode(aResponse dispatch.Response) []byte {
	body, err := json.Marshal(aResponse.Body())
	if err != nil {
		s.logger.Error("error marshalling response", zap.Error(err))
		body, _ = json.Marshal(ErrorBody{Error: fmt.Sprintf("error marshalling response: %v", err)})
	}
	return body
}

func (s *Server) setReadDeadline(conn net.Conn) {
	if s.cfg.ReadTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	}
}

func (s *Server) logReadError(logger *zap.Logger, err error) {
	if s.stopping() || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, errStopped) {
		return
	}
	if isTimeout(err) || errors.Is(err, errReadTimeout) {
		logger.Debug("closing idle connection")
		return
	}
	logger.Error("read error", zap.Error(err))
}

func (s *Server) logWriteError(logger *zap.Logger, err error) {
	if s.stopping() {
		return
	}
	logger.Error("error writing response", zap.Error(err))
}

// sniff peeks at the first bytes without consuming them.
func sniff(r *bufio.Reader) (Flavor, error) {
	for n := 1; ; n++ {
		prefix, err := r.Peek(n)
		if flavor, done := Sniff(prefix); done {
			return flavor, nil
		}
		if err != nil {
			return FlavorUnknown, err
		}
	}
}

func isMalformedRequest(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) || isTimeout(err) {
		return false
	}
	var opErr *net.OpError
	return !errors.As(err, &opErr)
}
