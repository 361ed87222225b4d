package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/albertocavalcante/compflags/internal/log"
)

// drainTimeout bounds how long Shutdown waits for open connections.
const drainTimeout = 5 * time.Second

// Server answers resolver requests on a Unix socket until shut down.
type Server struct {
	paths   *Paths
	handler *Handler
	version string
	started time.Time

	ln    net.Listener
	conns connSet
	wg    sync.WaitGroup

	mu      sync.Mutex
	closing bool
	cancel  context.CancelFunc

	stopReq  chan struct{}
	reqOnce  sync.Once
	stopOnce sync.Once
	stopErr  error
}

// ServerConfig configures NewServer. A nil Handler resolves with the
// default configuration.
type ServerConfig struct {
	Paths   *Paths
	Version string
	Handler *Handler
}

// NewServer creates a server bound to cfg.Handler.
func NewServer(cfg ServerConfig) *Server {
	h := cfg.Handler
	if h == nil {
		h = NewHandler(nil)
	}
	s := &Server{
		paths:   cfg.Paths,
		handler: h,
		version: cfg.Version,
		started: time.Now(),
		conns:   connSet{m: make(map[*session]struct{})},
		stopReq: make(chan struct{}),
	}
	h.server = s
	return s
}

// Start binds the socket, records the PID and serves until ctx is done,
// SIGINT or SIGTERM arrives, or a client sends shutdown.
func (s *Server) Start(ctx context.Context) error {
	logger := log.Component("daemon")

	if err := s.listen(); err != nil {
		return err
	}
	logger.Infow("daemon started",
		"pid", os.Getpid(),
		"socket", s.paths.Socket,
		"version", s.version)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	reqCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.accept(reqCtx)

	select {
	case <-ctx.Done():
		logger.Infow("context done, stopping")
	case sig := <-sigCh:
		logger.Infow("signal received, stopping", "signal", sig.String())
	case <-s.stopReq:
		logger.Infow("stop requested by client")
	}
	return s.Shutdown()
}

// listen prepares the daemon directory, the socket and the PID file.
func (s *Server) listen() error {
	logger := log.Component("daemon")

	if removed, err := s.paths.RemoveStale(); err != nil {
		logger.Warnw("stale daemon files left behind", "error", err)
	} else if removed {
		logger.Debugw("removed stale daemon files", "dir", s.paths.Dir)
	}

	if err := s.paths.EnsureDir(); err != nil {
		return fmt.Errorf("creating %s: %w", s.paths.Dir, err)
	}

	ln, err := net.Listen("unix", s.paths.Socket)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.paths.Socket, err)
	}
	if err := os.Chmod(s.paths.Socket, 0o600); err != nil {
		_ = ln.Close()
		return fmt.Errorf("restricting %s: %w", s.paths.Socket, err)
	}
	if err := s.paths.WritePID(); err != nil {
		_ = ln.Close()
		return fmt.Errorf("writing %s: %w", s.paths.PID, err)
	}
	s.ln = ln
	return nil
}

func (s *Server) accept(ctx context.Context) {
	defer s.wg.Done()
	logger := log.Component("daemon")

	for {
		nc, err := s.ln.Accept()
		if err != nil {
			if s.isClosing() || errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Warnw("accept failed", "error", err)
			continue
		}

		sess := newSession(nc)
		n, ok := s.conns.add(sess)
		if !ok {
			sess.close()
			return
		}
		logger.Debugw("client connected", "clients", n)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serve(ctx, sess)
		}()
	}
}

// serve answers requests from one connection until it closes. A malformed
// document is answered with a parse error and ends the connection, since a
// stream decoder cannot resynchronise.
func (s *Server) serve(ctx context.Context, sess *session) {
	logger := log.Component("daemon")
	defer func() {
		sess.close()
		logger.Debugw("client disconnected", "clients", s.conns.remove(sess))
	}()

	for {
		var req Request
		if err := sess.dec.Decode(&req); err != nil {
			var syntaxErr *json.SyntaxError
			switch {
			case errors.As(err, &syntaxErr):
				if err := sess.send(Fail(nil, CodeParseError, "parse error", syntaxErr.Error())); err != nil {
					logger.Debugw("sending parse error failed", "error", err)
				}
			case !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed):
				logger.Debugw("reading request failed", "error", err)
			}
			return
		}

		resp := s.dispatch(ctx, &req)
		if resp == nil {
			continue
		}
		if err := sess.send(resp); err != nil {
			logger.Debugw("sending response failed", "method", req.Method, "error", err)
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req *Request) *Response {
	if req.JSONRPC != protocolVersion {
		return Fail(req.ID, CodeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
	}
	return s.handler.HandleRequest(ctx, req)
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

// Shutdown stops accepting, cancels requests in flight, closes every
// connection and removes the daemon files. It is safe to call repeatedly.
func (s *Server) Shutdown() error {
	s.stopOnce.Do(func() { s.stopErr = s.stop() })
	return s.stopErr
}

func (s *Server) stop() error {
	logger := log.Component("daemon")
	logger.Infow("stopping daemon")

	s.mu.Lock()
	s.closing = true
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	if s.ln != nil {
		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			logger.Warnw("closing listener failed", "error", err)
		}
	}
	s.conns.closeAll()

	if !waitTimeout(&s.wg, drainTimeout) {
		logger.Warnw("connections still open after drain timeout", "timeout", drainTimeout)
	}

	err := s.paths.Cleanup()
	if err != nil {
		logger.Warnw("removing daemon files failed", "error", err)
	}
	logger.Infow("daemon stopped",
		"requests", s.handler.Requests(),
		"uptime", s.Uptime().Round(time.Second).String())
	return err
}

// RequestShutdown makes Start return. It does not wait.
func (s *Server) RequestShutdown() {
	s.reqOnce.Do(func() { close(s.stopReq) })
}

// Uptime returns how long ago the server was created.
func (s *Server) Uptime() time.Duration {
	return time.Since(s.started)
}

// status snapshots the server for status/get.
func (s *Server) status() StatusGetResult {
	return StatusGetResult{
		PID:         os.Getpid(),
		Version:     s.version,
		Uptime:      s.Uptime().String(),
		Requests:    s.handler.Requests(),
		ClientCount: s.conns.len(),
	}
}

func waitTimeout(wg *sync.WaitGroup, d time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

// session is one client connection. Sends are serialised.
type session struct {
	nc   net.Conn
	dec  *json.Decoder
	mu   sync.Mutex
	enc  *json.Encoder
	once sync.Once
}

func newSession(nc net.Conn) *session {
	return &session{
		nc:  nc,
		dec: json.NewDecoder(bufio.NewReader(nc)),
		enc: json.NewEncoder(nc),
	}
}

func (c *session) send(resp *Response) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enc.Encode(resp)
}

func (c *session) close() {
	c.once.Do(func() { _ = c.nc.Close() })
}

// connSet tracks open sessions. Once closed it refuses new ones.
type connSet struct {
	mu     sync.Mutex
	m      map[*session]struct{}
	closed bool
}

func (cs *connSet) add(c *session) (int, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.closed {
		return len(cs.m), false
	}
	cs.m[c] = struct{}{}
	return len(cs.m), true
}

func (cs *connSet) remove(c *session) int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.m, c)
	return len(cs.m)
}

func (cs *connSet) len() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.m)
}

func (cs *connSet) closeAll() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.closed = true
	for c := range cs.m {
		c.close()
	}
}
