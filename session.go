package routeros

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ShafiqSadat/RouterOSClient/internal/observability"
	"github.com/ShafiqSadat/RouterOSClient/internal/protocol"
	"github.com/ShafiqSadat/RouterOSClient/internal/protocol/frame"
)

// State is a session lifecycle phase.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticating
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is one authenticated connection to a device. Replies carry no
// correlation identifiers and match commands purely by arrival order,
// so a session runs one command at a time: Execute, ExecuteBatch,
// Stream, and Probe serialize behind an internal lock. Callers that
// need concurrent commands open one session per command.
//
// Reply timeouts and cancellation are fatal to the connection: a
// session that missed or abandoned part of a reply cannot tell where
// the next one starts, so it closes instead of resynchronizing.
type Session struct {
	cfg Config
	log zerolog.Logger

	cmdMu sync.Mutex // serializes command round trips

	mu      sync.Mutex // guards the fields below
	state   State
	conn    net.Conn
	replies chan inbound
	done    chan struct{}
}

// inbound is one reader-loop delivery: a complete sentence or the
// error that ended the loop.
type inbound struct {
	words protocol.Sentence
	err   error
}

// NewSession prepares a session from cfg. No network activity happens
// until Connect.
func NewSession(cfg Config) (*Session, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Session{cfg: cfg, log: cfg.logger(), state: StateDisconnected}, nil
}

// Connect is NewSession followed by Session.Connect.
func Connect(ctx context.Context, cfg Config) (*Session, error) {
	s, err := NewSession(cfg)
	if err != nil {
		return nil, err
	}
	if err := s.Connect(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// State reports the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connect dials the device and logs in. On success the session is
// ready; on any failure the transport is released and the session can
// be connected again.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateDisconnected, StateClosed:
	default:
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: state=%s", ErrAlreadyConnected, state)
	}
	s.state = StateConnecting
	s.mu.Unlock()

	addr := s.cfg.hostPort()
	conn, err := s.dial(ctx, addr)
	if err != nil {
		s.setState(StateDisconnected)
		return fmt.Errorf("%w: %s: %w", ErrConnectFailed, addr, err)
	}

	s.mu.Lock()
	s.conn = conn
	s.state = StateAuthenticating
	s.replies = make(chan inbound)
	s.done = make(chan struct{})
	replies, done := s.replies, s.done
	s.mu.Unlock()

	go s.readLoop(conn, replies, done)

	if err := s.login(ctx); err != nil {
		s.forceClose("login")
		if errors.Is(err, ErrAuthFailed) {
			return err
		}
		return fmt.Errorf("%w: %s: %w", ErrConnectFailed, addr, err)
	}

	s.setState(StateReady)
	s.log.Debug().Str("addr", addr).Msg("session ready")
	return nil
}

func (s *Session) dial(ctx context.Context, addr string) (net.Conn, error) {
	dialer := net.Dialer{Timeout: s.cfg.ConnectTimeout}
	rawConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if tc, ok := rawConn.(*net.TCPConn); ok {
		// Command sentences are tiny; waiting to coalesce them only
		// adds latency.
		_ = tc.SetNoDelay(true)
	}
	if !s.cfg.TLS.Enabled {
		return rawConn, nil
	}

	tlsCfg, err := s.clientTLSConfig(addr)
	if err != nil {
		_ = rawConn.Close()
		return nil, err
	}
	conn := tls.Client(rawConn, tlsCfg)
	handshakeCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()
	if err := conn.HandshakeContext(handshakeCtx); err != nil {
		_ = rawConn.Close()
		return nil, err
	}
	return conn, nil
}

func (s *Session) clientTLSConfig(addr string) (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: s.cfg.TLS.InsecureSkipVerify,
	}

	serverName := strings.TrimSpace(s.cfg.TLS.ServerName)
	if serverName == "" {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		serverName = host
	}
	cfg.ServerName = serverName

	if caPath := strings.TrimSpace(s.cfg.TLS.CAFile); caPath != "" {
		caPEM, err := os.ReadFile(caPath)
		if err != nil {
			return nil, err
		}
		pool := x509.NewCertPool()
		if ok := pool.AppendCertsFromPEM(caPEM); !ok {
			return nil, fmt.Errorf("routeros: parse tls ca bundle: %s", caPath)
		}
		cfg.RootCAs = pool
	}

	if s.cfg.TLS.Mutual {
		cert, err := tls.LoadX509KeyPair(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		if err != nil {
			return nil, err
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}

// readLoop is the session's only reader. It feeds raw bytes to the
// frame decoder and hands out complete sentences in arrival order.
func (s *Session) readLoop(conn net.Conn, replies chan<- inbound, done <-chan struct{}) {
	dec := frame.NewDecoder(s.cfg.Limits)
	buf := make([]byte, 4096)
	for {
		for {
			words, ok, err := dec.Next()
			if err != nil {
				s.deliver(replies, done, inbound{err: err})
				return
			}
			if !ok {
				break
			}
			if !s.deliver(replies, done, inbound{words: words}) {
				return
			}
		}
		n, err := conn.Read(buf)
		if n > 0 {
			dec.Feed(buf[:n])
		}
		if err != nil {
			s.deliver(replies, done, inbound{err: err})
			return
		}
	}
}

func (s *Session) deliver(replies chan<- inbound, done <-chan struct{}, in inbound) bool {
	select {
	case replies <- in:
		return true
	case <-done:
		return false
	}
}

// nextReply waits for one interpreted sentence. Timeouts, cancellation,
// transport errors, and fatal sentences all close the session before
// reporting, because the reply position on the wire is lost.
func (s *Session) nextReply(ctx context.Context) (protocol.Reply, error) {
	s.mu.Lock()
	replies, done := s.replies, s.done
	s.mu.Unlock()
	if replies == nil {
		return protocol.Reply{}, fmt.Errorf("%w: no connection", ErrNotReady)
	}

	timer := time.NewTimer(s.cfg.ReadTimeout)
	defer timer.Stop()

	select {
	case in := <-replies:
		if in.err != nil {
			s.forceClose("read")
			return protocol.Reply{}, fmt.Errorf("routeros: read: %w", in.err)
		}
		rep := protocol.Interpret(in.words)
		switch rep.Kind {
		case protocol.KindFatal:
			s.forceClose("fatal")
			return protocol.Reply{}, &FatalError{Message: rep.Message}
		case protocol.KindData:
			s.log.Warn().Strs("words", in.words).Msg("unstructured reply words")
		case protocol.KindDone:
			if rep.Ret != "" {
				// Pre-6.43 firmware answers /login with a challenge
				// token instead of accepting inline credentials. The
				// challenge is not answered; commands trap if the
				// device insisted on it.
				s.log.Warn().Msg("reply used the pre-6.43 ret dialect")
			}
		}
		return rep, nil
	case <-ctx.Done():
		s.forceClose("cancel")
		return protocol.Reply{}, ctx.Err()
	case <-timer.C:
		s.forceClose("timeout")
		return protocol.Reply{}, fmt.Errorf("routeros: read: %w", os.ErrDeadlineExceeded)
	case <-done:
		return protocol.Reply{}, fmt.Errorf("%w: session closed", ErrNotReady)
	}
}

func (s *Session) writeSentence(ctx context.Context, words protocol.Sentence) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("%w: no connection", ErrNotReady)
	}

	deadline := time.Now().Add(s.cfg.WriteTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = conn.SetWriteDeadline(deadline)

	s.log.Debug().Strs("words", redactWords(words)).Msg("send sentence")
	if err := frame.WriteSentence(conn, words); err != nil {
		s.forceClose("write")
		return fmt.Errorf("routeros: write: %w", err)
	}
	return nil
}

// login sends the credential sentence and waits for the verdict.
func (s *Session) login(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.LoginTimeout)
	defer cancel()

	words := protocol.Sentence{
		"/login",
		"=name=" + s.cfg.Username,
		"=password=" + s.cfg.Password,
	}
	if err := s.writeSentence(ctx, words); err != nil {
		return err
	}
	for {
		rep, err := s.nextReply(ctx)
		if err != nil {
			return err
		}
		switch rep.Kind {
		case protocol.KindDone:
			return nil
		case protocol.KindTrap:
			return fmt.Errorf("%w: %s", ErrAuthFailed, rep.Message)
		default:
			continue
		}
	}
}

// Execute sends cmd and buffers its whole reply, returning every data
// row the device produced. A trap anywhere in the reply discards the
// rows already read and fails the call with a TrapError.
func (s *Session) Execute(ctx context.Context, cmd Command) ([]Row, error) {
	if cmd.empty() {
		return nil, ErrEmptyCommand
	}
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()
	return s.execute(ctx, cmd, "execute")
}

// ExecuteBatch runs commands in order on the one connection, stopping
// at the first failure and returning the rows of the commands that
// completed. The batch holds the command lock for its whole duration,
// so no other command can interleave.
func (s *Session) ExecuteBatch(ctx context.Context, cmds []Command) ([][]Row, error) {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	results := make([][]Row, 0, len(cmds))
	for _, cmd := range cmds {
		if cmd.empty() {
			return results, ErrEmptyCommand
		}
		rows, err := s.execute(ctx, cmd, "execute")
		if err != nil {
			return results, err
		}
		results = append(results, rows)
	}
	return results, nil
}

// Probe checks the device still answers by running a cheap identity
// lookup under a short deadline. Any failure closes the session and
// reports false.
func (s *Session) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ProbeTimeout)
	defer cancel()

	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()
	if _, err := s.execute(ctx, NewCommand("/system/identity/print"), "probe"); err != nil {
		s.forceClose("probe")
		return false
	}
	return true
}

// execute runs one command round trip. Callers hold cmdMu.
func (s *Session) execute(ctx context.Context, cmd Command, mode string) ([]Row, error) {
	if err := s.requireReady(); err != nil {
		return nil, err
	}
	start := time.Now()
	rows, err := s.collect(ctx, cmd)
	observability.RecordCommand(mode, outcome(err), time.Since(start))
	return rows, err
}

// collect reads sentences until the terminator. On a trap it keeps
// draining to the !done so the connection stays aligned on sentence
// boundaries, then fails the call. A read failure during that drain
// still reports the trap as the command's outcome.
func (s *Session) collect(ctx context.Context, cmd Command) ([]Row, error) {
	if err := s.writeSentence(ctx, cmd.words()); err != nil {
		return nil, err
	}

	var rows []Row
	var trap *TrapError
	for {
		rep, err := s.nextReply(ctx)
		if err != nil {
			if trap != nil {
				return nil, trap
			}
			return nil, err
		}
		switch rep.Kind {
		case protocol.KindRow:
			if len(rep.Row) == 0 {
				continue
			}
			if trap == nil {
				rows = append(rows, Row(rep.Row))
			}
		case protocol.KindTrap:
			if trap == nil {
				trap = &TrapError{Command: cmd.name(), Message: rep.Message}
			}
		case protocol.KindDone:
			if trap != nil {
				return nil, trap
			}
			observability.RecordReplyRows(len(rows))
			return rows, nil
		default:
			continue
		}
	}
}

func (s *Session) requireReady() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateReady {
		return fmt.Errorf("%w: state=%s", ErrNotReady, s.state)
	}
	return nil
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Close releases the transport. It is idempotent, never fails, and is
// valid in every state. It does not release an unfinished Stream: the
// stream holds the command lock until its own Close, and commands
// block on that lock until then.
func (s *Session) Close() error {
	s.mu.Lock()
	conn := s.conn
	done := s.done
	s.conn = nil
	s.replies = nil
	s.state = StateDisconnected
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	close(done)
	_ = conn.Close()
	s.log.Debug().Msg("session closed")
	return nil
}

// forceClose tears the session down after a failure. Unlike Close it
// marks the session StateClosed so callers can tell a failed session
// from one that never connected.
func (s *Session) forceClose(reason string) {
	s.mu.Lock()
	conn := s.conn
	done := s.done
	s.conn = nil
	s.replies = nil
	if conn != nil {
		s.state = StateClosed
	}
	s.mu.Unlock()

	if conn == nil {
		return
	}
	close(done)
	_ = conn.Close()
	observability.RecordForcedClose(reason)
	s.log.Debug().Str("reason", reason).Msg("session force closed")
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrCommandFailed):
		return "trap"
	default:
		return "error"
	}
}

func redactWords(words protocol.Sentence) []string {
	out := make([]string, len(words))
	for i, w := range words {
		if strings.HasPrefix(w, "=password=") {
			w = "=password=***"
		}
		out[i] = w
	}
	return out
}
