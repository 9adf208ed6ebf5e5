// Package transport implements the SSH transport: dialing, authentication,
// PTY + shell session establishment, host-key policy, and keepalive. It is
// deliberately thin — "opens an authenticated interactive session with a
// PTY and bidirectional byte stream" — everything about prompts and modes
// lives above it in pkg/channel and pkg/driver.
package transport

import (
	"fmt"
	"io"
	"net"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	"github.com/ngoclaw/clidriver/pkg/clierrors"
	"github.com/ngoclaw/clidriver/pkg/safego"
)

// HostKeyPolicy selects how an unknown or changed host key is handled.
type HostKeyPolicy int

const (
	// AcceptNewHostKey auto-learns unknown hosts but rejects changed keys.
	// This is the default.
	AcceptNewHostKey HostKeyPolicy = iota
	// StrictHostKey rejects both unknown and changed host keys.
	StrictHostKey
	// DisabledHostKey accepts any host key. Testing only.
	DisabledHostKey
)

// Auth describes how to authenticate: at least one of Password or KeyPEM
// must be set. When both are set, the key is offered first, then the
// password.
type Auth struct {
	Username      string
	Password      string
	KeyPEM        []byte
	KeyPassphrase string
}

// HasPassword reports whether password authentication material is present,
// used by the driver to decide whether it can answer an authentication
// sub-prompt raised mid-session (e.g. "enable" -> "Password:").
func (a Auth) HasPassword() bool { return a.Password != "" }

// Config configures Dial.
type Config struct {
	Host string
	Port int // default 22

	Auth Auth

	HostKeyPolicy  HostKeyPolicy
	KnownHostsPath string // default: $HOME/.ssh/known_hosts

	ConnectTimeout time.Duration // default 10s

	TermWidth, TermHeight int // default 200x50, overridden by platform/caller

	KeepaliveInterval time.Duration // default 30s, 0 disables
	KeepaliveMax      int           // default 3
	InactivityTimeout time.Duration // 0 disables

	Logger *zap.Logger
}

// chunk is a unit of data (or terminal error) delivered by the background
// reader goroutines. Stderr-class extended data is tagged identically to
// stdout — the channel layer treats them the same.
type chunk struct {
	data []byte
	err  error
}

// Session is the bidirectional byte stream the channel layer consumes. The
// real implementation is *SSHSession; tests substitute an in-memory fake.
type Session interface {
	// Write sends bytes to the remote shell. It does not wait for a reply.
	Write(p []byte) (int, error)
	// ReadChunk blocks until the next non-empty chunk of output arrives, the
	// deadline passes, or the session ends. A zero deadline means no
	// deadline.
	ReadChunk(deadline time.Time) ([]byte, error)
	// Close ends the session. Idempotent.
	Close() error
	// Alive reports whether the background read loop is still running.
	Alive() bool
}

// SSHSession is the production Session backed by golang.org/x/crypto/ssh.
type SSHSession struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.Writer

	chunks chan chunk
	done   chan struct{}
	alive  bool

	logger *zap.Logger
}

// Dial connects, authenticates, requests a PTY of the configured
// dimensions, and starts an interactive shell.
func Dial(cfg Config) (*SSHSession, error) {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.TermWidth == 0 {
		cfg.TermWidth = 200
	}
	if cfg.TermHeight == 0 {
		cfg.TermHeight = 50
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	authMethods, err := authMethods(cfg.Auth)
	if err != nil {
		return nil, err
	}

	hostKeyCallback, err := hostKeyCallback(cfg.HostKeyPolicy, cfg.KnownHostsPath)
	if err != nil {
		return nil, err
	}

	clientConfig := &ssh.ClientConfig{
		User:            cfg.Auth.Username,
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         cfg.ConnectTimeout,
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := net.DialTimeout("tcp", addr, cfg.ConnectTimeout)
	if err != nil {
		return nil, clierrors.ConnectionFailed(cfg.Host, cfg.Port, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		conn.Close()
		if isHostKeyErr(err) {
			return nil, err // already a *clierrors.Error from hostKeyCallback
		}
		return nil, clierrors.AuthFailed(cfg.Auth.Username, err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)

	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return nil, clierrors.Protocol(err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED:  14400,
		ssh.TTY_OP_OSPEED:  14400,
	}
	if err := session.RequestPty("xterm", cfg.TermHeight, cfg.TermWidth, modes); err != nil {
		session.Close()
		client.Close()
		return nil, clierrors.PTYFailed(err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, clierrors.ShellFailed(err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, clierrors.ShellFailed(err)
	}
	stderr, err := session.StderrPipe()
	if err != nil {
		session.Close()
		client.Close()
		return nil, clierrors.ShellFailed(err)
	}

	if err := session.Shell(); err != nil {
		session.Close()
		client.Close()
		return nil, clierrors.ShellFailed(err)
	}

	s := &SSHSession{
		client:  client,
		session: session,
		stdin:   stdin,
		chunks:  make(chan chunk, 64),
		done:    make(chan struct{}),
		alive:   true,
		logger:  logger,
	}

	go s.readLoop(stdout)
	go s.readLoop(stderr)

	if cfg.KeepaliveInterval > 0 {
		max := cfg.KeepaliveMax
		if max <= 0 {
			max = 3
		}
		safego.Go(logger, "ssh-keepalive", func() { s.keepaliveLoop(cfg.KeepaliveInterval, max) })
	}

	return s, nil
}

func (s *SSHSession) readLoop(r io.Reader) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			cp := make([]byte, n)
			copy(cp, buf[:n])
			select {
			case s.chunks <- chunk{data: cp}:
			case <-s.done:
				return
			}
		}
		if err != nil {
			select {
			case s.chunks <- chunk{err: err}:
			case <-s.done:
			}
			return
		}
	}
}

func (s *SSHSession) keepaliveLoop(interval time.Duration, max int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	missed := 0
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			_, _, err := s.client.SendRequest("keepalive@clidriver", true, nil)
			if err != nil {
				missed++
				s.logger.Debug("keepalive missed", zap.Int("missed", missed), zap.Int("max", max))
				if missed >= max {
					s.logger.Warn("keepalive max missed, closing session", zap.Int("max", max))
					s.Close()
					return
				}
				continue
			}
			missed = 0
		}
	}
}

// Write implements Session.
func (s *SSHSession) Write(p []byte) (int, error) {
	return s.stdin.Write(p)
}

// ReadChunk implements Session.
func (s *SSHSession) ReadChunk(deadline time.Time) ([]byte, error) {
	var timer *time.Timer
	var timerC <-chan time.Time
	if !deadline.IsZero() {
		d := time.Until(deadline)
		if d <= 0 {
			return nil, clierrors.PatternTimeout(0)
		}
		timer = time.NewTimer(d)
		timerC = timer.C
		defer timer.Stop()
	}

	select {
	case c, ok := <-s.chunks:
		if !ok {
			return nil, clierrors.ChannelClosed(io.EOF)
		}
		if c.err != nil {
			s.markDead()
			if c.err == io.EOF {
				return nil, clierrors.ChannelClosed(c.err)
			}
			return nil, clierrors.ChannelClosed(c.err)
		}
		return c.data, nil
	case <-timerC:
		return nil, clierrors.PatternTimeout(time.Until(deadline))
	case <-s.done:
		return nil, clierrors.ChannelClosed(nil)
	}
}

func (s *SSHSession) markDead() {
	s.alive = false
}

// Alive implements Session.
func (s *SSHSession) Alive() bool { return s.alive }

// Close implements Session. Idempotent.
func (s *SSHSession) Close() error {
	select {
	case <-s.done:
		return nil
	default:
		close(s.done)
	}
	s.alive = false
	var firstErr error
	if s.session != nil {
		if err := s.session.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.client != nil {
		if err := s.client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
