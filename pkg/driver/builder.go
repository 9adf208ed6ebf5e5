package driver

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ngoclaw/clidriver/pkg/clierrors"
	"github.com/ngoclaw/clidriver/pkg/platform"
	"github.com/ngoclaw/clidriver/pkg/transport"
)

// Builder fluently assembles a Driver. Per spec, build() fails with
// InvalidConfig if username or an authentication method is missing;
// platform is mandatory.
type Builder struct {
	host string
	port int

	username      string
	password      string
	keyPEM        []byte
	keyPassphrase string

	platformName   string
	customPlatform *platform.Platform

	timeout time.Duration

	hostKeyPolicy  transport.HostKeyPolicy
	knownHostsPath string

	keepaliveInterval time.Duration
	keepaliveMax      int
	inactivityTimeout time.Duration

	termWidth, termHeight int

	normalize bool
	logger    *zap.Logger

	dial func(transport.Config) (transport.Session, error)
}

// NewBuilder starts a Driver builder for the given host.
func NewBuilder(host string) *Builder {
	return &Builder{
		host:              host,
		port:              22,
		timeout:           30 * time.Second,
		hostKeyPolicy:     transport.AcceptNewHostKey,
		keepaliveInterval: 30 * time.Second,
		keepaliveMax:      3,
		normalize:         true,
	}
}

func (b *Builder) Port(p int) *Builder              { b.port = p; return b }
func (b *Builder) Username(u string) *Builder        { b.username = u; return b }
func (b *Builder) Password(p string) *Builder        { b.password = p; return b }
func (b *Builder) PrivateKey(pem []byte, passphrase string) *Builder {
	b.keyPEM = pem
	b.keyPassphrase = passphrase
	return b
}
func (b *Builder) Platform(name string) *Builder { b.platformName = name; return b }
func (b *Builder) CustomPlatform(p *platform.Platform) *Builder {
	b.customPlatform = p
	return b
}
func (b *Builder) Timeout(d time.Duration) *Builder { b.timeout = d; return b }
func (b *Builder) HostKeyPolicy(p transport.HostKeyPolicy) *Builder {
	b.hostKeyPolicy = p
	return b
}
func (b *Builder) KnownHostsPath(path string) *Builder { b.knownHostsPath = path; return b }
func (b *Builder) Keepalive(interval time.Duration, max int) *Builder {
	b.keepaliveInterval = interval
	b.keepaliveMax = max
	return b
}
func (b *Builder) InactivityTimeout(d time.Duration) *Builder { b.inactivityTimeout = d; return b }
func (b *Builder) TerminalSize(width, height int) *Builder {
	b.termWidth = width
	b.termHeight = height
	return b
}
func (b *Builder) Normalize(enabled bool) *Builder { b.normalize = enabled; return b }
func (b *Builder) Logger(l *zap.Logger) *Builder   { b.logger = l; return b }

// Dialer overrides how Build's resulting Driver connects, in place of
// transport.Dial. Exists so callers that need many independently-dialed
// test doubles (e.g. pkg/fanout's tests) can wire each one without a real
// network connection.
func (b *Builder) Dialer(fn func(transport.Config) (transport.Session, error)) *Builder {
	b.dial = fn
	return b
}

// Build validates the configuration and resolves the platform, but does not
// open the SSH session — call Open on the returned Driver for that.
func (b *Builder) Build() (*Driver, error) {
	if b.username == "" {
		return nil, clierrors.InvalidConfig("username is required")
	}
	if b.password == "" && len(b.keyPEM) == 0 {
		return nil, clierrors.InvalidConfig("an authentication method (password or private key) is required")
	}

	var plat *platform.Platform
	if b.customPlatform != nil {
		plat = b.customPlatform
	} else if b.platformName != "" {
		p, err := platform.Get(b.platformName)
		if err != nil {
			return nil, err
		}
		plat = p
	} else {
		return nil, clierrors.InvalidConfig("platform is required")
	}

	graph, err := newGraphFromPlatform(plat)
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	logger = logger.With(zap.String("driver_id", id))

	width, height := plat.Width, plat.Height
	if b.termWidth > 0 {
		width = b.termWidth
	}
	if b.termHeight > 0 {
		height = b.termHeight
	}

	d := &Driver{
		id: id,
		transportCfg: transport.Config{
			Host: b.host,
			Port: b.port,
			Auth: transport.Auth{
				Username:      b.username,
				Password:      b.password,
				KeyPEM:        b.keyPEM,
				KeyPassphrase: b.keyPassphrase,
			},
			HostKeyPolicy:     b.hostKeyPolicy,
			KnownHostsPath:    b.knownHostsPath,
			ConnectTimeout:    b.timeout,
			TermWidth:         width,
			TermHeight:        height,
			KeepaliveInterval: b.keepaliveInterval,
			KeepaliveMax:      b.keepaliveMax,
			InactivityTimeout: b.inactivityTimeout,
			Logger:            logger,
		},
		password:  b.password,
		plat:      plat,
		graph:     graph,
		timeout:   b.timeout,
		normalize: b.normalize,
		logger:    logger,
		dial:      b.dial,
	}
	if err := d.rebuildCombinedPrompt(); err != nil {
		return nil, err
	}
	if err := d.graph.SetCurrent(plat.DefaultMode); err != nil {
		return nil, err
	}
	return d, nil
}
