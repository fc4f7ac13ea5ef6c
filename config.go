package routeros

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ShafiqSadat/RouterOSClient/internal/protocol/frame"
)

// Default API ports. RouterOS serves the plain protocol on 8728 and the
// TLS variant on 8729.
const (
	DefaultPort    = 8728
	DefaultTLSPort = 8729
)

// TLSConfig controls the TLS leg of a session.
type TLSConfig struct {
	Enabled            bool
	ServerName         string
	CAFile             string
	InsecureSkipVerify bool
	Mutual             bool
	CertFile           string
	KeyFile            string
}

// Config carries everything a Session needs. The zero value is not
// usable: Address and Username are required, and timeouts of zero are
// replaced by DefaultConfig values through WithDefaults.
type Config struct {
	// Address is the device host, with an optional port. Without one
	// the default API port for the chosen transport is used.
	Address  string
	Username string
	Password string

	TLS TLSConfig

	ConnectTimeout time.Duration // dial and TLS handshake
	LoginTimeout   time.Duration // whole login exchange
	ReadTimeout    time.Duration // wait for each reply sentence
	WriteTimeout   time.Duration // one outgoing sentence
	ProbeTimeout   time.Duration // whole Probe round trip

	Limits frame.Limits

	// Verbose enables console logging of the word traffic when no
	// Logger is supplied.
	Verbose bool
	Logger  *zerolog.Logger
}

func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 5 * time.Second,
		LoginTimeout:   10 * time.Second,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   10 * time.Second,
		ProbeTimeout:   3 * time.Second,
		Limits:         frame.DefaultLimits(),
	}
}

// WithDefaults fills unset durations and limits from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.LoginTimeout <= 0 {
		c.LoginTimeout = def.LoginTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = def.ProbeTimeout
	}
	if c.Limits.MaxWordBytes == 0 {
		c.Limits.MaxWordBytes = def.Limits.MaxWordBytes
	}
	if c.Limits.MaxSentenceWords == 0 {
		c.Limits.MaxSentenceWords = def.Limits.MaxSentenceWords
	}
	return c
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Address) == "" {
		return ErrAddressRequired
	}
	if strings.TrimSpace(c.Username) == "" {
		return ErrUsernameRequired
	}
	if c.TLS.Mutual && !c.TLS.Enabled {
		return ErrTLSRequired
	}
	if c.TLS.Mutual {
		if strings.TrimSpace(c.TLS.CertFile) == "" {
			return ErrTLSCertFileRequired
		}
		if strings.TrimSpace(c.TLS.KeyFile) == "" {
			return ErrTLSKeyFileRequired
		}
	}
	return nil
}

// hostPort resolves Address to host:port, applying the default port
// for the configured transport when none is given.
func (c Config) hostPort() string {
	addr := strings.TrimSpace(c.Address)
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	host := addr
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		host = host[1 : len(host)-1]
	}
	port := DefaultPort
	if c.TLS.Enabled {
		port = DefaultTLSPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func (c Config) logger() zerolog.Logger {
	if c.Logger != nil {
		return *c.Logger
	}
	if c.Verbose {
		output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.Nop()
}
