// Package routertest runs an in-process RouterOS API endpoint driven by
// a fixed script, for exercising sessions against a real socket.
package routertest

import (
	"crypto/tls"
	"net"
	"sync"
	"testing"

	"github.com/ShafiqSadat/RouterOSClient/internal/protocol/frame"
)

// Script maps a command word (the first word of a received sentence) to
// the reply sentences the device answers with, in order. Replies are
// written verbatim, so scripts spell out the full exchange including
// its !done. Special cases:
//   - an unscripted command is never answered, the connection stays open
//   - an empty (non-nil) reply list closes the connection after the read
//   - a nil reply sentence closes the connection at that point
//   - an unscripted "/login" is answered with a bare !done
type Script map[string][][]string

// Device is an in-process API endpoint driven by a Script.
type Device struct {
	ln     net.Listener
	script Script

	mu       sync.Mutex
	conns    []net.Conn
	received [][]string
}

// Start listens on a loopback port and serves script until the test
// ends.
func Start(t testing.TB, script Script) *Device {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	return serve(t, ln, script)
}

// StartTLS is Start behind a TLS listener.
func StartTLS(t testing.TB, script Script, cfg *tls.Config) *Device {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	return serve(t, tls.NewListener(ln, cfg), script)
}

func serve(t testing.TB, ln net.Listener, script Script) *Device {
	d := &Device{ln: ln, script: script}
	go d.acceptLoop()
	t.Cleanup(d.close)
	return d
}

// Addr returns the host:port the device listens on.
func (d *Device) Addr() string {
	return d.ln.Addr().String()
}

// Received returns every sentence read so far, oldest first.
func (d *Device) Received() [][]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][]string, len(d.received))
	copy(out, d.received)
	return out
}

func (d *Device) close() {
	d.ln.Close()
	d.mu.Lock()
	conns := d.conns
	d.conns = nil
	d.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
}

func (d *Device) acceptLoop() {
	for {
		conn, err := d.ln.Accept()
		if err != nil {
			return
		}
		d.mu.Lock()
		d.conns = append(d.conns, conn)
		d.mu.Unlock()
		go d.handle(conn)
	}
}

func (d *Device) handle(conn net.Conn) {
	defer conn.Close()
	limits := frame.DefaultLimits()
	for {
		words, err := frame.ReadSentence(conn, limits)
		if err != nil {
			return
		}
		if len(words) == 0 {
			continue
		}
		d.mu.Lock()
		d.received = append(d.received, words)
		d.mu.Unlock()

		replies, ok := d.script[words[0]]
		if !ok {
			if words[0] != "/login" {
				continue
			}
			replies = [][]string{{"!done"}}
		}
		if len(replies) == 0 {
			return
		}
		for _, sentence := range replies {
			if sentence == nil {
				return
			}
			if err := frame.WriteSentence(conn, sentence); err != nil {
				return
			}
		}
	}
}
