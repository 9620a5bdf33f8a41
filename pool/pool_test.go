package pool

// Whitebox tests: dialStream is swapped for an in-memory pipe backed by a
// minimal scripted server.

import (
	"io"
	"log"
	"net"
	"testing"
	"time"

	"github.com/graphwire/bolt/chunk"
	"github.com/graphwire/bolt/message"
	"github.com/graphwire/bolt/packstream"
	"github.com/graphwire/bolt/state"
	"github.com/graphwire/bolt/transport"
)

func init() {
	// Always prepend the filename and line number.
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

// serveBolt answers every request with SUCCESS until GOODBYE or EOF.
func serveBolt(conn net.Conn) {
	defer conn.Close()
	handshake := make([]byte, 20)
	if _, err := io.ReadFull(conn, handshake); err != nil {
		return
	}
	// Accept V4.4.
	if _, err := conn.Write([]byte{0x00, 0x00, 0x04, 0x04}); err != nil {
		return
	}
	for {
		buf, err := chunk.Read(conn)
		if err != nil {
			return
		}
		m, err := message.Unmarshal(buf)
		if err != nil {
			return
		}
		if _, ok := m.(message.Goodbye); ok {
			return
		}
		reply, err := message.Marshal(message.Success{Metadata: map[string]packstream.Value{}})
		if err != nil {
			return
		}
		if err := chunk.Write(conn, reply); err != nil {
			return
		}
	}
}

func withFakeDialer(t *testing.T) {
	t.Helper()
	orig := dialStream
	dialStream = func(addr, domain string, timeout time.Duration) (*transport.Stream, error) {
		clientSide, serverSide := net.Pipe()
		go serveBolt(serverSide)
		return transport.NewStream(clientSide), nil
	}
	t.Cleanup(func() { dialStream = orig })
}

func testConfig() Config {
	return Config{
		Addr:      "fake:7687",
		UserAgent: "pool-test/1.0",
		Auth:      map[string]packstream.Value{"scheme": "none"},
	}
}

func TestGetPutReuses(t *testing.T) {
	withFakeDialer(t)
	p := New(testConfig())
	defer p.Close()

	c, err := p.Get()
	if err != nil {
		t.Fatal(err)
	}
	if c.State() != state.Ready {
		t.Fatal("Fresh connection state =", c.State())
	}
	p.Put(c)

	again, err := p.Get()
	if err != nil {
		t.Fatal(err)
	}
	if again != c {
		t.Error("Pool should hand back the idle connection")
	}
	p.Put(again)
}

func TestPutClosedConnectionIsDropped(t *testing.T) {
	withFakeDialer(t)
	p := New(testConfig())
	defer p.Close()

	c, err := p.Get()
	if err != nil {
		t.Fatal(err)
	}
	// Simulate the borrower breaking the connection.
	if err := c.Client.Close(); err != nil {
		t.Fatal(err)
	}
	p.Put(c)

	p.mu.Lock()
	idle := len(p.idle)
	p.mu.Unlock()
	if idle != 0 {
		t.Error("A defunct connection must not be pooled")
	}
}

func TestMaxIdle(t *testing.T) {
	withFakeDialer(t)
	cfg := testConfig()
	cfg.MaxIdle = 1
	p := New(cfg)
	defer p.Close()

	c1, err := p.Get()
	if err != nil {
		t.Fatal(err)
	}
	c2, err := p.Get()
	if err != nil {
		t.Fatal(err)
	}
	if c1 == c2 {
		t.Fatal("Two concurrent borrowers got the same connection")
	}
	p.Put(c1)
	p.Put(c2)

	p.mu.Lock()
	idle := len(p.idle)
	p.mu.Unlock()
	if idle != 1 {
		t.Error("Idle list should be capped at 1, have", idle)
	}
}

func TestGetAfterClose(t *testing.T) {
	withFakeDialer(t)
	p := New(testConfig())
	c, err := p.Get()
	if err != nil {
		t.Fatal(err)
	}
	p.Put(c)
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Get(); err != ErrClosed {
		t.Errorf("Get after Close = %v, want ErrClosed", err)
	}
	// Put after Close quietly closes the connection.
	p.Put(c)
}

func TestPipeUUIDIsEmpty(t *testing.T) {
	withFakeDialer(t)
	p := New(testConfig())
	defer p.Close()
	c, err := p.Get()
	if err != nil {
		t.Fatal(err)
	}
	// net.Pipe is not a TCP socket, so there is no cookie to derive from.
	if c.UUID != "" {
		t.Error("UUID =", c.UUID)
	}
	p.Put(c)
}
