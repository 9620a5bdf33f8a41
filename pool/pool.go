// Package pool maintains a pool of authenticated Bolt clients.  The pool
// treats clients as opaque resources with create, validate and close hooks:
// create dials and authenticates, validate runs a RESET round trip, and close
// says goodbye before dropping the socket.
//
// Pool is threadsafe; the clients it hands out are not.
package pool

import (
	"net"
	"sync"
	"time"

	"github.com/m-lab/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/graphwire/bolt/client"
	"github.com/graphwire/bolt/message"
	"github.com/graphwire/bolt/metrics"
	"github.com/graphwire/bolt/packstream"
	"github.com/graphwire/bolt/state"
	"github.com/graphwire/bolt/transport"
	"github.com/graphwire/bolt/version"
)

// Package error messages.
var (
	ErrClosed = errors.New("pool is closed")
)

// A variable to enable mocking for testing.
var dialStream = transport.Dial

// Config describes how the pool reaches and authenticates with the server.
type Config struct {
	// Addr is the host:port of the Bolt server.
	Addr string
	// TLSDomain enables TLS when nonempty; the server certificate must match.
	TLSDomain string
	// UserAgent identifies this client to the server.
	UserAgent string
	// Auth carries the authentication entries, at minimum "scheme".
	Auth map[string]packstream.Value
	// Proposals is the handshake preference order.  The zero value means
	// version.DefaultProposals.
	Proposals [4]version.Version
	// MaxIdle bounds the idle list; extra returned clients are closed.
	// The zero value means 4.
	MaxIdle int
	// DialTimeout bounds connection establishment.  The zero value means 10s.
	DialTimeout time.Duration
}

func (c *Config) proposals() [4]version.Version {
	if c.Proposals == ([4]version.Version{}) {
		return version.DefaultProposals
	}
	return c.Proposals
}

func (c *Config) maxIdle() int {
	if c.MaxIdle <= 0 {
		return 4
	}
	return c.MaxIdle
}

func (c *Config) dialTimeout() time.Duration {
	if c.DialTimeout <= 0 {
		return 10 * time.Second
	}
	return c.DialTimeout
}

// Conn is a pooled client.  UUID identifies the underlying socket across
// restarts of the local machine; it is empty when the stream is not a plain
// TCP socket (TLS streams included) or its cookie cannot be read.
type Conn struct {
	*client.Client
	UUID string

	stream *transport.Stream
}

// Pool hands out authenticated clients and recycles the ones returned to it.
type Pool struct {
	cfg Config

	mu     sync.Mutex
	idle   []*Conn
	closed bool
}

// New creates an empty pool.  Connections are dialed on demand by Get.
func New(cfg Config) *Pool {
	return &Pool{cfg: cfg}
}

// Get returns an idle client or creates a new one.  The caller owns the
// client until it is handed back with Put.
func (p *Pool) Get() (*Conn, error) {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, ErrClosed
		}
		if n := len(p.idle); n > 0 {
			c := p.idle[n-1]
			p.idle = p.idle[:n-1]
			p.mu.Unlock()
			metrics.PoolSize.Dec()
			if p.validate(c) {
				return c, nil
			}
			c.discard()
			continue
		}
		p.mu.Unlock()
		return p.create()
	}
}

// Put hands a client back to the pool.  Anything not cleanly in the Ready
// state is closed instead of pooled.
func (p *Pool) Put(c *Conn) {
	if c == nil {
		return
	}
	if c.State() != state.Ready || !p.validate(c) {
		c.discard()
		return
	}
	p.mu.Lock()
	if p.closed || len(p.idle) >= p.cfg.maxIdle() {
		p.mu.Unlock()
		c.close()
		return
	}
	p.idle = append(p.idle, c)
	p.mu.Unlock()
	metrics.PoolSize.Inc()
}

// Close closes all idle clients.  Clients currently handed out are the
// borrowers' problem; Put after Close closes them.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	metrics.PoolSize.Sub(float64(len(idle)))
	g := errgroup.Group{}
	for _, c := range idle {
		c := c
		g.Go(func() error {
			return c.close()
		})
	}
	return g.Wait()
}

// create is the pool's create hook: dial, handshake, authenticate.
func (p *Pool) create() (*Conn, error) {
	stream, err := dialStream(p.cfg.Addr, p.cfg.TLSDomain, p.cfg.dialTimeout())
	if err != nil {
		return nil, err
	}
	cl, err := client.New(stream, p.cfg.proposals())
	if err != nil {
		stream.Close()
		return nil, err
	}
	metadata := map[string]packstream.Value{"user_agent": p.cfg.UserAgent}
	for k, v := range p.cfg.Auth {
		metadata[k] = v
	}
	resp, err := cl.Hello(metadata)
	if err != nil {
		stream.Close()
		return nil, err
	}
	if failure, ok := resp.(message.Failure); ok {
		stream.Close()
		return nil, errors.Errorf("authentication failed: %s: %s", failure.Code(), failure.Text())
	}
	metrics.PoolConnectionCount.Inc()
	return &Conn{Client: cl, UUID: socketUUID(stream), stream: stream}, nil
}

// validate is the pool's validate hook: a RESET round trip proves the
// connection is alive and leaves the server Ready.
func (p *Pool) validate(c *Conn) bool {
	resp, err := c.Reset()
	if err != nil {
		return false
	}
	if _, err := message.AsSuccess(resp); err != nil {
		return false
	}
	return c.State() == state.Ready
}

// close is the pool's close hook; the client sends GOODBYE where the version
// has it.
func (c *Conn) close() error {
	return c.Client.Close()
}

// discard drops a broken connection without protocol niceties.
func (c *Conn) discard() {
	c.stream.Close()
}

// socketUUID derives a stable identifier from the socket cookie where the
// platform provides one.
func socketUUID(stream *transport.Stream) string {
	tc, ok := stream.Raw().(*net.TCPConn)
	if !ok {
		return ""
	}
	id, err := uuid.FromTCPConn(tc)
	if err != nil {
		return ""
	}
	return id
}
