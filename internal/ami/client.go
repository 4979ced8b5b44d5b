package ami

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrNotConnected is returned by Send when there is no live AMI session.
var ErrNotConnected = errors.New("not connected to asterisk")

// Handler receives incoming AMI events, one at a time, in wire order.
type Handler func(Event)

// ClientOptions configures an AMI client.
type ClientOptions struct {
	Addr         string
	Username     string
	Secret       string
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       *logrus.Logger
}

// Client maintains one authenticated AMI connection: a serial read loop
// delivering events to a handler, and an action writer with a bounded
// deadline so a stalled link cannot wedge callers.
type Client struct {
	opts ClientOptions
	log  *logrus.Logger

	mu        sync.Mutex
	conn      net.Conn
	reader    *bufio.Reader
	connected bool
}

// NewClient creates a Client. It does not connect.
func NewClient(opts ClientOptions) *Client {
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 10 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = logrus.New()
	}
	return &Client{opts: opts, log: log}
}

// Connect dials the AMI port, consumes the banner and logs in.
func (c *Client) Connect() error {
	conn, err := net.DialTimeout("tcp", c.opts.Addr, c.opts.DialTimeout)
	if err != nil {
		return fmt.Errorf("dial AMI: %w", err)
	}

	reader := bufio.NewReader(conn)

	conn.SetReadDeadline(time.Now().Add(c.opts.DialTimeout))
	banner, err := reader.ReadString('\n')
	if err != nil {
		conn.Close()
		return fmt.Errorf("reading AMI banner: %w", err)
	}
	conn.SetReadDeadline(time.Time{})
	c.log.WithField("banner", strings.TrimSpace(banner)).Info("connected to AMI")

	login := NewAction("Login", "Username", c.opts.Username, "Secret", c.opts.Secret)
	conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	if _, err := conn.Write(login.Encode()); err != nil {
		conn.Close()
		return fmt.Errorf("sending login: %w", err)
	}
	conn.SetWriteDeadline(time.Time{})

	c.mu.Lock()
	c.conn = conn
	c.reader = reader
	c.connected = true
	c.mu.Unlock()
	return nil
}

// Run reads events until the connection drops, invoking the handler for
// each. It returns once the stream ends; the client is then marked
// disconnected and Send fails fast until the next Connect.
func (c *Client) Run(handler Handler) error {
	c.mu.Lock()
	reader := c.reader
	c.mu.Unlock()
	if reader == nil {
		return ErrNotConnected
	}

	parser := NewParser(reader)
	for {
		evt, ok := parser.Next()
		if !ok {
			c.markDisconnected()
			return fmt.Errorf("AMI connection closed")
		}
		handler(evt)
	}
}

// Send writes an action to the link. It fails immediately when the
// session is down rather than queueing.
func (c *Client) Send(a Action) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected || c.conn == nil {
		return ErrNotConnected
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	defer c.conn.SetWriteDeadline(time.Time{})
	if _, err := c.conn.Write(a.Encode()); err != nil {
		return fmt.Errorf("sending %s action: %w", a.Name, err)
	}
	return nil
}

// Connected reports whether an authenticated session is up.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Close logs off and tears down the connection. Safe to call when
// already disconnected.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	c.conn.Write(NewAction("Logoff").Encode())
	err := c.conn.Close()
	c.conn = nil
	c.reader = nil
	c.connected = false
	return err
}

func (c *Client) markDisconnected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.reader = nil
	c.connected = false
}
