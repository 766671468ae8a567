package transport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/golang/glog"
	"github.com/gorilla/websocket"
)

var (
	ErrNotOpen        = errors.New("transport not open")
	ErrClosed         = errors.New("transport closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

type EventKind int

const (
	EventOpen EventKind = iota
	EventMessage
	EventError
	EventClosed
)

func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "open"
	case EventMessage:
		return "message"
	case EventError:
		return "error"
	default:
		return "closed"
	}
}

// Event is what a connection reports to its owner. Closed is always the last event.
type Event struct {
	Kind EventKind
	Data string
	Err  error
}

type Settings struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	ReadTimeout      time.Duration
	PingInterval     time.Duration
	CloseTimeout     time.Duration
	// retries of the initial dial after the first attempt; 0 dials once.
	// There is no reconnect once a connection was open.
	DialRetries     uint64
	SendBufferSize  int
	EventBufferSize int
}

func DefaultSettings() *Settings {
	return &Settings{
		HandshakeTimeout: 5 * time.Second,
		WriteTimeout:     5 * time.Second,
		ReadTimeout:      60 * time.Second,
		PingInterval:     15 * time.Second,
		CloseTimeout:     2 * time.Second,
		DialRetries:      3,
		SendBufferSize:   256,
		EventBufferSize:  256,
	}
}

// Conn is one websocket client connection. It dials in the background and
// reports open, messages, errors and close on its event channel.
type Conn struct {
	ctx        context.Context
	dialCtx    context.Context
	dialCancel context.CancelFunc

	name     string
	url      string
	settings *Settings

	events chan Event
	send   chan []byte

	stateLock      sync.Mutex
	ws             *websocket.Conn
	closeRequested bool
	done           chan struct{}
}

func ConnectWithDefaults(ctx context.Context, name string, url string) *Conn {
	return Connect(ctx, name, url, DefaultSettings())
}

func Connect(ctx context.Context, name string, url string, settings *Settings) *Conn {
	dialCtx, dialCancel := context.WithCancel(ctx)
	c := &Conn{
		ctx:        ctx,
		dialCtx:    dialCtx,
		dialCancel: dialCancel,
		name:       name,
		url:        url,
		settings:   settings,
		events:     make(chan Event, settings.EventBufferSize),
		send:       make(chan []byte, settings.SendBufferSize),
		done:       make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *Conn) Name() string {
	return c.name
}

func (c *Conn) Events() <-chan Event {
	return c.events
}

func (c *Conn) emit(event Event) {
	select {
	case c.events <- event:
	case <-c.ctx.Done():
	}
}

func (c *Conn) dial() (*websocket.Conn, error) {
	dialer := &websocket.Dialer{
		HandshakeTimeout: c.settings.HandshakeTimeout,
	}
	var ws *websocket.Conn
	op := func() error {
		var err error
		ws, _, err = dialer.DialContext(c.dialCtx, c.url, nil)
		if err != nil {
			glog.Infof("[t]%s dial %s error = %s\n", c.name, c.url, err)
		}
		return err
	}
	// WithMaxRetries treats 0 as unlimited
	var policy backoff.BackOff = &backoff.StopBackOff{}
	if 0 < c.settings.DialRetries {
		policy = backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.settings.DialRetries)
	}
	if err := backoff.Retry(op, backoff.WithContext(policy, c.dialCtx)); err != nil {
		return nil, err
	}
	return ws, nil
}

func (c *Conn) run() {
	defer close(c.done)
	defer c.dialCancel()

	ws, err := c.dial()
	if err != nil {
		c.stateLock.Lock()
		requested := c.closeRequested
		c.stateLock.Unlock()
		if requested {
			err = nil
		}
		c.emit(Event{Kind: EventClosed, Err: err})
		return
	}

	c.stateLock.Lock()
	if c.closeRequested {
		c.stateLock.Unlock()
		ws.Close()
		c.emit(Event{Kind: EventClosed})
		return
	}
	c.ws = ws
	c.stateLock.Unlock()

	glog.Infof("[t]%s open %s\n", c.name, c.url)
	c.emit(Event{Kind: EventOpen})

	handleCtx, handleCancel := context.WithCancel(c.ctx)
	defer handleCancel()
	go c.writePump(handleCtx, ws)

	c.emit(c.readPump(ws))
	ws.Close()
}

func (c *Conn) readPump(ws *websocket.Conn) Event {
	ws.SetReadDeadline(time.Now().Add(c.settings.ReadTimeout))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(c.settings.ReadTimeout))
		return nil
	})
	for {
		messageType, message, err := ws.ReadMessage()
		if err != nil {
			c.stateLock.Lock()
			requested := c.closeRequested
			c.stateLock.Unlock()
			if requested || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				glog.Infof("[t]%s closed\n", c.name)
				return Event{Kind: EventClosed}
			}
			glog.Infof("[t]%s<- error = %s\n", c.name, err)
			return Event{Kind: EventClosed, Err: err}
		}
		ws.SetReadDeadline(time.Now().Add(c.settings.ReadTimeout))

		switch messageType {
		case websocket.TextMessage:
			glog.V(2).Infof("[t]%s<- %d bytes\n", c.name, len(message))
			c.emit(Event{Kind: EventMessage, Data: string(message)})
		default:
			glog.V(2).Infof("[t]%s<- other=%d\n", c.name, messageType)
		}
	}
}

func (c *Conn) writePump(ctx context.Context, ws *websocket.Conn) {
	ping := time.NewTicker(c.settings.PingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case message := <-c.send:
			ws.SetWriteDeadline(time.Now().Add(c.settings.WriteTimeout))
			if err := ws.WriteMessage(websocket.TextMessage, message); err != nil {
				// a write deadline cannot be recovered, the read side reports the close
				glog.Infof("[t]%s-> error = %s\n", c.name, err)
				c.emit(Event{Kind: EventError, Err: err})
				ws.Close()
				return
			}
			glog.V(2).Infof("[t]%s-> %d bytes\n", c.name, len(message))
		case <-ping.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.settings.WriteTimeout)); err != nil {
				glog.Infof("[t]%s ping error = %s\n", c.name, err)
			}
		}
	}
}

// Send queues a text frame. It does not block.
func (c *Conn) Send(frame string) error {
	c.stateLock.Lock()
	defer c.stateLock.Unlock()
	if c.closeRequested {
		return ErrClosed
	}
	if c.ws == nil {
		return ErrNotOpen
	}
	select {
	case c.send <- []byte(frame):
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close starts a normal close handshake. The closed event follows.
func (c *Conn) Close() error {
	c.stateLock.Lock()
	if c.closeRequested {
		c.stateLock.Unlock()
		return nil
	}
	c.closeRequested = true
	ws := c.ws
	c.stateLock.Unlock()

	if ws == nil {
		// still dialing
		c.dialCancel()
		return nil
	}
	err := ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(c.settings.WriteTimeout),
	)
	time.AfterFunc(c.settings.CloseTimeout, func() {
		ws.Close()
	})
	return err
}

// Done is closed after the closed event was emitted.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}
