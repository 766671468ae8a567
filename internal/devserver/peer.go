package devserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 5 * time.Second
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// peer is one connected browser or terminal client.
type peer struct {
	conn *websocket.Conn
	send chan []byte

	stateLock sync.Mutex
	closed    bool
}

func newPeer(conn *websocket.Conn) *peer {
	p := &peer{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
	go p.writePump()
	return p
}

// write queues a frame. A peer that cannot keep up is dropped.
func (p *peer) write(frame string) {
	p.stateLock.Lock()
	defer p.stateLock.Unlock()
	if p.closed {
		return
	}
	select {
	case p.send <- []byte(frame):
	default:
		glog.Warningf("[devserver]peer send buffer full, closing\n")
		p.closed = true
		close(p.send)
	}
}

func (p *peer) close() {
	p.stateLock.Lock()
	defer p.stateLock.Unlock()
	if !p.closed {
		p.closed = true
		close(p.send)
	}
}

func (p *peer) writePump() {
	defer p.conn.Close()
	for {
		message, ok := <-p.send
		if !ok {
			p.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait),
			)
			return
		}
		p.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := p.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			glog.Infof("[devserver]write error = %s\n", err)
			return
		}
	}
}

// readPump calls handle for every text frame until the connection ends.
func (p *peer) readPump(handle func(message string)) {
	for {
		messageType, message, err := p.conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType == websocket.TextMessage {
			handle(string(message))
		}
	}
}
