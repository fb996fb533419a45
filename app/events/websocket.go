package events

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const websocketWriteTimeout = 5 * time.Second

// WebsocketSubscriber forwards events to a websocket client as JSON text
// frames. One connection may be registered for several event types; the
// first failed write or Close tears the connection down.
type WebsocketSubscriber struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func NewWebsocketSubscriber(conn *websocket.Conn) *WebsocketSubscriber {
	return &WebsocketSubscriber{
		conn: conn,
		done: make(chan struct{}),
	}
}

func (w *WebsocketSubscriber) Deliver(evt Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	if err := w.conn.SetWriteDeadline(time.Now().Add(websocketWriteTimeout)); err != nil {
		return err
	}
	return w.conn.WriteJSON(evt)
}

func (w *WebsocketSubscriber) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	_ = w.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	w.conn.Close()
	close(w.done)
}

// Done is closed once the subscriber has been closed
func (w *WebsocketSubscriber) Done() <-chan struct{} {
	return w.done
}
