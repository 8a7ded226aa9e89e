package hub

import (
	"errors"
	"sync"
	"time"

	"github.com/chess-vn/livematch/internal/domains/dtos"
	"github.com/chess-vn/livematch/internal/domains/entities"
	"github.com/chess-vn/livematch/pkg/logging"
	"github.com/chess-vn/livematch/pkg/utils"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Messages queued for a client before it is considered stalled.
	sendBufferSize = 64
)

var (
	ErrClientClosed   = errors.New("client closed")
	ErrSendBufferFull = errors.New("client send buffer full")
)

// Conn is the write side of a websocket connection.
type Conn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type outbound struct {
	msg     dtos.Message
	flushed chan struct{}
}

type Client struct {
	id   string
	user entities.User
	conn Conn
	hub  *Hub

	send      chan outbound
	done      chan struct{}
	closeOnce sync.Once
	pumpOnce  sync.Once
}

func NewClient(user entities.User, conn Conn) *Client {
	return &Client{
		id:   utils.GenerateUUID(),
		user: user,
		conn: conn,
		send: make(chan outbound, sendBufferSize),
		done: make(chan struct{}),
	}
}

func (c *Client) Id() string {
	return c.id
}

func (c *Client) User() entities.User {
	return c.user
}

func (c *Client) UserId() string {
	return c.user.Id
}

// Send queues msg for the write pump and never blocks. A client whose
// queue is full is closed.
func (c *Client) Send(msg dtos.Message) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}
	select {
	case c.send <- outbound{msg: msg}:
		return nil
	default:
		c.Close()
		return ErrSendBufferFull
	}
}

// Flush blocks until every message queued before the call was written, or
// the client is closed.
func (c *Client) Flush() {
	flushed := make(chan struct{})
	select {
	case c.send <- outbound{flushed: flushed}:
	case <-c.done:
		return
	}
	select {
	case <-flushed:
	case <-c.done:
	}
}

// Close stops the write pump and closes the connection, which also ends
// the connection's read loop.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if err := c.conn.Close(); err != nil {
			logging.Debug("close connection", zap.String("client_id", c.id), zap.Error(err))
		}
	})
}

// Closed is closed once the client stops accepting messages.
func (c *Client) Closed() <-chan struct{} {
	return c.done
}

func (c *Client) startPump() {
	c.pumpOnce.Do(func() {
		go c.writePump()
	})
}

// writePump is the only goroutine writing to the connection.
func (c *Client) writePump() {
	for {
		select {
		case out := <-c.send:
			if out.flushed != nil {
				close(out.flushed)
				continue
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(out.msg); err != nil {
				logging.Error("couldn't write to client",
					zap.String("user_id", c.user.Id),
					zap.String("client_id", c.id),
					zap.Error(err),
				)
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) Join(room string) bool {
	return c.hub.Join(c, room)
}

func (c *Client) Leave(room string) {
	c.hub.Leave(c, room)
}

func (c *Client) InRoom(room string) bool {
	return c.hub.InRoom(c, room)
}
