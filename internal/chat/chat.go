// Package chat owns the WebSocket side of the support chat. Each selected
// conversation holds exactly one connection; text goes over the socket,
// attachments over HTTP multipart (see api.SendChatAttachment).
package chat

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"

	"ecatalog-admin/internal/api"
	"ecatalog-admin/internal/infra/logx"
)

// Dialer opens conversation sockets against the chat WS root
// (ws(s)://host/ws).
type Dialer struct {
	wsURL string
}

// NewDialer creates a dialer for the configured WS root.
func NewDialer(wsURL string) *Dialer {
	return &Dialer{wsURL: wsURL}
}

// Conn is one live conversation socket. Incoming delivers parsed frames
// and closes when the socket dies or Close is called.
type Conn struct {
	ConversationID int
	Incoming       <-chan api.ChatMessage

	ws        *websocket.Conn
	closeOnce sync.Once
}

// Dial connects the socket for a conversation, authenticating with the
// session's JWT in the query string.
func (d *Dialer) Dial(ctx context.Context, conversationID int, token string) (*Conn, error) {
	u := fmt.Sprintf("%s/chat/%d/?token=%s", d.wsURL, conversationID, url.QueryEscape(token))
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("chat dial: %w", err)
	}

	ch := make(chan api.ChatMessage, 32)
	conn := &Conn{ConversationID: conversationID, Incoming: ch, ws: ws}
	go conn.readLoop(ch)
	return conn, nil
}

func (c *Conn) readLoop(ch chan<- api.ChatMessage) {
	defer close(ch)
	for {
		var msg api.ChatMessage
		if err := c.ws.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logx.Debugw("chat socket closed", logx.Fields{
					"conversation": c.ConversationID,
					"err":          err.Error(),
				})
			}
			return
		}
		ch <- msg
	}
}

type outboundFrame struct {
	Body        string `json:"body"`
	ClientMsgID string `json:"client_msg_id,omitempty"`
}

// Send writes a text message frame. clientMsgID lets the server echo be
// matched against the local copy.
func (c *Conn) Send(body, clientMsgID string) error {
	return c.ws.WriteJSON(outboundFrame{Body: body, ClientMsgID: clientMsgID})
}

// Close shuts the socket down. Safe to call more than once; the read loop
// ends and Incoming closes.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteMessage(websocket.CloseMessage, closeMsg)
		_ = c.ws.Close()
	})
}
