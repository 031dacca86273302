package api

import (
	"context"
	"fmt"
	"io"
)

// ChatSettings is the operator-side chat configuration.
type ChatSettings struct {
	Enabled      bool   `json:"enabled"`
	OperatorName string `json:"operator_name,omitempty"`
	Greeting     string `json:"greeting,omitempty"`
}

// Conversation is the unit a WebSocket connection binds to.
type Conversation struct {
	ID            int    `json:"id"`
	Status        string `json:"status"` // open|closed
	ClientName    string `json:"client_name,omitempty"`
	UnreadCount   int    `json:"unread_count,omitempty"`
	LastMessageAt string `json:"last_message_at,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// ChatMessage is one message in a conversation. File attachments travel
// over HTTP; the socket carries text frames only.
type ChatMessage struct {
	ID           int    `json:"id"`
	Conversation int    `json:"conversation"`
	Sender       string `json:"sender"` // client|operator
	SenderName   string `json:"sender_name,omitempty"`
	Body         string `json:"body"`
	FileURL      string `json:"file,omitempty"`
	ImageURL     string `json:"image,omitempty"`
	ClientMsgID  string `json:"client_msg_id,omitempty"`
	CreatedAt    string `json:"created_at,omitempty"`
}

func (c *Client) GetChatSettings(ctx context.Context) (ChatSettings, error) {
	var s ChatSettings
	err := c.get(ctx, "/chat/settings/", nil, &s)
	return s, err
}

func (c *Client) ListConversations(ctx context.Context, opts ListOpts) (Page[Conversation], error) {
	return list[Conversation](ctx, c, "/chat/conversations/", opts)
}

func (c *Client) ListChatMessages(ctx context.Context, conversationID int, opts ListOpts) (Page[ChatMessage], error) {
	path := fmt.Sprintf("/chat/conversations/%d/messages/", conversationID)
	return list[ChatMessage](ctx, c, path, opts)
}

// SendChatAttachment posts a message with a file over HTTP multipart.
// clientMsgID lets the UI de-duplicate a possible socket echo.
func (c *Client) SendChatAttachment(ctx context.Context, conversationID int, body, clientMsgID, filename string, r io.Reader) (ChatMessage, error) {
	var msg ChatMessage
	fields := map[string]string{
		"conversation":  fmt.Sprint(conversationID),
		"body":          body,
		"client_msg_id": clientMsgID,
	}
	files := []FilePart{{Field: "file", Filename: filename, Reader: r}}
	err := c.postMultipart(ctx, "/chat/messages/", fields, files, &msg)
	return msg, err
}

// CloseConversation marks a conversation closed.
func (c *Client) CloseConversation(ctx context.Context, conversationID int) error {
	path := fmt.Sprintf("/chat/conversations/%d/", conversationID)
	return c.patch(ctx, path, map[string]string{"status": "closed"}, nil)
}
