package chat

import "ecatalog-admin/internal/api"

// Log merges the HTTP-fetched history with inbound socket frames for one
// conversation. Frames are de-duplicated by server id and by client_msg_id,
// so a server echo of an HTTP-posted attachment renders once.
type Log struct {
	msgs          []api.ChatMessage
	seenIDs       map[int]bool
	seenClientIDs map[string]bool
}

// NewLog creates an empty message log.
func NewLog() *Log {
	return &Log{
		seenIDs:       make(map[int]bool),
		seenClientIDs: make(map[string]bool),
	}
}

// SetHistory replaces the log with the fetched message list (oldest first).
func (l *Log) SetHistory(msgs []api.ChatMessage) {
	l.msgs = nil
	clear(l.seenIDs)
	clear(l.seenClientIDs)
	for _, m := range msgs {
		l.Append(m)
	}
}

// Append adds a message unless it was already seen. Returns false for
// duplicates.
func (l *Log) Append(m api.ChatMessage) bool {
	if m.ID != 0 && l.seenIDs[m.ID] {
		return false
	}
	if m.ClientMsgID != "" && l.seenClientIDs[m.ClientMsgID] {
		return false
	}
	if m.ID != 0 {
		l.seenIDs[m.ID] = true
	}
	if m.ClientMsgID != "" {
		l.seenClientIDs[m.ClientMsgID] = true
	}
	l.msgs = append(l.msgs, m)
	return true
}

// Messages returns the merged list, oldest first.
func (l *Log) Messages() []api.ChatMessage { return l.msgs }

// Len returns the message count.
func (l *Log) Len() int { return len(l.msgs) }
