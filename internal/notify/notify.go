// Package notify holds page-lifetime UI notification state: a queue of
// auto-expiring toasts and a single-resolve confirmation prompt. Nothing
// here is persisted; a restart clears it.
package notify

import (
	"time"
)

// Kind is the toast severity.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Warning Kind = "warning"
	Info    Kind = "info"
)

// DefaultTTL returns the per-kind display time. Errors stay longer.
func DefaultTTL(k Kind) time.Duration {
	if k == Error {
		return 8 * time.Second
	}
	return 4 * time.Second
}

// Toast is one message in the queue.
type Toast struct {
	ID      int
	Kind    Kind
	Message string
	Expiry  time.Time
}

// Center is the process-wide toast queue. It is driven from the single
// UI goroutine; no locking.
type Center struct {
	nextID int
	toasts []Toast
	now    func() time.Time
}

// NewCenter creates an empty notification center.
func NewCenter() *Center {
	return &Center{now: time.Now}
}

// Push adds a toast with the default TTL for its kind and returns its id.
func (c *Center) Push(k Kind, msg string) int {
	return c.PushTTL(k, msg, DefaultTTL(k))
}

// PushTTL adds a toast with an explicit TTL.
func (c *Center) PushTTL(k Kind, msg string, ttl time.Duration) int {
	c.nextID++
	c.toasts = append(c.toasts, Toast{
		ID:      c.nextID,
		Kind:    k,
		Message: msg,
		Expiry:  c.now().Add(ttl),
	})
	return c.nextID
}

// Active prunes expired toasts and returns the live ones, oldest first.
func (c *Center) Active() []Toast {
	now := c.now()
	live := c.toasts[:0]
	for _, t := range c.toasts {
		if t.Expiry.After(now) {
			live = append(live, t)
		}
	}
	c.toasts = live
	return c.toasts
}

// Dismiss removes a toast before its expiry.
func (c *Center) Dismiss(id int) {
	for i, t := range c.toasts {
		if t.ID == id {
			c.toasts = append(c.toasts[:i], c.toasts[i+1:]...)
			return
		}
	}
}

// NextExpiry returns the soonest toast expiry so the UI can schedule one
// redraw tick, or zero time when the queue is empty.
func (c *Center) NextExpiry() time.Time {
	var next time.Time
	for _, t := range c.toasts {
		if next.IsZero() || t.Expiry.Before(next) {
			next = t.Expiry
		}
	}
	return next
}

// Confirm is a pending yes/no prompt. The callback runs exactly once no
// matter how many resolution paths fire.
type Confirm struct {
	Title    string
	Message  string
	resolved bool
	fn       func(bool)
}

// NewConfirm creates a prompt whose fn receives the user's choice.
func NewConfirm(title, message string, fn func(bool)) *Confirm {
	return &Confirm{Title: title, Message: message, fn: fn}
}

// Resolve delivers the choice. Later calls are no-ops.
func (p *Confirm) Resolve(ok bool) {
	if p.resolved || p.fn == nil {
		return
	}
	p.resolved = true
	p.fn(ok)
}

// Resolved reports whether a choice was already delivered.
func (p *Confirm) Resolved() bool { return p.resolved }
